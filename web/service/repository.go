package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/util/common"

	"gorm.io/gorm"
)

// Field validation message keys, localized by the web layer.
const (
	msgRequired  = "validation.required"
	msgTooLong   = "validation.tooLong"
	msgPositive  = "validation.positive"
	msgUf        = "validation.uf"
	msgEmail     = "validation.email"
	msgReference = "validation.reference"
)

var (
	ufPattern    = regexp.MustCompile(`^[A-Z]{2}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// requiredString trims *v and records an error if it is missing or longer than max runes.
// When creating is false a nil v is accepted and left alone.
func requiredString(fe common.FieldErrors, field string, v *string, max int, creating bool) {
	if v == nil {
		if creating {
			fe.Add(field, msgRequired)
		}
		return
	}
	*v = strings.TrimSpace(*v)
	if *v == "" {
		fe.Add(field, msgRequired)
		return
	}
	if utf8.RuneCountInString(*v) > max {
		fe.Add(field, msgTooLong)
	}
}

func optionalString(fe common.FieldErrors, field string, v *string, max int) {
	if v == nil {
		return
	}
	*v = strings.TrimSpace(*v)
	if utf8.RuneCountInString(*v) > max {
		fe.Add(field, msgTooLong)
	}
}

func positiveInt(fe common.FieldErrors, field string, v *int, creating bool) {
	if v == nil {
		if creating {
			fe.Add(field, msgRequired)
		}
		return
	}
	if *v <= 0 {
		fe.Add(field, msgPositive)
	}
}

// normalizeUf upper-cases *v and checks it is two letters.
func normalizeUf(fe common.FieldErrors, field string, v *string, creating bool) {
	if v == nil {
		if creating {
			fe.Add(field, msgRequired)
		}
		return
	}
	*v = strings.ToUpper(strings.TrimSpace(*v))
	if *v == "" {
		fe.Add(field, msgRequired)
		return
	}
	if !ufPattern.MatchString(*v) {
		fe.Add(field, msgUf)
	}
}

// ensureExists records a reference error when no row of m has the given id.
func ensureExists(tx *gorm.DB, fe common.FieldErrors, field string, m any, id *int) error {
	if id == nil || *id <= 0 {
		return nil
	}
	var n int64
	if err := tx.Model(m).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		fe.Add(field, msgReference)
	}
	return nil
}

// findByID loads one row or returns NotFound with resource as its parameter.
func findByID[T any](tx *gorm.DB, resource string, id int, preloads ...string) (*T, error) {
	var row T
	q := tx
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&row, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("error.notFound").WithParam("Resource", resource)
		}
		return nil, common.Internal(err)
	}
	return &row, nil
}

// reference is a column of another table pointing at the row being deleted.
type reference struct {
	table  string
	column string
}

// ensureUnreferenced fails with Conflict when any reference still points at id.
func ensureUnreferenced(tx *gorm.DB, resource string, id int, refs ...reference) error {
	for _, ref := range refs {
		var n int64
		if err := tx.Table(ref.table).Where(ref.column+" = ?", id).Count(&n).Error; err != nil {
			return common.Internal(err)
		}
		if n > 0 {
			return common.Conflict("error.inUse").
				WithParam("Resource", resource).
				WithParam("Dependent", ref.table).
				WithDetails(map[string]int64{ref.table: n})
		}
	}
	return nil
}

// translateWriteError converts store constraint failures into application errors.
// uniqueField names the field reported on a unique violation.
func translateWriteError(err error, uniqueField string) error {
	if err == nil {
		return nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case database.IsUniqueViolation(err):
		return common.Conflict("error.duplicate").WithParam("Field", uniqueField)
	case database.IsForeignKeyViolation(err):
		return common.Conflict("error.constraint")
	}
	return common.Internal(fmt.Errorf("write failed: %w", err))
}
