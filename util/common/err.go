package common

import (
	"errors"
	"fmt"

	"github.com/visitlog/visitlog/logger"
)

// Kind classifies an application error; the HTTP layer maps each kind to one status code.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindUnauthorized     Kind = "Unauthorized"
	KindForbidden        Kind = "Forbidden"
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindTooManyRequests  Kind = "TooManyRequests"
	KindMethodNotAllowed Kind = "MethodNotAllowed"
	KindInternal         Kind = "InternalError"
)

// AppError is the error type returned by services and guards. Key is an i18n
// message id; Params feed its template. Details carries per-field information.
type AppError struct {
	Kind    Kind
	Key     string
	Params  map[string]any
	Details any
	Err     error
}

func (e *AppError) Error() string {
	msg := string(e.Kind) + ": " + e.Key
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

// WithParam returns a copy of e with one more template parameter.
func (e *AppError) WithParam(key string, value any) *AppError {
	c := *e
	c.Params = make(map[string]any, len(e.Params)+1)
	for k, v := range e.Params {
		c.Params[k] = v
	}
	c.Params[key] = value
	return &c
}

func newAppError(kind Kind, key string) *AppError {
	return &AppError{Kind: kind, Key: key}
}

func Validation(key string) *AppError   { return newAppError(KindValidation, key) }
func Unauthorized(key string) *AppError { return newAppError(KindUnauthorized, key) }
func Forbidden(key string) *AppError    { return newAppError(KindForbidden, key) }
func NotFound(key string) *AppError     { return newAppError(KindNotFound, key) }
func Conflict(key string) *AppError     { return newAppError(KindConflict, key) }
func TooManyRequests(key string) *AppError {
	return newAppError(KindTooManyRequests, key)
}

func MethodNotAllowed(key string) *AppError {
	return newAppError(KindMethodNotAllowed, key)
}

// Internal wraps an unexpected fault.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Key: "error.internal", Err: err}
}

// AsAppError extracts an *AppError from err; other errors come back as InternalError.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// FieldErrors accumulates validation failures keyed by field name.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

// Err returns nil when nothing was collected, else a ValidationError carrying the fields.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return Validation("error.validation").WithDetails(map[string]string(f))
}

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover must be deferred directly; it logs and swallows a panic.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
