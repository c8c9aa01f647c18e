package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("loading lodge: %w", NotFound("error.notFound"))
	appErr := AsAppError(wrapped)
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.True(t, IsKind(wrapped, KindNotFound))

	plain := AsAppError(errors.New("disk full"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.EqualError(t, plain.Unwrap(), "disk full")
}

func TestFieldErrors(t *testing.T) {
	f := FieldErrors{}
	assert.NoError(t, f.Err())

	f.Add("nome", "required")
	f.Add("nome", "too long")
	f.Add("uf", "must have 2 letters")

	err := f.Err()
	assert.True(t, IsKind(err, KindValidation))
	details := AsAppError(err).Details.(map[string]string)
	assert.Equal(t, "required", details["nome"])
	assert.Len(t, details, 2)
}

func TestWithParamDoesNotMutate(t *testing.T) {
	base := Conflict("error.duplicate")
	withField := base.WithParam("Field", "username")
	assert.Nil(t, base.Params)
	assert.Equal(t, "username", withField.Params["Field"])
}
