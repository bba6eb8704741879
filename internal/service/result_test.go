package service

import (
	"errors"
	"testing"

	"fintrack/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	ok := Ok(42)
	v, err := ok.Unwrap()
	require.NoError(t, err)
	assert.True(t, ok.IsOk())
	assert.Equal(t, 42, v)

	failed := Fail(ErrNotFound, []string{})
	assert.False(t, failed.IsOk())
	assert.ErrorIs(t, failed.Err(), ErrNotFound)
	assert.Equal(t, []string{}, failed.Value())

	assert.ErrorIs(t, Fail[int](nil, 0).Err(), ErrUnavailable)
}

func TestGuard(t *testing.T) {
	res := Guard(func() Result[string] { panic("boom") })
	assert.False(t, res.IsOk())
	assert.ErrorIs(t, res.Err(), ErrUnavailable)
	assert.Contains(t, res.Err().Error(), "boom")

	assert.Equal(t, "fine", Guard(func() Result[string] { return Ok("fine") }).Value())
}

func TestInvalid(t *testing.T) {
	verr := validation.Result{Errors: []string{"amount must not be zero"}}.Err()
	err := Invalid(verr)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, validation.ErrInvalid))
	assert.Equal(t, []string{"amount must not be zero"}, validation.Messages(err))
}
