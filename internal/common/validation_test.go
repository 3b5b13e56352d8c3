package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_AddAndEmpty(t *testing.T) {
	e := NewValidationError()
	assert.True(t, e.Empty())

	e.Add("username", "cannot be blank")
	e.Add("username", "too short")
	e.Add("email", "must be a valid email address")

	assert.False(t, e.Empty())
	assert.Equal(t, []string{"cannot be blank", "too short"}, e.Fields["username"])
	assert.Len(t, e.Fields, 2)
}

func TestValidationError_ZeroValueAdd(t *testing.T) {
	var e ValidationError
	e.Add("password", "cannot be blank")
	assert.Equal(t, []string{"cannot be blank"}, e.Fields["password"])
}

func TestValidationError_ErrorIsSortedByField(t *testing.T) {
	e := NewValidationError()
	e.Add("username", "a")
	e.Add("email", "b")

	assert.Equal(t, "validation error: email: b; username: a", e.Error())
}

func TestValidationError_As(t *testing.T) {
	e := NewValidationError()
	e.Add("email", "bad")

	wrapped := fmt.Errorf("register: %w", e)

	var target *ValidationError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, []string{"bad"}, target.Fields["email"])
}
