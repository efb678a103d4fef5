package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassFollowsWrapping(t *testing.T) {
	errInvalidQuantity := New(ErrValidation, "invalid_quantity")
	wrapped := fmt.Errorf("calculate: %w", errInvalidQuantity)

	assert.True(t, errors.Is(wrapped, errInvalidQuantity))
	assert.Equal(t, ErrValidation, Class(wrapped))
	assert.Equal(t, "invalid_quantity", Code(wrapped))
}

func TestClassOfUnknownError(t *testing.T) {
	assert.Nil(t, Class(errors.New("boom")))
	assert.Equal(t, "boom", Code(errors.New("boom")))
	assert.Equal(t, "", Code(nil))
}

func TestDistinctSentinelsWithSameClass(t *testing.T) {
	a := New(ErrConflict, "status_conflict")
	b := New(ErrConflict, "self_approval_not_allowed")

	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrConflict))
	assert.True(t, errors.Is(b, ErrConflict))
}
