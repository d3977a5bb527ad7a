package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorWrapping(t *testing.T) {
	t.Parallel()

	err := NotFound("postings file", os.ErrNotExist)
	wrapped := fmt.Errorf("loading postings: %w", err)

	require.ErrorIs(t, wrapped, os.ErrNotExist)
	assert.True(t, Is(wrapped, ErrTypeNotFound))
	assert.False(t, Is(wrapped, ErrTypeInvalidInput))
	assert.Contains(t, err.Error(), "NOT_FOUND: postings file")
	assert.NotEmpty(t, err.StackTrace())
}

func TestDomainErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := InvalidInput("unknown green category \"Blue\"", nil)

	assert.Equal(t, "INVALID_INPUT: unknown green category \"Blue\"", err.Error())
	assert.Nil(t, errors.Unwrap(err))
	assert.NotEmpty(t, err.StackTrace())
	assert.False(t, Is(errors.New("plain"), ErrTypeInvalidInput))
}
