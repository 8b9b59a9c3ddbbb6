package gridstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridErrorMessageIncludesComponent(t *testing.T) {
	err := NewTypeError("extend_mismatch", "column expects int64, got string").
		WithComponent("column")
	assert.Contains(t, err.Error(), "column")
	assert.Contains(t, err.Error(), "extend_mismatch")
}

func TestGridErrorWithCauseUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewIOError("cold_read_failed", "could not read dataset").WithCause(cause)
	require.ErrorIs(t, err, cause)
}

func TestGridErrorWithDetails(t *testing.T) {
	err := NewResourceError("alloc_failed", "no memory").WithDetail("bytes", 1024)
	assert.Equal(t, 1024, err.Details["bytes"])

	err = err.WithDetails(map[string]any{"retry": true})
	assert.Equal(t, true, err.Details["retry"])
	assert.Equal(t, 1024, err.Details["bytes"])
}

func TestIsType(t *testing.T) {
	err := NewGraphError("missing_edge", "no such edge")
	assert.True(t, IsType(err, ErrorTypeGraph))
	assert.False(t, IsType(err, ErrorTypeIO))

	wrapped := &GridError{Type: ErrorTypeContention, Code: "x", Message: "y", Cause: err}
	assert.True(t, IsType(wrapped, ErrorTypeContention))

	assert.False(t, IsType(errors.New("plain"), ErrorTypeIO))
	assert.False(t, IsType(nil, ErrorTypeIO))
}
