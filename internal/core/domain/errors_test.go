package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionMismatchError_MatchesSentinel(t *testing.T) {
	err := &DimensionMismatchError{
		StoreProvider:  "local",
		StoreDimension: 384,
		WantProvider:   "openai:text-embedding-3-small",
		WantDimension:  1536,
	}

	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var dm *DimensionMismatchError
	require.ErrorAs(t, error(err), &dm)
	assert.Equal(t, 384, dm.StoreDimension)
	assert.Equal(t, 1536, dm.WantDimension)
}

func TestDimensionMismatchError_Message(t *testing.T) {
	err := &DimensionMismatchError{
		StoreProvider:  "local",
		StoreDimension: 384,
		WantProvider:   "openai:text-embedding-3-large",
		WantDimension:  3072,
	}

	msg := err.Error()
	assert.Contains(t, msg, "local")
	assert.Contains(t, msg, "384")
	assert.Contains(t, msg, "3072")
	assert.Contains(t, msg, "reset")
}

func TestSentinelErrors_WrapAndMatch(t *testing.T) {
	wrapped := fmt.Errorf("ingest %q: %w", "a.pdf", ErrParse)
	assert.True(t, errors.Is(wrapped, ErrParse))
	assert.False(t, errors.Is(wrapped, ErrEmbeddingProvider))
}
