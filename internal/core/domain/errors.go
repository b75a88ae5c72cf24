package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles the file format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrParse indicates a source file could not be read or parsed.
	// The file is logged and skipped; the run continues.
	ErrParse = errors.New("parse error")

	// ErrEmbeddingProvider indicates the embedding backend failed
	// (network, auth, timeout). It aborts the remainder of the current
	// ingest run but preserves all progress written before the failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrDimensionMismatch indicates the configured embedding provider
	// disagrees with the store the index was built with. Detected at
	// run start, before any writes. Recovery is an explicit reset.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreCorrupted indicates the persisted index is unreadable.
	// Recommended recovery is an explicit reset and re-ingest.
	ErrStoreCorrupted = errors.New("store corrupted")

	// ErrIngestInProgress indicates another ingest run holds the
	// store's write lock. Concurrent ingest runs are not supported.
	ErrIngestInProgress = errors.New("ingest already in progress")
)

// DimensionMismatchError carries enough detail to act on a provider
// or dimension disagreement between configuration and store.
type DimensionMismatchError struct {
	StoreProvider  string
	StoreDimension int
	WantProvider   string
	WantDimension  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf(
		"embedding dimension mismatch: store was built with %s (dim %d), configured provider is %s (dim %d); reset the index to switch providers",
		e.StoreProvider, e.StoreDimension, e.WantProvider, e.WantDimension,
	)
}

// Unwrap makes the typed error match ErrDimensionMismatch under errors.Is.
func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
