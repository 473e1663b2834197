package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates empty document text, an empty query or a bad top_k.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested document is unknown.
	ErrNotFound = errors.New("not found")
)

// EmbeddingError reports an unavailable embedding backend or malformed output.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError reports a vector store that is unavailable or corrupt.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// FilteredQueryError is returned when the store cannot evaluate a metadata
// filter. Retrieval recovers from it with a single unfiltered query.
type FilteredQueryError struct {
	Filter Filter
	Err    error
}

func (e *FilteredQueryError) Error() string {
	return fmt.Sprintf("filtered query %v: %v", map[string]string(e.Filter), e.Err)
}

func (e *FilteredQueryError) Unwrap() error { return e.Err }

// ConsistencyWarning describes a registry/store disagreement. It is reported
// at listing time and never fails the call.
type ConsistencyWarning struct {
	DocID  string `json:"doc_id"`
	Reason string `json:"reason"`
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("%s: %s", w.DocID, w.Reason)
}

// IsStoreError reports whether err is (or wraps) a storage failure,
// including filtered query failures.
func IsStoreError(err error) bool {
	var se *StoreError
	var fe *FilteredQueryError
	return errors.As(err, &se) || errors.As(err, &fe)
}

// IsEmbeddingError reports whether err is (or wraps) an embedding failure.
func IsEmbeddingError(err error) bool {
	var ee *EmbeddingError
	return errors.As(err, &ee)
}
