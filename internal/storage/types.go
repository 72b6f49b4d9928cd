// Package storage defines the record store contract for long-term memories.
//
// The store owns all persisted records. It deliberately does not enforce
// deduplication: HasSimilar is a query that the memory-management layer
// consults before inserting, which keeps the similarity policy (threshold,
// category scope) out of the storage layer.
package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)
