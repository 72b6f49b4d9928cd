package storage

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// RecordStore provides durable storage for memory records.
//
// Implementations assume a single logical writer: multi-step protocols built
// on top of the store (dedup-then-insert, the compaction pipeline) are not
// serialized here and must be guarded by the caller when concurrency is
// introduced.
type RecordStore interface {
	// Insert stores a new record, assigning its ID and CreatedAt.
	// CreatedAt is monotonically non-decreasing in insertion order for
	// records inserted through the same store instance.
	Insert(ctx context.Context, content string, category types.Category, embedding []float64) (*types.MemoryRecord, error)

	// Get retrieves a record by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.MemoryRecord, error)

	// All returns every record ordered by CreatedAt ascending.
	All(ctx context.Context) ([]types.MemoryRecord, error)

	// ByCategory returns the records in a category ordered by CreatedAt
	// ascending. An unknown category yields an empty slice, never an error.
	ByCategory(ctx context.Context, category types.Category) ([]types.MemoryRecord, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Oldest returns the n earliest records by CreatedAt; fewer when the
	// store holds fewer records.
	Oldest(ctx context.Context, n int) ([]types.MemoryRecord, error)

	// DeleteByIDs removes records by ID. Empty input is a no-op and deleting
	// a non-existent ID is not an error.
	DeleteByIDs(ctx context.Context, ids []string) error

	// HasSimilar reports whether any record in the category has an embedding
	// whose cosine similarity to the given embedding meets the threshold.
	// Records without embeddings never match. A nil embedding returns false
	// immediately: an un-encodable fact is never treated as a duplicate.
	HasSimilar(ctx context.Context, embedding []float64, category types.Category, threshold float64) (bool, error)

	// ReplaceWithSummary atomically inserts one summary record (category
	// misc) and deletes the given old records. Either both happen or
	// neither: a partial outcome would duplicate or destroy facts.
	ReplaceWithSummary(ctx context.Context, oldRecords []types.MemoryRecord, summaryContent string, summaryEmbedding []float64) error

	// Close releases any resources held by the store.
	Close() error
}
