// Package types defines the shared data model for the Recall memory system.
//
// The central type is MemoryRecord, the atomic unit of long-term memory:
// a piece of factual text about the user, a category label from a fixed set,
// and an optional embedding vector for semantic retrieval.
package types

import "time"

// Category classifies a memory's topic. The set is closed: any producer
// supplying an unrecognized label is coerced to CategoryMisc.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryFood     Category = "food"
	CategoryTravel   Category = "travel"
	CategoryMisc     Category = "misc"
)

// Categories lists all valid categories in a stable order.
var Categories = []Category{CategoryPersonal, CategoryFood, CategoryTravel, CategoryMisc}

// IsValid reports whether c is a member of the fixed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPersonal, CategoryFood, CategoryTravel, CategoryMisc:
		return true
	}
	return false
}

// CoerceCategory maps an arbitrary label onto the fixed category set.
// Unrecognized labels become CategoryMisc rather than an error.
func CoerceCategory(label string) Category {
	c := Category(label)
	if c.IsValid() {
		return c
	}
	return CategoryMisc
}

// MemoryRecord is a single long-term memory.
//
// Records are immutable once stored: "updating" a memory means deleting the
// old record and inserting a new one, which is exactly what compaction does.
// Embedding is nil when the encoder failed or was skipped; retrieval still
// works for such records, just without similarity ranking.
type MemoryRecord struct {
	ID        string    `json:"id"`                  // assigned by the store on insert, never reused
	Content   string    `json:"content"`             // plain text, non-empty
	Category  Category  `json:"category"`            // member of the fixed category set
	Embedding []float64 `json:"embedding,omitempty"` // optional fixed-dimension vector
	CreatedAt time.Time `json:"created_at"`          // insertion time; "oldest" ordering for compaction
}

// HasEmbedding reports whether the record carries an embedding vector.
func (m *MemoryRecord) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// Fact is an extracted piece of factual information about the user,
// produced by the extractor before it is deduplicated and stored.
type Fact struct {
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

// Message is a single chat turn held in the short-term session window.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
