package engine

import (
	"context"
	"log"
	"sync"

	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/storage"
)

// SummaryPrefix marks records produced by compaction.
const SummaryPrefix = "[Compressed summary] "

const (
	// DefaultCompressionThreshold is the record count at which compaction
	// starts running.
	DefaultCompressionThreshold = 50
	// DefaultCompressionBatch is how many oldest records one compaction
	// folds into a summary.
	DefaultCompressionBatch = 25
)

// Compactor folds the oldest records into a single summary record when the
// store grows past a threshold. The summarizer call is the only step that
// can abort the attempt; an abort never mutates the store.
type Compactor struct {
	store     storage.RecordStore
	gateway   *embedding.Gateway
	provider  llm.Provider
	threshold int
	batchSize int

	// mu keeps at most one compaction in flight; overlapping attempts
	// would select overlapping oldest batches.
	mu sync.Mutex
}

// NewCompactor creates a compactor. Non-positive threshold or batch size
// fall back to the defaults.
func NewCompactor(store storage.RecordStore, gateway *embedding.Gateway, provider llm.Provider, threshold, batchSize int) *Compactor {
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}
	if batchSize <= 0 {
		batchSize = DefaultCompressionBatch
	}
	return &Compactor{
		store:     store,
		gateway:   gateway,
		provider:  provider,
		threshold: threshold,
		batchSize: batchSize,
	}
}

// MaybeCompress runs one compaction attempt. It returns true only when a
// summary record was committed and the originals deleted. A summarizer
// failure aborts cleanly with (false, nil); storage errors are returned.
func (c *Compactor) MaybeCompress(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, err := c.store.Count(ctx)
	if err != nil {
		return false, err
	}
	if count < c.threshold {
		return false, nil
	}

	batch, err := c.store.Oldest(ctx, c.batchSize)
	if err != nil {
		return false, err
	}
	if len(batch) == 0 {
		return false, nil
	}

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}

	summary, err := c.provider.Summarize(ctx, texts)
	if err != nil || summary == "" {
		if err != nil {
			log.Printf("compaction: summarizer failed, keeping originals: %v", err)
		}
		return false, nil
	}

	content := SummaryPrefix + summary

	// A summary without a vector still beats the originals it replaces, so
	// encoder failure does not abort.
	summaryEmb, err := c.gateway.Embed(ctx, content)
	if err != nil {
		log.Printf("compaction: summary embedding failed, storing without vector: %v", err)
		summaryEmb = nil
	}

	if err := c.store.ReplaceWithSummary(ctx, batch, content, summaryEmb); err != nil {
		return false, err
	}
	return true, nil
}

// Threshold returns the configured compaction threshold.
func (c *Compactor) Threshold() int { return c.threshold }

// BatchSize returns the configured compaction batch size.
func (c *Compactor) BatchSize() int { return c.batchSize }
