// Package engine orchestrates the memory system: storing extracted facts
// with deduplication, category-aware retrieval, summarizing compaction, and
// the chat pipeline that ties them together.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/extract"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/session"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// DefaultDuplicateThreshold is the cosine similarity at which a new fact is
// considered a duplicate of an existing one and skipped.
const DefaultDuplicateThreshold = 0.92

// DefaultTopK is how many memories retrieval returns for prompt context.
const DefaultTopK = 5

const systemInstruction = `You are a helpful conversational assistant with long-term memory of the user.
Use the provided "Relevant memories" to personalize your responses. Be concise and natural.
If memories conflict with what the user just said, prioritize the most recent conversation.`

const fallbackReply = "The AI service is temporarily unavailable. Please try again in a moment."

// Config holds the tunable parameters of the memory manager.
type Config struct {
	TopK                 int
	DuplicateThreshold   float64
	CompressionThreshold int
	CompressionBatch     int
	RefineQueries        bool
}

// DefaultConfig returns the standard manager settings.
func DefaultConfig() Config {
	return Config{
		TopK:                 DefaultTopK,
		DuplicateThreshold:   DefaultDuplicateThreshold,
		CompressionThreshold: DefaultCompressionThreshold,
		CompressionBatch:     DefaultCompressionBatch,
		RefineQueries:        true,
	}
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.TopK < 0 {
		return fmt.Errorf("top K cannot be negative: %d", c.TopK)
	}
	if c.DuplicateThreshold < -1 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate threshold must be in [-1, 1]: %f", c.DuplicateThreshold)
	}
	return nil
}

// Manager is the top-level orchestrator. It owns no conversation state;
// each operation takes the caller's session where one is needed.
type Manager struct {
	config    Config
	store     storage.RecordStore
	gateway   *embedding.Gateway
	provider  llm.Provider
	extractor extract.Extractor
	retriever *Retriever
	compactor *Compactor

	onRecordStored func(record types.MemoryRecord)
	onCompaction   func()
}

// NewManager wires the memory manager. The provider may be nil, in which
// case chat replies degrade to the fallback message and extraction uses the
// local rules.
func NewManager(store storage.RecordStore, gateway *embedding.Gateway, provider llm.Provider, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if gateway == nil {
		gateway = embedding.NewGateway(nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.DuplicateThreshold == 0 {
		cfg.DuplicateThreshold = DefaultDuplicateThreshold
	}

	m := &Manager{
		config:    cfg,
		store:     store,
		gateway:   gateway,
		provider:  provider,
		extractor: extract.NewModelExtractor(provider),
		retriever: NewRetriever(store, gateway, cfg.RefineQueries),
		compactor: NewCompactor(store, gateway, provider, cfg.CompressionThreshold, cfg.CompressionBatch),
	}
	return m, nil
}

// SetOnRecordStored registers a callback invoked after each stored fact.
// LLMAvailable reports whether a text provider is configured. Without one
// the manager runs with rule-based extraction and a canned chat reply.
func (m *Manager) LLMAvailable() bool {
	return m.provider != nil
}

func (m *Manager) SetOnRecordStored(callback func(record types.MemoryRecord)) {
	m.onRecordStored = callback
}

// SetOnCompaction registers a callback invoked after a committed compaction.
func (m *Manager) SetOnCompaction(callback func()) {
	m.onCompaction = callback
}

// Remember extracts facts from a user message and stores the ones that are
// not near-duplicates of existing records in the same category. Encoder
// failure stores the fact without an embedding rather than dropping it.
func (m *Manager) Remember(ctx context.Context, text string) ([]types.MemoryRecord, error) {
	facts := m.extractor.Extract(ctx, text)

	var stored []types.MemoryRecord
	for _, fact := range facts {
		if fact.Content == "" {
			continue
		}
		category := types.CoerceCategory(string(fact.Category))

		emb, err := m.gateway.Embed(ctx, fact.Content)
		if err != nil {
			log.Printf("engine: embedding failed for fact, storing without vector: %v", err)
			emb = nil
		}

		if len(emb) > 0 {
			dup, err := m.store.HasSimilar(ctx, emb, category, m.config.DuplicateThreshold)
			if err != nil {
				return stored, err
			}
			if dup {
				continue
			}
		}

		record, err := m.store.Insert(ctx, fact.Content, category, emb)
		if err != nil {
			return stored, err
		}
		stored = append(stored, *record)
		if m.onRecordStored != nil {
			m.onRecordStored(*record)
		}
	}
	return stored, nil
}

// Retrieve returns up to topK memories relevant to the query. topK <= 0
// uses the configured default.
func (m *Manager) Retrieve(ctx context.Context, query string, topK int, category types.Category) ([]types.MemoryRecord, error) {
	if topK <= 0 {
		topK = m.config.TopK
	}
	return m.retriever.Retrieve(ctx, query, topK, category)
}

// Compact runs one compaction attempt and reports whether a summary was
// committed.
func (m *Manager) Compact(ctx context.Context) (bool, error) {
	if m.provider == nil {
		return false, nil
	}
	ran, err := m.compactor.MaybeCompress(ctx)
	if ran && m.onCompaction != nil {
		m.onCompaction()
	}
	return ran, err
}

// ChatResult is the outcome of one conversational turn.
type ChatResult struct {
	Reply     string
	Retrieved []types.MemoryRecord
	Stored    []types.MemoryRecord
	Compacted bool
	Latency   time.Duration
}

// Chat runs a full turn: store new facts, compact if due, retrieve relevant
// memories, and generate a reply against the session context. The session
// is updated with both sides of the exchange.
func (m *Manager) Chat(ctx context.Context, sess *session.Session, message string) (*ChatResult, error) {
	start := time.Now()
	sess.Append("user", message)

	stored, err := m.Remember(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to store facts: %w", err)
	}

	compacted, err := m.Compact(ctx)
	if err != nil {
		log.Printf("engine: compaction failed: %v", err)
	}

	retrieved, err := m.Retrieve(ctx, message, m.config.TopK, "")
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve memories: %w", err)
	}

	reply := m.generateReply(ctx, sess, message, retrieved)
	sess.Append("assistant", reply)

	return &ChatResult{
		Reply:     reply,
		Retrieved: retrieved,
		Stored:    stored,
		Compacted: compacted,
		Latency:   time.Since(start),
	}, nil
}

func (m *Manager) generateReply(ctx context.Context, sess *session.Session, message string, memories []types.MemoryRecord) string {
	if m.provider == nil {
		return fallbackReply
	}

	prompt := buildPrompt(sess, message, memories)
	reply, err := m.provider.Generate(ctx, prompt)
	if err != nil || reply == "" {
		if err != nil {
			log.Printf("engine: generation failed: %v", err)
		}
		return fallbackReply
	}
	return reply
}

// buildPrompt assembles the generation prompt from retrieved memories and
// the session window.
func buildPrompt(sess *session.Session, message string, memories []types.MemoryRecord) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")

	if len(memories) > 0 {
		b.WriteString("Relevant memories:\n")
		for i := range memories {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", memories[i].Category, memories[i].Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("Recent conversation:\n")
	b.WriteString(sess.FormatContext())
	b.WriteString("\n\nUser: ")
	b.WriteString(message)
	b.WriteString("\n\nAssistant:")
	return b.String()
}
