// Package sqlite implements the record store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// Schema creates the records table and its supporting indexes. The category
// and created_at indexes keep ByCategory and Oldest efficient at scale.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL,
	embedding  BLOB,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
`

// RecordStore implements storage.RecordStore using SQLite.
type RecordStore struct {
	db *sql.DB

	// lastInsert clamps CreatedAt so insertion order stays monotonically
	// non-decreasing even if the wall clock steps backwards.
	mu         sync.Mutex
	lastInsert time.Time
}

// NewRecordStore opens a SQLite database, configures WAL mode, and creates
// the schema. Use ":memory:" for an ephemeral store in tests.
func NewRecordStore(dsn string) (*RecordStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors; WAL mode
	// lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

// Insert stores a new record, assigning its ID and CreatedAt.
func (s *RecordStore) Insert(ctx context.Context, content string, category types.Category, emb []float64) (*types.MemoryRecord, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: record content is required", storage.ErrInvalidInput)
	}

	record := &types.MemoryRecord{
		ID:        uuid.NewString(),
		Content:   content,
		Category:  types.CoerceCategory(string(category)),
		Embedding: emb,
		CreatedAt: s.nextCreatedAt(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, content, category, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.Content,
		string(record.Category),
		nullableBlob(serializeEmbedding(emb)),
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	return record, nil
}

// nextCreatedAt returns a UTC timestamp that never decreases across inserts
// on this store instance.
func (s *RecordStore) nextCreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastInsert) {
		now = s.lastInsert
	}
	s.lastInsert = now
	return now
}

// Get retrieves a record by ID.
func (s *RecordStore) Get(ctx context.Context, id string) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, category, embedding, created_at FROM records WHERE id = ?`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// All returns every record ordered by CreatedAt ascending.
// The rowid tiebreak preserves insertion order for equal timestamps.
func (s *RecordStore) All(ctx context.Context) ([]types.MemoryRecord, error) {
	return s.queryRecords(ctx,
		`SELECT id, content, category, embedding, created_at FROM records ORDER BY created_at ASC, rowid ASC`)
}

// ByCategory returns the records in a category, oldest first.
func (s *RecordStore) ByCategory(ctx context.Context, category types.Category) ([]types.MemoryRecord, error) {
	return s.queryRecords(ctx,
		`SELECT id, content, category, embedding, created_at FROM records WHERE category = ? ORDER BY created_at ASC, rowid ASC`,
		string(category))
}

// Count returns the total number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Oldest returns the n earliest records by CreatedAt.
func (s *RecordStore) Oldest(ctx context.Context, n int) ([]types.MemoryRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.queryRecords(ctx,
		`SELECT id, content, category, embedding, created_at FROM records ORDER BY created_at ASC, rowid ASC LIMIT ?`, n)
}

// DeleteByIDs removes records by ID. Missing IDs are silently ignored.
func (s *RecordStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args := deleteQuery(ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// HasSimilar scans the category for a record whose embedding meets the
// similarity threshold. Records without embeddings are skipped.
func (s *RecordStore) HasSimilar(ctx context.Context, emb []float64, category types.Category, threshold float64) (bool, error) {
	if len(emb) == 0 {
		return false, nil
	}

	candidates, err := s.ByCategory(ctx, category)
	if err != nil {
		return false, err
	}

	for i := range candidates {
		if !candidates[i].HasEmbedding() {
			continue
		}
		if embedding.CosineSimilarity(emb, candidates[i].Embedding) >= threshold {
			return true, nil
		}
	}
	return false, nil
}

// ReplaceWithSummary inserts one misc summary record and deletes the old
// records in a single transaction. Any failure rolls the whole step back,
// leaving the store exactly as it was.
func (s *RecordStore) ReplaceWithSummary(ctx context.Context, oldRecords []types.MemoryRecord, summaryContent string, summaryEmbedding []float64) error {
	if len(oldRecords) == 0 {
		return fmt.Errorf("%w: no records to replace", storage.ErrInvalidInput)
	}
	if summaryContent == "" {
		return fmt.Errorf("%w: summary content is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, content, category, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(),
		summaryContent,
		string(types.CategoryMisc),
		nullableBlob(serializeEmbedding(summaryEmbedding)),
		s.nextCreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary record: %w", err)
	}

	ids := make([]string, 0, len(oldRecords))
	for i := range oldRecords {
		if oldRecords[i].ID != "" {
			ids = append(ids, oldRecords[i].ID)
		}
	}
	if len(ids) > 0 {
		query, args := deleteQuery(ids)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete replaced records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replacement: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

func (s *RecordStore) queryRecords(ctx context.Context, query string, args ...interface{}) ([]types.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []types.MemoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*types.MemoryRecord, error) {
	var record types.MemoryRecord
	var category string
	var blob []byte

	if err := row.Scan(&record.ID, &record.Content, &category, &blob, &record.CreatedAt); err != nil {
		return nil, err
	}

	record.Category = types.CoerceCategory(category)

	emb, err := deserializeEmbedding(blob)
	if err != nil {
		return nil, err
	}
	record.Embedding = emb

	return &record, nil
}

// deleteQuery builds a DELETE with one placeholder per ID.
func deleteQuery(ids []string) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(`DELETE FROM records WHERE id IN (%s)`, placeholders), args
}

func nullableBlob(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
