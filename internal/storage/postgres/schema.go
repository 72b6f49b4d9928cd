package postgres

// Schema is the base PostgreSQL schema. All statements are idempotent so the
// schema can be re-applied on every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	seq BIGSERIAL,
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	embedding BYTEA,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
`

// MigrationPgvector adds a native vector column for servers with the pgvector
// extension installed. The BYTEA column stays authoritative; the vector column
// exists for ad-hoc cosine-distance queries against the database directly.
const MigrationPgvector = `
ALTER TABLE records ADD COLUMN IF NOT EXISTS embedding_vec vector;
`
