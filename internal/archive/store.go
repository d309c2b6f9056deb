// Package archive provides an optional PostgreSQL-backed archive of
// processed transcripts.
//
// The archive is a flat append-only log: one row per processed audio file
// with the raw and corrected text, so past runs can be searched after the
// markdown output has been moved or edited. [NewStore] establishes the
// connection pool and runs the schema migration; all operations are safe for
// concurrent use.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlTranscripts = `
CREATE TABLE IF NOT EXISTS transcripts (
    id             BIGSERIAL    PRIMARY KEY,
    source_file    TEXT         NOT NULL,
    engine         TEXT         NOT NULL,
    language       TEXT         NOT NULL DEFAULT '',
    contexts       TEXT[]       NOT NULL DEFAULT '{}',
    raw_text       TEXT         NOT NULL,
    corrected_text TEXT         NOT NULL,
    fallback       BOOLEAN      NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transcripts_source ON transcripts (source_file);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts (created_at DESC);
`

// Record is one archived transcript.
type Record struct {
	ID            int64
	SourceFile    string
	Engine        string
	Language      string
	Contexts      []string
	RawText       string
	CorrectedText string

	// Fallback is true when correction failed and CorrectedText equals
	// RawText.
	Fallback bool

	CreatedAt time.Time
}

// Store is the PostgreSQL-backed transcript archive. It holds a single
// [pgxpool.Pool]; all operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and ensures the transcripts table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, ddlTranscripts); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Save appends one record to the archive and fills in its ID and CreatedAt.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO transcripts (source_file, engine, language, contexts, raw_text, corrected_text, fallback)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		rec.SourceFile, rec.Engine, rec.Language, rec.Contexts, rec.RawText, rec.CorrectedText, rec.Fallback,
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("archive: save %q: %w", rec.SourceFile, err)
	}
	return nil
}

// Recent returns the most recently archived records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_file, engine, language, contexts, raw_text, corrected_text, fallback, created_at
		FROM transcripts
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SourceFile, &rec.Engine, &rec.Language,
			&rec.Contexts, &rec.RawText, &rec.CorrectedText, &rec.Fallback, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("archive: scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterate records: %w", err)
	}
	return out, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
