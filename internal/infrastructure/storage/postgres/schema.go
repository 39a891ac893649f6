package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at start-up. Counters are plain rows keyed
// by scope; the next value is never derived from previously issued numbers.
const schema = `
CREATE TABLE IF NOT EXISTS sys_sequences (
	key         TEXT PRIMARY KEY,
	current_val BIGINT NOT NULL CHECK (current_val >= 0)
);

CREATE TABLE IF NOT EXISTS sys_number_assignments (
	owner_id    TEXT        NOT NULL,
	family      TEXT        NOT NULL,
	scope       TEXT        NOT NULL,
	value       BIGINT      NOT NULL,
	number      TEXT        NOT NULL,
	assigned_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_id, family),
	UNIQUE (number)
);

CREATE TABLE IF NOT EXISTS sys_blobs (
	key              TEXT PRIMARY KEY,
	content_type     TEXT        NOT NULL DEFAULT '',
	data             BYTEA       NOT NULL,
	compression_algo TEXT        NOT NULL DEFAULT 'none',
	size             BIGINT      NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS doc_annotations (
	id          UUID PRIMARY KEY,
	document_id TEXT        NOT NULL,
	page_number INTEGER     NOT NULL CHECK (page_number >= 1),
	y_position  DOUBLE PRECISION NOT NULL,
	text        TEXT        NOT NULL,
	author_id   TEXT        NOT NULL,
	author_name TEXT        NOT NULL,
	author_role TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	edited_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS doc_annotations_document_idx
	ON doc_annotations (document_id, page_number, y_position);
`

// EnsureSchema creates the engine tables when they do not exist.
func EnsureSchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
