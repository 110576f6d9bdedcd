package postgres

import "context"

// quotes holds every collection side by side; collection is the document
// path the rows belong to.
const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	collection  TEXT NOT NULL,
	name        TEXT NOT NULL,
	line_items  JSONB NOT NULL DEFAULT '[]'::jsonb,
	total_cost  NUMERIC NOT NULL DEFAULT 0,
	owner_id    TEXT NOT NULL DEFAULT '',
	saved_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE quotes ALTER COLUMN total_cost TYPE NUMERIC;
CREATE INDEX IF NOT EXISTS quotes_collection_saved_at_idx ON quotes (collection, saved_at DESC);
`

// EnsureSchema creates the quotes table when it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}
