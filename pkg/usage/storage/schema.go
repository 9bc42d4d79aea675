package storage

// SchemaVersion is the current listings schema version.
const SchemaVersion = 1

// Schema creates the listings tables. Timestamps are unix nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS listings (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    request_id TEXT,

    address TEXT NOT NULL,
    price TEXT NOT NULL,
    property_type TEXT,
    tone TEXT,

    content TEXT NOT NULL,
    content_hash TEXT,
    fallback BOOLEAN NOT NULL DEFAULT 0,

    plan TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_account_created ON listings(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads the newest recorded schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
