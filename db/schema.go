// ABOUTME: Database schema for the dev server's generic record store
// ABOUTME: One JSON document table for every resource plus a credentials table
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	resource TEXT NOT NULL,
	id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (resource, id)
);

CREATE INDEX IF NOT EXISTS idx_records_resource_created ON records(resource, created_at);

CREATE TABLE IF NOT EXISTS credentials (
	user_id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
