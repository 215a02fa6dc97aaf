// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"records", "credentials"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	var indexName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_records_resource_created'").Scan(&indexName)
	if err != nil {
		t.Errorf("Index idx_records_resource_created not found: %v", err)
	}

	// Reapplying is a no-op.
	if err := InitSchema(db); err != nil {
		t.Errorf("Second InitSchema failed: %v", err)
	}
}

func TestCredentialsEmailIsCaseInsensitive(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	insert := `INSERT INTO credentials (user_id, email, password_hash, updated_at) VALUES (?, ?, 'x', CURRENT_TIMESTAMP)`
	if _, err := db.Exec(insert, "u1", "Admin@Example.com"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := db.Exec(insert, "u2", "admin@example.com"); err == nil {
		t.Error("Expected unique violation for an email differing only in case")
	}
}
