// ABOUTME: Repository of generic JSON records keyed by resource and id
// ABOUTME: Backs every catalog entity served by the dev server
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/bolha/models"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Timestamp keys added to every stored record.
const (
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// RecordsRepository provides CRUD over the records table.
type RecordsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordsRepository creates a new records repository.
func NewRecordsRepository(db *sql.DB) *RecordsRepository {
	return &RecordsRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores body under a fresh id (or body's id when present) and
// returns the stored record.
func (r *RecordsRepository) Create(ctx context.Context, resource string, body models.Record) (models.Record, error) {
	if resource == "" || body == nil {
		return nil, ErrInvalidRecord
	}

	id := body.ID()
	if id == "" {
		id = uuid.New().String()
	}
	now := r.now()

	doc := strip(body)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	query := `
		INSERT INTO records (resource, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, resource, id, string(raw), now, now); err != nil {
		return nil, fmt.Errorf("failed to insert %s record: %w", resource, err)
	}

	return decorate(doc, id, now, now), nil
}

// Get retrieves one record.
func (r *RecordsRepository) Get(ctx context.Context, resource, id string) (models.Record, error) {
	query := `
		SELECT id, body, created_at, updated_at
		FROM records
		WHERE resource = ? AND id = ?
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, resource, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

// Update replaces the body of an existing record.
func (r *RecordsRepository) Update(ctx context.Context, resource string, body models.Record) (models.Record, error) {
	id := body.ID()
	if resource == "" || id == "" {
		return nil, ErrInvalidRecord
	}

	doc := strip(body)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	now := r.now()

	query := `
		UPDATE records
		SET body = ?, updated_at = ?
		WHERE resource = ? AND id = ?
	`
	result, err := r.db.ExecContext(ctx, query, string(raw), now, resource, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s record: %w", resource, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrRecordNotFound
	}

	return r.Get(ctx, resource, id)
}

// Delete removes one record.
func (r *RecordsRepository) Delete(ctx context.Context, resource, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE resource = ? AND id = ?`, resource, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", resource, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// valueMatch matches a top-level scalar value of the JSON body, never a
// key or the JSON punctuation around it.
const valueMatch = `EXISTS (
	SELECT 1 FROM json_each(records.body)
	WHERE json_each.type IN ('text', 'integer', 'real')
	AND json_each.value LIKE ? ESCAPE '\'
)`

// Find returns the records of a resource with a top-level value containing
// search, case-insensitively, oldest first.
func (r *RecordsRepository) Find(ctx context.Context, resource, search string) ([]models.Record, error) {
	query := `
		SELECT id, body, created_at, updated_at
		FROM records
		WHERE resource = ? AND ` + valueMatch + `
		ORDER BY created_at, id
	`
	args := []any{resource, likePattern(search)}
	if strings.TrimSpace(search) == "" {
		query = `
		SELECT id, body, created_at, updated_at
		FROM records
		WHERE resource = ?
		ORDER BY created_at, id
	`
		args = args[:1]
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", resource, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many records of a resource match search.
func (r *RecordsRepository) Count(ctx context.Context, resource, search string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM records WHERE resource = ? AND ` + valueMatch
	args := []any{resource, likePattern(search)}
	if strings.TrimSpace(search) == "" {
		query = `SELECT COUNT(*) FROM records WHERE resource = ?`
		args = args[:1]
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", resource, err)
	}
	return n, nil
}

// FindBy returns the records whose top-level field equals value.
func (r *RecordsRepository) FindBy(ctx context.Context, resource, field string, value any) ([]models.Record, error) {
	all, err := r.Find(ctx, resource, "")
	if err != nil {
		return nil, err
	}
	want := models.Scalar(value)
	var out []models.Record
	for _, rec := range all {
		if models.Scalar(rec[field]) == want {
			out = append(out, rec)
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		id        string
		body      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.Scan(&id, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc := models.Record{}
	if body != "" && body != "null" {
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("corrupt record %s: %w", id, err)
		}
	}
	return decorate(doc, id, createdAt, updatedAt), nil
}

func strip(body models.Record) models.Record {
	doc := body.Clone()
	delete(doc, models.IDField)
	delete(doc, CreatedAtField)
	delete(doc, UpdatedAtField)
	return doc
}

func decorate(doc models.Record, id string, createdAt, updatedAt time.Time) models.Record {
	out := doc.Clone()
	out[models.IDField] = id
	out[CreatedAtField] = createdAt.UTC().Format(time.RFC3339)
	out[UpdatedAtField] = updatedAt.UTC().Format(time.RFC3339)
	return out
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}
