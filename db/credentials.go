// ABOUTME: Password credentials for dev-server users, stored as bcrypt hashes
// ABOUTME: Keyed by the user record id and looked up by email at sign-in
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
)

// CredentialsRepository manages sign-in secrets.
type CredentialsRepository struct {
	db   *sql.DB
	cost int
}

// NewCredentialsRepository creates a repository hashing with cost.
// Zero cost means bcrypt.DefaultCost.
func NewCredentialsRepository(db *sql.DB, cost int) *CredentialsRepository {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialsRepository{db: db, cost: cost}
}

// Set stores the email and, when password is non-empty, a new hash.
// A user without a stored hash cannot sign in.
func (r *CredentialsRepository) Set(ctx context.Context, userID, email, password string) error {
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return fmt.Errorf("credentials need user id and email")
	}

	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM credentials WHERE email = ?`, email).Scan(&owner)
	switch {
	case err == nil && owner != userID:
		return ErrEmailTaken
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check email: %w", err)
	}

	now := time.Now().UTC()
	if password == "" {
		_, err = r.db.ExecContext(ctx, `UPDATE credentials SET email = ?, updated_at = ? WHERE user_id = ?`, email, now, userID)
		if err != nil {
			return fmt.Errorf("failed to update email: %w", err)
		}
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	query := `
		INSERT INTO credentials (user_id, email, password_hash, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET email = excluded.email, password_hash = excluded.password_hash, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, email, string(hash), now); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Verify returns the user id owning email when password matches.
func (r *CredentialsRepository) Verify(ctx context.Context, email, password string) (string, error) {
	var userID, hash string
	err := r.db.QueryRowContext(ctx, `SELECT user_id, password_hash FROM credentials WHERE email = ?`, strings.TrimSpace(email)).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}

// UserIDByEmail resolves an email to its user id.
func (r *CredentialsRepository) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM credentials WHERE email = ?`, strings.TrimSpace(email)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRecordNotFound
	}
	return userID, err
}

// Delete removes a user's credentials.
func (r *CredentialsRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
