// Package repository provides data access for the admin user store.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/remote-screen-share/backend/internal/model"
)

// UserRepository provides data access for admin users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetPassword returns the stored password for a username.
func (r *UserRepository) GetPassword(ctx context.Context, username string) (string, error) {
	query := `SELECT password FROM users WHERE username = ?`

	var password string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&password)
	if err == sql.ErrNoRows {
		return "", model.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return password, nil
}

// Upsert creates or replaces a user.
func (r *UserRepository) Upsert(ctx context.Context, username, password string) error {
	query := `
		INSERT INTO users (username, password) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET password = excluded.password
	`

	if _, err := r.db.ExecContext(ctx, query, username, password); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// EnsureSeed inserts the configured admin user only if it does not exist
// yet, so a password changed through the store survives restarts.
func (r *UserRepository) EnsureSeed(ctx context.Context, username, password string) error {
	query := `INSERT OR IGNORE INTO users (username, password) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, username, password); err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	return nil
}

// Exists checks if a user exists.
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT 1 FROM users WHERE username = ? LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}
