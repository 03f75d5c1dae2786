package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateAccount inserts a new staff account.
func (s *Store) CreateAccount(ctx context.Context, account persistence.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.Role,
		formatTime(account.CreatedAt),
		formatTime(account.UpdatedAt),
	)
	return mapError(err)
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row)
}

// GetAccountByUsername retrieves an account by its unique username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (persistence.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at, updated_at
		FROM accounts WHERE username = ?`, username)
	return scanAccountRow(row)
}

// UpdateAccount rewrites an account.
func (s *Store) UpdateAccount(ctx context.Context, account persistence.Account) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET username = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		account.Username,
		account.PasswordHash,
		account.Role,
		formatTime(account.UpdatedAt),
		account.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanAccountRow(row rowScanner) (persistence.Account, error) {
	var account persistence.Account
	var createdAt, updatedAt string
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Account{}, persistence.ErrNotFound
		}
		return persistence.Account{}, mapError(err)
	}

	var err error
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Account{}, err
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Account{}, err
	}
	return account, nil
}
