package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateClient inserts a new client record.
func (s *Store) CreateClient(ctx context.Context, client persistence.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, type, email, phone, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.Name,
		client.Type,
		client.Email,
		client.Phone,
		client.Notes,
		formatTime(client.CreatedAt),
		formatTime(client.UpdatedAt),
	)
	return mapError(err)
}

// UpdateClient rewrites a client record.
func (s *Store) UpdateClient(ctx context.Context, client persistence.Client) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, type = ?, email = ?, phone = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		client.Name,
		client.Type,
		client.Email,
		client.Phone,
		client.Notes,
		formatTime(client.UpdatedAt),
		client.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, email, phone, notes, created_at, updated_at
		FROM clients WHERE id = ?`, id)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Client{}, persistence.ErrNotFound
		}
		return persistence.Client{}, mapError(err)
	}
	return client, nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]persistence.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, email, phone, notes, created_at, updated_at
		FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	clients := make([]persistence.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client by ID.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (persistence.Client, error) {
	var client persistence.Client
	var createdAt, updatedAt string
	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Type,
		&client.Email,
		&client.Phone,
		&client.Notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Client{}, err
	}

	var err error
	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Client{}, err
	}
	if client.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Client{}, err
	}
	return client, nil
}
