package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateRoom inserts a new room record.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, capacity, location, hourly_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		room.HourlyRate,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

// UpdateRoom rewrites a room record.
func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, hourly_rate = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Capacity,
		room.Location,
		room.HourlyRate,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, capacity, location, hourly_rate, created_at, updated_at
		FROM rooms WHERE id = ?`, id)

	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, capacity, location, hourly_rate, created_at, updated_at
		FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room by ID.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdAt, updatedAt string
	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&room.HourlyRate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Room{}, err
	}

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
