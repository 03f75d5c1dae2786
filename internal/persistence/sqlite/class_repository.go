package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateClass inserts a class together with its session set.
func (s *Store) CreateClass(ctx context.Context, class persistence.Class) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO classes (id, name, instructor, room_id, session_length, fee, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			class.ID,
			class.Name,
			class.Instructor,
			nullableString(class.RoomID),
			class.SessionLength,
			class.Fee,
			formatTime(class.CreatedAt),
			formatTime(class.UpdatedAt),
		); err != nil {
			return mapError(err)
		}
		return insertClassSessions(ctx, tx, class.ID, class.Sessions)
	})
}

// UpdateClass rewrites a class and replaces its session set wholesale.
func (s *Store) UpdateClass(ctx context.Context, class persistence.Class) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE classes
			SET name = ?, instructor = ?, room_id = ?, session_length = ?, fee = ?, updated_at = ?
			WHERE id = ?`,
			class.Name,
			class.Instructor,
			nullableString(class.RoomID),
			class.SessionLength,
			class.Fee,
			formatTime(class.UpdatedAt),
			class.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := rowsAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_sessions WHERE class_id = ?`, class.ID); err != nil {
			return mapError(err)
		}
		return insertClassSessions(ctx, tx, class.ID, class.Sessions)
	})
}

// GetClass retrieves a class with its ordered session set.
func (s *Store) GetClass(ctx context.Context, id string) (persistence.Class, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, instructor, room_id, session_length, fee, created_at, updated_at
		FROM classes WHERE id = ?`, id)

	class, err := scanClass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Class{}, persistence.ErrNotFound
		}
		return persistence.Class{}, mapError(err)
	}

	sessions, err := s.classSessions(ctx, id)
	if err != nil {
		return persistence.Class{}, err
	}
	class.Sessions = sessions
	return class, nil
}

// ListClasses returns all classes with their session sets, ordered by name.
func (s *Store) ListClasses(ctx context.Context) ([]persistence.Class, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, instructor, room_id, session_length, fee, created_at, updated_at
		FROM classes ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	classes := make([]persistence.Class, 0)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range classes {
		sessions, err := s.classSessions(ctx, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].Sessions = sessions
	}
	return classes, nil
}

// DeleteClass removes a class; sessions cascade.
func (s *Store) DeleteClass(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func (s *Store) classSessions(ctx context.Context, classID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT starts_at FROM class_sessions WHERE class_id = ? ORDER BY starts_at`, classID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	sessions := make([]string, 0)
	for rows.Next() {
		var startsAt string
		if err := rows.Scan(&startsAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, startsAt)
	}
	return sessions, rows.Err()
}

func insertClassSessions(ctx context.Context, tx *sql.Tx, classID string, sessions []string) error {
	for _, startsAt := range sessions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO class_sessions (class_id, starts_at) VALUES (?, ?)`, classID, startsAt); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanClass(row rowScanner) (persistence.Class, error) {
	var class persistence.Class
	var roomID sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(
		&class.ID,
		&class.Name,
		&class.Instructor,
		&roomID,
		&class.SessionLength,
		&class.Fee,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Class{}, err
	}
	class.RoomID = scanNullableString(roomID)

	var err error
	if class.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Class{}, err
	}
	if class.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Class{}, err
	}
	return class, nil
}
