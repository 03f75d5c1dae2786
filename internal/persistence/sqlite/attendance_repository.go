package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateAttendance inserts a new attendance record.
func (s *Store) CreateAttendance(ctx context.Context, attendance persistence.Attendance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (id, client_id, class_id, session, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		attendance.ID,
		attendance.ClientID,
		attendance.ClassID,
		attendance.Session,
		attendance.Status,
		attendance.Notes,
		formatTime(attendance.CreatedAt),
		formatTime(attendance.UpdatedAt),
	)
	return mapError(err)
}

// UpdateAttendance rewrites an attendance record.
func (s *Store) UpdateAttendance(ctx context.Context, attendance persistence.Attendance) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE attendance
		SET client_id = ?, class_id = ?, session = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		attendance.ClientID,
		attendance.ClassID,
		attendance.Session,
		attendance.Status,
		attendance.Notes,
		formatTime(attendance.UpdatedAt),
		attendance.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetAttendance retrieves an attendance record by ID.
func (s *Store) GetAttendance(ctx context.Context, id string) (persistence.Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, class_id, session, status, notes, created_at, updated_at
		FROM attendance WHERE id = ?`, id)

	attendance, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendance{}, persistence.ErrNotFound
		}
		return persistence.Attendance{}, mapError(err)
	}
	return attendance, nil
}

// ListAttendance returns attendance records optionally filtered by class or
// client, ordered by session.
func (s *Store) ListAttendance(ctx context.Context, classID, clientID string) ([]persistence.Attendance, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if classID != "" {
		conditions = append(conditions, "class_id = ?")
		args = append(args, classID)
	}
	if clientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, clientID)
	}

	query := `SELECT id, client_id, class_id, session, status, notes, created_at, updated_at FROM attendance`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY session, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	records := make([]persistence.Attendance, 0)
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteAttendance removes an attendance record by ID.
func (s *Store) DeleteAttendance(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanAttendance(row rowScanner) (persistence.Attendance, error) {
	var attendance persistence.Attendance
	var createdAt, updatedAt string
	if err := row.Scan(
		&attendance.ID,
		&attendance.ClientID,
		&attendance.ClassID,
		&attendance.Session,
		&attendance.Status,
		&attendance.Notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Attendance{}, err
	}

	var err error
	if attendance.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Attendance{}, err
	}
	if attendance.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Attendance{}, err
	}
	return attendance, nil
}
