package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateEnrollment inserts a new enrollment.
func (s *Store) CreateEnrollment(ctx context.Context, enrollment persistence.Enrollment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, client_id, class_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		enrollment.ID,
		enrollment.ClientID,
		enrollment.ClassID,
		enrollment.Status,
		formatTime(enrollment.CreatedAt),
		formatTime(enrollment.UpdatedAt),
	)
	return mapError(err)
}

// UpdateEnrollment rewrites an enrollment.
func (s *Store) UpdateEnrollment(ctx context.Context, enrollment persistence.Enrollment) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE enrollments
		SET client_id = ?, class_id = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		enrollment.ClientID,
		enrollment.ClassID,
		enrollment.Status,
		formatTime(enrollment.UpdatedAt),
		enrollment.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetEnrollment retrieves an enrollment by ID.
func (s *Store) GetEnrollment(ctx context.Context, id string) (persistence.Enrollment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, class_id, status, created_at, updated_at
		FROM enrollments WHERE id = ?`, id)

	enrollment, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Enrollment{}, persistence.ErrNotFound
		}
		return persistence.Enrollment{}, mapError(err)
	}
	return enrollment, nil
}

// ListEnrollments returns enrollments optionally filtered by class or client.
func (s *Store) ListEnrollments(ctx context.Context, classID, clientID string) ([]persistence.Enrollment, error) {
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

	query := `SELECT id, client_id, class_id, status, created_at, updated_at FROM enrollments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	enrollments := make([]persistence.Enrollment, 0)
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, rows.Err()
}

// DeleteEnrollment removes an enrollment by ID.
func (s *Store) DeleteEnrollment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanEnrollment(row rowScanner) (persistence.Enrollment, error) {
	var enrollment persistence.Enrollment
	var createdAt, updatedAt string
	if err := row.Scan(
		&enrollment.ID,
		&enrollment.ClientID,
		&enrollment.ClassID,
		&enrollment.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Enrollment{}, err
	}

	var err error
	if enrollment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Enrollment{}, err
	}
	if enrollment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Enrollment{}, err
	}
	return enrollment, nil
}
