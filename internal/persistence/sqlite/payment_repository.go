package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/studio-manager/internal/persistence"
)

// CreatePayment inserts a new payment.
func (s *Store) CreatePayment(ctx context.Context, payment persistence.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, client_id, booking_id, type, amount, method, description, paid_on, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.ClientID,
		nullableString(payment.BookingID),
		payment.Type,
		payment.Amount,
		payment.Method,
		payment.Description,
		formatTime(payment.PaidOn),
		formatTime(payment.CreatedAt),
		formatTime(payment.UpdatedAt),
	)
	return mapError(err)
}

// UpdatePayment rewrites a payment.
func (s *Store) UpdatePayment(ctx context.Context, payment persistence.Payment) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET client_id = ?, booking_id = ?, type = ?, amount = ?, method = ?, description = ?, paid_on = ?, updated_at = ?
		WHERE id = ?`,
		payment.ClientID,
		nullableString(payment.BookingID),
		payment.Type,
		payment.Amount,
		payment.Method,
		payment.Description,
		formatTime(payment.PaidOn),
		formatTime(payment.UpdatedAt),
		payment.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(ctx context.Context, id string) (persistence.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, booking_id, type, amount, method, description, paid_on, created_at, updated_at
		FROM payments WHERE id = ?`, id)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Payment{}, persistence.ErrNotFound
		}
		return persistence.Payment{}, mapError(err)
	}
	return payment, nil
}

// ListPayments returns payments, optionally for one client, newest first.
func (s *Store) ListPayments(ctx context.Context, clientID string) ([]persistence.Payment, error) {
	query := `SELECT id, client_id, booking_id, type, amount, method, description, paid_on, created_at, updated_at FROM payments`
	args := make([]any, 0, 1)
	if clientID != "" {
		query += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY paid_on DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	payments := make([]persistence.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// DeletePayment removes a payment by ID.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

func scanPayment(row rowScanner) (persistence.Payment, error) {
	var payment persistence.Payment
	var bookingID sql.NullString
	var paidOn, createdAt, updatedAt string
	if err := row.Scan(
		&payment.ID,
		&payment.ClientID,
		&bookingID,
		&payment.Type,
		&payment.Amount,
		&payment.Method,
		&payment.Description,
		&paidOn,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Payment{}, err
	}
	payment.BookingID = scanNullableString(bookingID)

	var err error
	if payment.PaidOn, err = parseTime(paidOn); err != nil {
		return persistence.Payment{}, err
	}
	if payment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Payment{}, err
	}
	if payment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Payment{}, err
	}
	return payment, nil
}
