package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

const bookingColumns = `id, client_id, service_type, room_id, equipment_id, start_at, end_at,
	price, payment_status, status, returned_at, created_at, updated_at`

// CreateBooking inserts a new booking.
func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.ClientID,
		booking.ServiceType,
		nullableString(booking.RoomID),
		nullableString(booking.EquipmentID),
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Price,
		booking.PaymentStatus,
		booking.Status,
		formatNullableTime(booking.ReturnedAt),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapError(err)
}

// UpdateBooking rewrites a booking.
func (s *Store) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET client_id = ?, service_type = ?, room_id = ?, equipment_id = ?, start_at = ?, end_at = ?,
			price = ?, payment_status = ?, status = ?, returned_at = ?, updated_at = ?
		WHERE id = ?`,
		booking.ClientID,
		booking.ServiceType,
		nullableString(booking.RoomID),
		nullableString(booking.EquipmentID),
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Price,
		booking.PaymentStatus,
		booking.Status,
		formatNullableTime(booking.ReturnedAt),
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// GetBooking retrieves a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter ordered by start time.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.ServiceType != "" {
		conditions = append(conditions, "service_type = ?")
		args = append(args, filter.ServiceType)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.EquipmentID != "" {
		conditions = append(conditions, "equipment_id = ?")
		args = append(args, filter.EquipmentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_at > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_at < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// DeleteBooking removes a booking by ID.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// CountOverlapping reports active bookings of the given resource whose window
// intersects the half-open interval [start, end).
func (s *Store) CountOverlapping(ctx context.Context, serviceType, resourceID string, start, end time.Time) (int, error) {
	column := "room_id"
	if serviceType == "equipment" {
		column = "equipment_id"
	}

	var count int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE service_type = ?
		  AND `+column+` = ?
		  AND status = 'active'
		  AND returned_at IS NULL
		  AND start_at < ?
		  AND end_at > ?`,
		serviceType,
		resourceID,
		formatTime(end),
		formatTime(start),
	)
	if err := row.Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var roomID, equipmentID, returnedAt sql.NullString
	var startAt, endAt, createdAt, updatedAt string
	if err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.ServiceType,
		&roomID,
		&equipmentID,
		&startAt,
		&endAt,
		&booking.Price,
		&booking.PaymentStatus,
		&booking.Status,
		&returnedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, err
	}
	booking.RoomID = scanNullableString(roomID)
	booking.EquipmentID = scanNullableString(equipmentID)

	var err error
	if booking.Start, err = parseTime(startAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(endAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.ReturnedAt, err = scanNullableTime(returnedAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
