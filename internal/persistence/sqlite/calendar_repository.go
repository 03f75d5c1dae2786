package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// ReplaceCalendar swaps the materialized calendar view for the given events
// in one transaction.
func (s *Store) ReplaceCalendar(ctx context.Context, events []persistence.CalendarEvent) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_events`); err != nil {
			return mapError(err)
		}
		for _, event := range events {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO calendar_events (id, kind, source_id, title, room_id, start_at, end_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				event.ID,
				event.Kind,
				event.SourceID,
				event.Title,
				nullableString(event.RoomID),
				formatTime(event.Start),
				formatTime(event.End),
				formatTime(event.UpdatedAt),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// ListCalendarEvents returns calendar events, optionally limited to a window,
// ordered by start time.
func (s *Store) ListCalendarEvents(ctx context.Context, from, to *time.Time) ([]persistence.CalendarEvent, error) {
	query := `SELECT id, kind, source_id, title, room_id, start_at, end_at, updated_at FROM calendar_events`
	args := make([]any, 0, 2)
	clauses := make([]string, 0, 2)
	if from != nil {
		clauses = append(clauses, "end_at > ?")
		args = append(args, formatTime(*from))
	}
	if to != nil {
		clauses = append(clauses, "start_at < ?")
		args = append(args, formatTime(*to))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY start_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	events := make([]persistence.CalendarEvent, 0)
	for rows.Next() {
		var event persistence.CalendarEvent
		var roomID sql.NullString
		var start, end, updatedAt string
		if err := rows.Scan(
			&event.ID,
			&event.Kind,
			&event.SourceID,
			&event.Title,
			&roomID,
			&start,
			&end,
			&updatedAt,
		); err != nil {
			return nil, err
		}
		event.RoomID = scanNullableString(roomID)
		if event.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if event.End, err = parseTime(end); err != nil {
			return nil, err
		}
		if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
