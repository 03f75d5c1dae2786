// Package calendar materializes bookings and class sessions into a single
// queryable event stream, refreshed on an interval by a background job.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/schedule"
)

// Service rebuilds the calendar_events view from bookings and class sessions.
type Service struct {
	bookings    persistence.BookingRepository
	classes     persistence.ClassRepository
	calendar    persistence.CalendarRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	scheduler   *gocron.Scheduler
}

// NewService constructs a calendar service with the provided dependencies.
func NewService(bookings persistence.BookingRepository, classes persistence.ClassRepository, calendar persistence.CalendarRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Service {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		bookings:    bookings,
		classes:     classes,
		calendar:    calendar,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger.With("service", "CalendarService"),
	}
}

// Start schedules the periodic materializer. It is a no-op when already
// started.
func (s *Service) Start(interval time.Duration) {
	if s == nil || s.scheduler != nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s.scheduler = gocron.NewScheduler(time.UTC)
	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Sync(ctx); err != nil {
			s.logger.Error("calendar sync failed", "error", err)
		}
	})
	if err != nil {
		s.logger.Error("failed to schedule calendar sync", "error", err)
		s.scheduler = nil
		return
	}
	s.scheduler.StartAsync()
	s.logger.Info("calendar sync scheduled", "interval", interval.String())
}

// Stop halts the background job.
func (s *Service) Stop() {
	if s == nil || s.scheduler == nil {
		return
	}
	s.scheduler.Stop()
	s.scheduler = nil
}

// Sync rebuilds the materialized calendar from current bookings and class
// sessions. Cancelled bookings and returned equipment are excluded.
func (s *Service) Sync(ctx context.Context) error {
	if s == nil || s.calendar == nil {
		return fmt.Errorf("calendar service not configured")
	}

	events := make([]persistence.CalendarEvent, 0)
	now := s.now()

	if s.bookings != nil {
		bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{Status: "active"})
		if err != nil {
			return fmt.Errorf("calendar: list bookings: %w", err)
		}
		for _, booking := range bookings {
			if booking.ReturnedAt != nil {
				continue
			}
			title := "Room booking"
			if booking.ServiceType == "equipment" {
				title = "Equipment rental"
			}
			events = append(events, persistence.CalendarEvent{
				ID:        s.idGenerator(),
				Kind:      "booking",
				SourceID:  booking.ID,
				Title:     title,
				RoomID:    booking.RoomID,
				Start:     booking.Start,
				End:       booking.End,
				UpdatedAt: now,
			})
		}
	}

	if s.classes != nil {
		classes, err := s.classes.ListClasses(ctx)
		if err != nil {
			return fmt.Errorf("calendar: list classes: %w", err)
		}
		for _, class := range classes {
			length := class.SessionLength
			if length <= 0 {
				length = schedule.DefaultSessionLength
			}
			for _, session := range class.Sessions {
				start, err := schedule.ParseEntry(session)
				if err != nil {
					continue
				}
				events = append(events, persistence.CalendarEvent{
					ID:        s.idGenerator(),
					Kind:      "class_session",
					SourceID:  class.ID,
					Title:     class.Name,
					RoomID:    class.RoomID,
					Start:     start,
					End:       start.Add(time.Duration(length) * time.Minute),
					UpdatedAt: now,
				})
			}
		}
	}

	if err := s.calendar.ReplaceCalendar(ctx, events); err != nil {
		return fmt.Errorf("calendar: replace events: %w", err)
	}
	s.logger.InfoContext(ctx, "calendar synced", "event_count", len(events))
	return nil
}

// Events returns the materialized events, optionally limited to a window.
func (s *Service) Events(ctx context.Context, from, to *time.Time) ([]persistence.CalendarEvent, error) {
	if s == nil || s.calendar == nil {
		return nil, fmt.Errorf("calendar service not configured")
	}
	return s.calendar.ListCalendarEvents(ctx, from, to)
}
