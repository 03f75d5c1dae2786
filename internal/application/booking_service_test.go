package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

type bookingRepoStub struct {
	bookings     map[string]persistence.Booking
	overlapCount int
	overlapCalls int
	overlapErr   error
}

func newBookingRepoStub() *bookingRepoStub {
	return &bookingRepoStub{bookings: make(map[string]persistence.Booking)}
}

func (s *bookingRepoStub) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingRepoStub) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if _, ok := s.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingRepoStub) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (s *bookingRepoStub) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	out := make([]persistence.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		out = append(out, booking)
	}
	return out, nil
}

func (s *bookingRepoStub) DeleteBooking(ctx context.Context, id string) error {
	if _, ok := s.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *bookingRepoStub) CountOverlapping(ctx context.Context, serviceType, resourceID string, start, end time.Time) (int, error) {
	s.overlapCalls++
	if s.overlapErr != nil {
		return 0, s.overlapErr
	}
	return s.overlapCount, nil
}

func fixedIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return prefix + string(rune('0'+counter))
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBookingService_CreateBooking(t *testing.T) {
	repo := newBookingRepoStub()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	service := NewBookingService(repo, fixedIDs("bk"), fixedClock(now), nil)

	roomID := "room1"
	booking, err := service.CreateBooking(context.Background(), CreateBookingParams{
		Principal: Principal{AccountID: "staff1"},
		Input: BookingInput{
			ClientID:    "client1",
			ServiceType: "room",
			RoomID:      &roomID,
			Start:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
			Price:       10000,
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if booking.Status != "active" {
		t.Errorf("expected active status, got %q", booking.Status)
	}
	if booking.PaymentStatus != "unpaid" {
		t.Errorf("expected unpaid payment status, got %q", booking.PaymentStatus)
	}
	if _, ok := repo.bookings[booking.ID]; !ok {
		t.Error("expected booking to be persisted")
	}
}

func TestBookingService_CreateBooking_Conflict(t *testing.T) {
	repo := newBookingRepoStub()
	repo.overlapCount = 1
	service := NewBookingService(repo, fixedIDs("bk"), nil, nil)

	roomID := "room1"
	_, err := service.CreateBooking(context.Background(), CreateBookingParams{
		Input: BookingInput{
			ClientID:    "client1",
			ServiceType: "room",
			RoomID:      &roomID,
			Start:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(repo.bookings) != 0 {
		t.Error("expected no booking persisted on conflict")
	}
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	service := NewBookingService(newBookingRepoStub(), nil, nil, nil)

	_, err := service.CreateBooking(context.Background(), CreateBookingParams{
		Input: BookingInput{
			ServiceType: "room",
			Start:       time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"client_id", "room_id", "end"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestBookingService_CheckAvailability_Caching(t *testing.T) {
	repo := newBookingRepoStub()
	service := NewBookingService(repo, fixedIDs("bk"), nil, nil)

	query := AvailabilityQuery{
		ServiceType: "room",
		ResourceID:  "room1",
		Start:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 3; i++ {
		available, err := service.CheckAvailability(context.Background(), query)
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if !available {
			t.Fatal("expected window to be available")
		}
	}
	if repo.overlapCalls != 1 {
		t.Errorf("expected 1 repository probe for repeated query, got %d", repo.overlapCalls)
	}

	// A booking write purges the cache.
	roomID := "room2"
	_, err := service.CreateBooking(context.Background(), CreateBookingParams{
		Input: BookingInput{
			ClientID:    "client1",
			ServiceType: "room",
			RoomID:      &roomID,
			Start:       time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	before := repo.overlapCalls
	if _, err := service.CheckAvailability(context.Background(), query); err != nil {
		t.Fatalf("CheckAvailability failed: %v", err)
	}
	if repo.overlapCalls != before+1 {
		t.Errorf("expected probe after cache purge, calls %d -> %d", before, repo.overlapCalls)
	}
}

func TestBookingService_RoomOracle_FailSafe(t *testing.T) {
	repo := newBookingRepoStub()
	repo.overlapErr = errors.New("db locked")
	service := NewBookingService(repo, nil, nil, nil)

	oracle := service.RoomOracle()
	available, err := oracle.CheckWindow(context.Background(), "room1",
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error from failing repository")
	}
	if available {
		t.Error("expected unavailable on repository error")
	}
}

func TestBookingService_ReturnEquipment(t *testing.T) {
	repo := newBookingRepoStub()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	service := NewBookingService(repo, fixedIDs("bk"), fixedClock(now), nil)

	equipmentID := "eq1"
	repo.bookings["bk1"] = persistence.Booking{
		ID:          "bk1",
		ClientID:    "client1",
		ServiceType: "equipment",
		EquipmentID: &equipmentID,
		Start:       now.Add(-48 * time.Hour),
		End:         now.Add(-24 * time.Hour),
		Status:      "active",
	}

	booking, err := service.ReturnEquipment(context.Background(), Principal{AccountID: "staff1"}, "bk1")
	if err != nil {
		t.Fatalf("ReturnEquipment failed: %v", err)
	}
	if booking.ReturnedAt == nil || !booking.ReturnedAt.Equal(now) {
		t.Errorf("expected ReturnedAt %v, got %v", now, booking.ReturnedAt)
	}

	// Second return is rejected.
	if _, err := service.ReturnEquipment(context.Background(), Principal{}, "bk1"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on repeated return, got %v", err)
	}
}

func TestBookingService_ReturnEquipment_RoomBooking(t *testing.T) {
	repo := newBookingRepoStub()
	service := NewBookingService(repo, nil, nil, nil)

	roomID := "room1"
	repo.bookings["bk1"] = persistence.Booking{
		ID:          "bk1",
		ServiceType: "room",
		RoomID:      &roomID,
		Status:      "active",
	}

	_, err := service.ReturnEquipment(context.Background(), Principal{}, "bk1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for room booking return, got %v", err)
	}
}

func TestBookingService_CancelBooking(t *testing.T) {
	repo := newBookingRepoStub()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	service := NewBookingService(repo, nil, fixedClock(now), nil)

	roomID := "room1"
	repo.bookings["bk1"] = persistence.Booking{
		ID:          "bk1",
		ServiceType: "room",
		RoomID:      &roomID,
		Status:      "active",
	}

	booking, err := service.CancelBooking(context.Background(), Principal{AccountID: "staff1"}, "bk1")
	if err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}
	if booking.Status != "cancelled" {
		t.Errorf("expected cancelled status, got %q", booking.Status)
	}
}

func TestBookingService_UpdateBooking_IgnoresSelfOverlap(t *testing.T) {
	repo := newBookingRepoStub()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	service := NewBookingService(repo, nil, fixedClock(now), nil)

	roomID := "room1"
	repo.bookings["bk1"] = persistence.Booking{
		ID:          "bk1",
		ClientID:    "client1",
		ServiceType: "room",
		RoomID:      &roomID,
		Start:       time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC),
		Status:      "active",
	}

	// Extending the same booking must not conflict with itself.
	booking, err := service.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID: "bk1",
		Input: BookingInput{
			ClientID:    "client1",
			ServiceType: "room",
			RoomID:      &roomID,
			Start:       time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	if !booking.End.Equal(time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("expected extended end, got %v", booking.End)
	}

	// A different active booking in the window does conflict.
	roomID2 := "room1"
	repo.bookings["bk2"] = persistence.Booking{
		ID:          "bk2",
		ClientID:    "client2",
		ServiceType: "room",
		RoomID:      &roomID2,
		Start:       time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 6, 16, 0, 0, 0, time.UTC),
		Status:      "active",
	}
	_, err = service.UpdateBooking(context.Background(), UpdateBookingParams{
		BookingID: "bk1",
		Input: BookingInput{
			ClientID:    "client1",
			ServiceType: "room",
			RoomID:      &roomID,
			Start:       time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
			End:         time.Date(2024, 3, 6, 16, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}
