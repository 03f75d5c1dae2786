package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

func seedClient(t *testing.T, store *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateClient(context.Background(), persistence.Client{
		ID:        id,
		Name:      "Test Client",
		Type:      "individual",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
}

func seedRoom(t *testing.T, store *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateRoom(context.Background(), persistence.Room{
		ID:         id,
		Name:       "Studio A",
		Capacity:   8,
		HourlyRate: 5000,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
}

func TestStore_ClientRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	client := persistence.Client{
		ID:        "client1",
		Name:      "Acme Ltd",
		Type:      "company",
		Email:     "booking@acme.example",
		Phone:     "555-0100",
		Notes:     "prefers evenings",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	retrieved, err := store.GetClient(ctx, "client1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if retrieved.Name != "Acme Ltd" {
		t.Errorf("Expected name 'Acme Ltd', got '%s'", retrieved.Name)
	}
	if !retrieved.CreatedAt.Equal(now) {
		t.Errorf("Expected created_at %v, got %v", now, retrieved.CreatedAt)
	}
}

func TestStore_GetClient_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetClient(context.Background(), "missing")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateClient_NotFound(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC()

	err := store.UpdateClient(context.Background(), persistence.Client{
		ID:        "missing",
		Name:      "Nobody",
		Type:      "individual",
		UpdatedAt: now,
	})
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_ClassSessions_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sessions := []string{
		"2024-01-01T18:00:00Z",
		"2024-01-03T18:00:00Z",
		"2024-01-08T18:00:00Z",
	}
	class := persistence.Class{
		ID:            "class1",
		Name:          "Evening Yoga",
		Instructor:    "Kim",
		SessionLength: 60,
		Fee:           1500,
		Sessions:      sessions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateClass(ctx, class); err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}

	retrieved, err := store.GetClass(ctx, "class1")
	if err != nil {
		t.Fatalf("GetClass failed: %v", err)
	}
	if len(retrieved.Sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(retrieved.Sessions))
	}
	for i, want := range sessions {
		if retrieved.Sessions[i] != want {
			t.Errorf("Session %d: expected %s, got %s", i, want, retrieved.Sessions[i])
		}
	}

	// Updating replaces the session set.
	class.Sessions = []string{"2024-02-05T18:00:00Z"}
	class.UpdatedAt = now.Add(time.Hour)
	if err := store.UpdateClass(ctx, class); err != nil {
		t.Fatalf("UpdateClass failed: %v", err)
	}
	retrieved, err = store.GetClass(ctx, "class1")
	if err != nil {
		t.Fatalf("GetClass after update failed: %v", err)
	}
	if len(retrieved.Sessions) != 1 || retrieved.Sessions[0] != "2024-02-05T18:00:00Z" {
		t.Errorf("Expected replaced session set, got %v", retrieved.Sessions)
	}
}

func TestStore_CountOverlapping(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedClient(t, store, "client1")
	seedRoom(t, store, "room1")

	roomID := "room1"
	booking := persistence.Booking{
		ID:            "booking1",
		ClientID:      "client1",
		ServiceType:   "room",
		RoomID:        &roomID,
		Start:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		Price:         10000,
		PaymentStatus: "unpaid",
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	// Intersecting window counts.
	count, err := store.CountOverlapping(ctx, "room", "room1",
		time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CountOverlapping failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 overlap, got %d", count)
	}

	// Touching windows do not overlap.
	count, err = store.CountOverlapping(ctx, "room", "room1",
		time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CountOverlapping failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 overlaps for touching window, got %d", count)
	}

	// Cancelled bookings do not count.
	booking.Status = "cancelled"
	booking.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdateBooking(ctx, booking); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	count, err = store.CountOverlapping(ctx, "room", "room1",
		time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CountOverlapping failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 overlaps after cancel, got %d", count)
	}
}

func TestStore_Booking_ForeignKeyEnforced(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC()

	err := store.CreateBooking(context.Background(), persistence.Booking{
		ID:          "booking1",
		ClientID:    "missing",
		ServiceType: "room",
		Start:       now,
		End:         now.Add(time.Hour),
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Errorf("Expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestStore_Enrollment_DuplicateRejected(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedClient(t, store, "client1")

	class := persistence.Class{
		ID:            "class1",
		Name:          "Evening Yoga",
		SessionLength: 60,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateClass(ctx, class); err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}

	enrollment := persistence.Enrollment{
		ID:        "enr1",
		ClientID:  "client1",
		ClassID:   "class1",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateEnrollment(ctx, enrollment); err != nil {
		t.Fatalf("CreateEnrollment failed: %v", err)
	}

	enrollment.ID = "enr2"
	err := store.CreateEnrollment(ctx, enrollment)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for repeated enrollment, got %v", err)
	}
}

func TestStore_Session_RevokeAndExpire(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	account := persistence.Account{
		ID:           "acct1",
		Username:     "admin",
		PasswordHash: "hash",
		Role:         "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	session := persistence.Session{
		ID:        "sess1",
		AccountID: "acct1",
		Token:     "token1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := store.RevokeSession(ctx, "token1", now); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	retrieved, err := store.GetSession(ctx, "token1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.RevokedAt == nil {
		t.Error("Expected RevokedAt to be set after revoke")
	}

	// Revoking twice reports not found.
	if err := store.RevokeSession(ctx, "token1", now); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second revoke, got %v", err)
	}

	if err := store.DeleteExpiredSessions(ctx, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "token1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected session deleted, got %v", err)
	}
}

func TestStore_ReplaceCalendar(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []persistence.CalendarEvent{
		{
			ID:        "ev1",
			Kind:      "booking",
			SourceID:  "booking1",
			Title:     "Studio A rental",
			Start:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
			UpdatedAt: now,
		},
	}
	if err := store.ReplaceCalendar(ctx, first); err != nil {
		t.Fatalf("ReplaceCalendar failed: %v", err)
	}

	second := []persistence.CalendarEvent{
		{
			ID:        "ev2",
			Kind:      "class_session",
			SourceID:  "class1",
			Title:     "Evening Yoga",
			Start:     time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 3, 2, 19, 0, 0, 0, time.UTC),
			UpdatedAt: now,
		},
	}
	if err := store.ReplaceCalendar(ctx, second); err != nil {
		t.Fatalf("ReplaceCalendar (second) failed: %v", err)
	}

	events, err := store.ListCalendarEvents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListCalendarEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event after replace, got %d", len(events))
	}
	if events[0].ID != "ev2" {
		t.Errorf("Expected event ev2, got %s", events[0].ID)
	}

	// Window that excludes the event returns nothing.
	from := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	events, err = store.ListCalendarEvents(ctx, &from, nil)
	if err != nil {
		t.Fatalf("ListCalendarEvents with window failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events past window, got %d", len(events))
	}
}
