package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite store
// for integration-style persistence tests.
type SQLiteHarness struct {
	Accounts    persistence.AccountRepository
	Sessions    persistence.SessionRepository
	Clients     persistence.ClientRepository
	Rooms       persistence.RoomRepository
	Equipment   persistence.EquipmentRepository
	Classes     persistence.ClassRepository
	Bookings    persistence.BookingRepository
	Enrollments persistence.EnrollmentRepository
	Attendance  persistence.AttendanceRepository
	Payments    persistence.PaymentRepository
	Calendar    persistence.CalendarRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file that is
// migrated automatically. A cleanup callback is registered with tb, so calling
// Close is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "studio.db")

	store, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &SQLiteHarness{
		Accounts:    store,
		Sessions:    store,
		Clients:     store,
		Rooms:       store,
		Equipment:   store,
		Classes:     store,
		Bookings:    store,
		Enrollments: store,
		Attendance:  store,
		Payments:    store,
		Calendar:    store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
