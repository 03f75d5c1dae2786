package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/testfixtures"
)

func TestRoomRepositoryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	room := testfixtures.NewRoomFixture(testfixtures.WithRoomName("Rehearsal A"), testfixtures.WithRoomCapacity(8)).Persistence()
	if err := harness.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	fetched, err := harness.Rooms.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("failed to fetch room: %v", err)
	}
	if fetched.Name != "Rehearsal A" || fetched.Capacity != 8 {
		t.Fatalf("unexpected room: %+v", fetched)
	}

	fetched.HourlyRate = 6500
	if err := harness.Rooms.UpdateRoom(ctx, fetched); err != nil {
		t.Fatalf("failed to update room: %v", err)
	}
	updated, err := harness.Rooms.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("failed to refetch room: %v", err)
	}
	if updated.HourlyRate != 6500 {
		t.Fatalf("expected updated rate, got %d", updated.HourlyRate)
	}

	if err := harness.Rooms.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("failed to delete room: %v", err)
	}
	if _, err := harness.Rooms.GetRoom(ctx, room.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEquipmentRepositoryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	item := testfixtures.NewEquipmentFixture(testfixtures.WithEquipmentQuantity(3)).Persistence()
	if err := harness.Equipment.CreateEquipment(ctx, item); err != nil {
		t.Fatalf("failed to create equipment: %v", err)
	}

	listed, err := harness.Equipment.ListEquipment(ctx)
	if err != nil {
		t.Fatalf("failed to list equipment: %v", err)
	}
	if len(listed) != 1 || listed[0].Quantity != 3 {
		t.Fatalf("unexpected equipment list: %+v", listed)
	}

	if err := harness.Equipment.DeleteEquipment(ctx, item.ID); err != nil {
		t.Fatalf("failed to delete equipment: %v", err)
	}
	if err := harness.Equipment.DeleteEquipment(ctx, item.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestBookingRepositoryFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	client := testfixtures.NewClientFixture().Persistence()
	other := testfixtures.NewClientFixture().Persistence()
	room := testfixtures.NewRoomFixture().Persistence()
	item := testfixtures.NewEquipmentFixture().Persistence()
	for _, err := range []error{
		harness.Clients.CreateClient(ctx, client),
		harness.Clients.CreateClient(ctx, other),
		harness.Rooms.CreateRoom(ctx, room),
		harness.Equipment.CreateEquipment(ctx, item),
	} {
		if err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	base := testfixtures.ReferenceTime()
	roomBooking := testfixtures.NewBookingFixture(
		testfixtures.WithBookingClient(client.ID),
		testfixtures.WithBookingRoom(room.ID),
		testfixtures.WithBookingWindow(base, base.Add(time.Hour)),
	).Persistence()
	rental := testfixtures.NewBookingFixture(
		testfixtures.WithBookingClient(other.ID),
		testfixtures.WithBookingEquipment(item.ID),
		testfixtures.WithBookingWindow(base.Add(2*time.Hour), base.Add(26*time.Hour)),
	).Persistence()
	cancelled := testfixtures.NewBookingFixture(
		testfixtures.WithBookingClient(client.ID),
		testfixtures.WithBookingRoom(room.ID),
		testfixtures.WithBookingWindow(base.Add(3*time.Hour), base.Add(4*time.Hour)),
		testfixtures.WithBookingStatus("cancelled"),
	).Persistence()
	for _, booking := range []persistence.Booking{roomBooking, rental, cancelled} {
		if err := harness.Bookings.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("failed to create booking %s: %v", booking.ID, err)
		}
	}

	byClient, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{ClientID: client.ID})
	if err != nil {
		t.Fatalf("failed to list by client: %v", err)
	}
	if len(byClient) != 2 {
		t.Fatalf("expected 2 bookings for client, got %d", len(byClient))
	}

	active, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{ClientID: client.ID, Status: "active"})
	if err != nil {
		t.Fatalf("failed to list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != roomBooking.ID {
		t.Fatalf("unexpected active bookings: %+v", active)
	}

	rentals, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{ServiceType: "equipment"})
	if err != nil {
		t.Fatalf("failed to list rentals: %v", err)
	}
	if len(rentals) != 1 || rentals[0].EquipmentID == nil || *rentals[0].EquipmentID != item.ID {
		t.Fatalf("unexpected rentals: %+v", rentals)
	}

	count, err := harness.Bookings.CountOverlapping(ctx, "room", room.ID, base.Add(30*time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("failed to count overlaps: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 overlapping booking, got %d", count)
	}
}

func TestBookingOverlapWithFractionalSeconds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	client := testfixtures.NewClientFixture().Persistence()
	room := testfixtures.NewRoomFixture().Persistence()
	if err := harness.Clients.CreateClient(ctx, client); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	if err := harness.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("failed to seed room: %v", err)
	}

	// Ends half a second past the hour. Stored timestamps must still compare
	// chronologically against whole-second query bounds.
	base := testfixtures.ReferenceTime()
	booking := testfixtures.NewBookingFixture(
		testfixtures.WithBookingClient(client.ID),
		testfixtures.WithBookingRoom(room.ID),
		testfixtures.WithBookingWindow(base, base.Add(time.Hour+500*time.Millisecond)),
	).Persistence()
	if err := harness.Bookings.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	count, err := harness.Bookings.CountOverlapping(ctx, "room", room.ID, base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("failed to count overlaps: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected booking ending at :00:00.5 to overlap a window starting at :00:00, got %d", count)
	}

	count, err = harness.Bookings.CountOverlapping(ctx, "room", room.ID, base.Add(-time.Hour), base)
	if err != nil {
		t.Fatalf("failed to count overlaps: %v", err)
	}
	if count != 0 {
		t.Fatalf("windows touching at the booking start must not overlap, got %d", count)
	}

	fetched, err := harness.Bookings.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("failed to fetch booking: %v", err)
	}
	if !fetched.End.Equal(base.Add(time.Hour + 500*time.Millisecond)) {
		t.Fatalf("fractional seconds lost in round trip: %v", fetched.End)
	}
}

func TestPaymentRepositoryListsByClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	client := testfixtures.NewClientFixture().Persistence()
	other := testfixtures.NewClientFixture().Persistence()
	if err := harness.Clients.CreateClient(ctx, client); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	if err := harness.Clients.CreateClient(ctx, other); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}

	base := testfixtures.ReferenceTime()
	payments := []persistence.Payment{
		{ID: "payment-1", ClientID: client.ID, Type: "income", Amount: 5000, Method: "cash", PaidOn: base, CreatedAt: base, UpdatedAt: base},
		{ID: "payment-2", ClientID: client.ID, Type: "refund", Amount: 2000, Method: "card", PaidOn: base.AddDate(0, 0, 1), CreatedAt: base, UpdatedAt: base},
		{ID: "payment-3", ClientID: other.ID, Type: "income", Amount: 8000, Method: "transfer", PaidOn: base, CreatedAt: base, UpdatedAt: base},
	}
	for _, payment := range payments {
		if err := harness.Payments.CreatePayment(ctx, payment); err != nil {
			t.Fatalf("failed to create payment %s: %v", payment.ID, err)
		}
	}

	listed, err := harness.Payments.ListPayments(ctx, client.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(listed))
	}
	if listed[0].ID != "payment-2" {
		t.Fatalf("expected most recent payment first, got %s", listed[0].ID)
	}

	all, err := harness.Payments.ListPayments(ctx, "")
	if err != nil {
		t.Fatalf("failed to list all payments: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 payments, got %d", len(all))
	}
}

func TestEnrollmentAndAttendanceFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	client := testfixtures.NewClientFixture().Persistence()
	class := testfixtures.NewClassFixture().Persistence()
	otherClass := testfixtures.NewClassFixture().Persistence()
	if err := harness.Clients.CreateClient(ctx, client); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	if err := harness.Classes.CreateClass(ctx, class); err != nil {
		t.Fatalf("failed to seed class: %v", err)
	}
	if err := harness.Classes.CreateClass(ctx, otherClass); err != nil {
		t.Fatalf("failed to seed class: %v", err)
	}

	base := testfixtures.ReferenceTime()
	enrollments := []persistence.Enrollment{
		{ID: "enrollment-1", ClientID: client.ID, ClassID: class.ID, Status: "active", CreatedAt: base, UpdatedAt: base},
		{ID: "enrollment-2", ClientID: client.ID, ClassID: otherClass.ID, Status: "cancelled", CreatedAt: base, UpdatedAt: base},
	}
	for _, enrollment := range enrollments {
		if err := harness.Enrollments.CreateEnrollment(ctx, enrollment); err != nil {
			t.Fatalf("failed to create enrollment %s: %v", enrollment.ID, err)
		}
	}

	byClass, err := harness.Enrollments.ListEnrollments(ctx, class.ID, "")
	if err != nil {
		t.Fatalf("failed to list enrollments: %v", err)
	}
	if len(byClass) != 1 || byClass[0].ID != "enrollment-1" {
		t.Fatalf("unexpected enrollments: %+v", byClass)
	}

	record := persistence.Attendance{
		ID:        "attendance-1",
		ClientID:  client.ID,
		ClassID:   class.ID,
		Session:   class.Sessions[0],
		Status:    "present",
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := harness.Attendance.CreateAttendance(ctx, record); err != nil {
		t.Fatalf("failed to create attendance: %v", err)
	}

	byClient, err := harness.Attendance.ListAttendance(ctx, "", client.ID)
	if err != nil {
		t.Fatalf("failed to list attendance: %v", err)
	}
	if len(byClient) != 1 || byClient[0].Session != class.Sessions[0] {
		t.Fatalf("unexpected attendance: %+v", byClient)
	}

	if _, err := harness.Attendance.GetAttendance(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
