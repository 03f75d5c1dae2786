package persistence

import (
	"context"
	"time"
)

// AccountRepository exposes staff account storage.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	UpdateAccount(ctx context.Context, account Account) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ClientRepository exposes CRUD operations for clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	UpdateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// EquipmentRepository exposes CRUD operations for equipment lines.
type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, equipment Equipment) error
	UpdateEquipment(ctx context.Context, equipment Equipment) error
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// ClassRepository stores classes together with their session sets.
type ClassRepository interface {
	CreateClass(ctx context.Context, class Class) error
	UpdateClass(ctx context.Context, class Class) error
	GetClass(ctx context.Context, id string) (Class, error)
	ListClasses(ctx context.Context) ([]Class, error)
	DeleteClass(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries.
type BookingFilter struct {
	ClientID    string
	ServiceType string
	RoomID      string
	EquipmentID string
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Status      string
}

// BookingRepository stores bookings and answers overlap queries for the
// availability oracle.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	// CountOverlapping reports active bookings of the resource whose window
	// intersects [start, end).
	CountOverlapping(ctx context.Context, serviceType, resourceID string, start, end time.Time) (int, error)
}

// EnrollmentRepository exposes CRUD operations for class enrollments.
type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, enrollment Enrollment) error
	UpdateEnrollment(ctx context.Context, enrollment Enrollment) error
	GetEnrollment(ctx context.Context, id string) (Enrollment, error)
	ListEnrollments(ctx context.Context, classID, clientID string) ([]Enrollment, error)
	DeleteEnrollment(ctx context.Context, id string) error
}

// AttendanceRepository exposes CRUD operations for attendance records.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, attendance Attendance) error
	UpdateAttendance(ctx context.Context, attendance Attendance) error
	GetAttendance(ctx context.Context, id string) (Attendance, error)
	ListAttendance(ctx context.Context, classID, clientID string) ([]Attendance, error)
	DeleteAttendance(ctx context.Context, id string) error
}

// PaymentRepository exposes CRUD operations for payments.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment Payment) error
	UpdatePayment(ctx context.Context, payment Payment) error
	GetPayment(ctx context.Context, id string) (Payment, error)
	ListPayments(ctx context.Context, clientID string) ([]Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

// CalendarRepository stores the materialized calendar view.
type CalendarRepository interface {
	ReplaceCalendar(ctx context.Context, events []CalendarEvent) error
	ListCalendarEvents(ctx context.Context, from, to *time.Time) ([]CalendarEvent, error)
}
