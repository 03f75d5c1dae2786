package application

import (
	"time"

	"github.com/example/studio-manager/internal/schedule"
)

// Principal represents the authenticated staff member invoking a service method.
type Principal struct {
	AccountID string
	IsAdmin   bool
}

// ClientInput captures caller provided client fields.
type ClientInput struct {
	Name  string
	Type  string
	Email string
	Phone string
	Notes string
}

// CreateClientParams wraps the data required to create a client.
type CreateClientParams struct {
	Principal Principal
	Input     ClientInput
}

// UpdateClientParams wraps the data required to update a client.
type UpdateClientParams struct {
	Principal Principal
	ClientID  string
	Input     ClientInput
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name       string
	Capacity   int
	Location   string
	HourlyRate int64
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// EquipmentInput captures caller provided equipment fields.
type EquipmentInput struct {
	Name      string
	Category  string
	Quantity  int
	DailyRate int64
	Condition string
}

// CreateEquipmentParams wraps the data required to create an equipment line.
type CreateEquipmentParams struct {
	Principal Principal
	Input     EquipmentInput
}

// UpdateEquipmentParams wraps the data required to update an equipment line.
type UpdateEquipmentParams struct {
	Principal   Principal
	EquipmentID string
	Input       EquipmentInput
}

// ClassInput captures caller provided class fields. Sessions are canonicalized
// on write; Recurrence and Grid, when present, expand into additional
// sessions merged into the set.
type ClassInput struct {
	Name          string
	Instructor    string
	RoomID        *string
	SessionLength int
	Fee           int64
	Sessions      []string
	Recurrence    *schedule.RecurrenceSpec
	Grid          *schedule.GridSpec
}

// CreateClassParams wraps the data required to create a class.
type CreateClassParams struct {
	Principal Principal
	Input     ClassInput
}

// UpdateClassParams wraps the data required to update a class.
type UpdateClassParams struct {
	Principal Principal
	ClassID   string
	Input     ClassInput
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	ClientID    string
	ServiceType string
	RoomID      *string
	EquipmentID *string
	Start       time.Time
	End         time.Time
	Price       int64
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to update a booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// ListBookingsParams wraps booking listing filters.
type ListBookingsParams struct {
	Principal   Principal
	ClientID    string
	ServiceType string
	RoomID      string
	EquipmentID string
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Status      string
}

// AvailabilityQuery identifies a resource window to probe.
type AvailabilityQuery struct {
	ServiceType string
	ResourceID  string
	Start       time.Time
	End         time.Time
}

// EnrollmentInput captures caller provided enrollment fields.
type EnrollmentInput struct {
	ClientID string
	ClassID  string
	Status   string
}

// CreateEnrollmentParams wraps the data required to create an enrollment.
type CreateEnrollmentParams struct {
	Principal Principal
	Input     EnrollmentInput
}

// UpdateEnrollmentParams wraps the data required to update an enrollment.
type UpdateEnrollmentParams struct {
	Principal    Principal
	EnrollmentID string
	Input        EnrollmentInput
}

// AttendanceInput captures caller provided attendance fields.
type AttendanceInput struct {
	ClientID string
	ClassID  string
	Session  string
	Status   string
	Notes    string
}

// CreateAttendanceParams wraps the data required to record attendance.
type CreateAttendanceParams struct {
	Principal Principal
	Input     AttendanceInput
}

// UpdateAttendanceParams wraps the data required to update an attendance record.
type UpdateAttendanceParams struct {
	Principal    Principal
	AttendanceID string
	Input        AttendanceInput
}

// PaymentInput captures caller provided payment fields.
type PaymentInput struct {
	ClientID    string
	BookingID   *string
	Type        string
	Amount      int64
	Method      string
	Description string
	PaidOn      time.Time
}

// CreatePaymentParams wraps the data required to record a payment.
type CreatePaymentParams struct {
	Principal Principal
	Input     PaymentInput
}

// UpdatePaymentParams wraps the data required to update a payment.
type UpdatePaymentParams struct {
	Principal Principal
	PaymentID string
	Input     PaymentInput
}

// RegisterParams captures the data required to register a staff account.
type RegisterParams struct {
	Principal Principal
	Username  string
	Password  string
	Role      string
}

// LoginParams captures the data required to authenticate a staff account.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult captures the outcome of a successful login.
type LoginResult struct {
	AccountID string
	Username  string
	Role      string
	Token     string
	ExpiresAt time.Time
}
