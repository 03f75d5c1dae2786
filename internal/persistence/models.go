package persistence

import "time"

// Account represents a staff login stored with its credential state.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for an account.
type Session struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Client represents a studio customer, either an individual or a company.
type Client struct {
	ID        string
	Name      string
	Type      string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room represents a bookable studio room.
type Room struct {
	ID         string
	Name       string
	Capacity   int
	Location   string
	HourlyRate int64 // cents
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Equipment represents a rentable equipment line.
type Equipment struct {
	ID        string
	Name      string
	Category  string
	Quantity  int
	DailyRate int64 // cents
	Condition string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Class represents a recurring class offering. Sessions holds the canonical
// ordered set of session start instants (RFC3339 UTC strings).
type Class struct {
	ID            string
	Name          string
	Instructor    string
	RoomID        *string
	SessionLength int // minutes
	Fee           int64
	Sessions      []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking represents a reservation of a room or an equipment line for a
// client over a time window.
type Booking struct {
	ID            string
	ClientID      string
	ServiceType   string // "room" or "equipment"
	RoomID        *string
	EquipmentID   *string
	Start         time.Time
	End           time.Time
	Price         int64
	PaymentStatus string
	Status        string // "active" or "cancelled"
	ReturnedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Enrollment links a client to a class.
type Enrollment struct {
	ID        string
	ClientID  string
	ClassID   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attendance records presence of a client at one class session.
type Attendance struct {
	ID        string
	ClientID  string
	ClassID   string
	Session   string // canonical session timestamp
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment represents money received from (or refunded to) a client.
type Payment struct {
	ID          string
	ClientID    string
	BookingID   *string
	Type        string // "income" or "refund"
	Amount      int64
	Method      string
	Description string
	PaidOn      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CalendarEvent is a materialized calendar entry derived from bookings and
// class sessions by the sync job.
type CalendarEvent struct {
	ID        string
	Kind      string // "booking" or "class_session"
	SourceID  string
	Title     string
	RoomID    *string
	Start     time.Time
	End       time.Time
	UpdatedAt time.Time
}
