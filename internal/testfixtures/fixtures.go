package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

var (
	clientCounter    uint64
	roomCounter      uint64
	equipmentCounter uint64
	classCounter     uint64
	bookingCounter   uint64
	accountCounter   uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ClientFixture represents a deterministic client record.
type ClientFixture struct {
	Client persistence.Client
}

// ClientOption mutates a client fixture before materialisation.
type ClientOption func(*persistence.Client)

// WithClientName overrides the generated client name.
func WithClientName(name string) ClientOption {
	return func(c *persistence.Client) { c.Name = name }
}

// WithClientType overrides the client type, "individual" or "company".
func WithClientType(clientType string) ClientOption {
	return func(c *persistence.Client) { c.Type = clientType }
}

// NewClientFixture builds a client with sequential identity and sensible
// defaults.
func NewClientFixture(opts ...ClientOption) ClientFixture {
	n := atomic.AddUint64(&clientCounter, 1)
	client := persistence.Client{
		ID:        fmt.Sprintf("client-%d", n),
		Name:      fmt.Sprintf("Client %d", n),
		Type:      "individual",
		Email:     fmt.Sprintf("client%d@example.com", n),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&client)
	}
	return ClientFixture{Client: client}
}

// Persistence returns the materialised client record.
func (f ClientFixture) Persistence() persistence.Client {
	return f.Client
}

// RoomFixture represents a deterministic room record.
type RoomFixture struct {
	Room persistence.Room
}

// RoomOption mutates a room fixture before materialisation.
type RoomOption func(*persistence.Room)

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *persistence.Room) { r.Name = name }
}

// WithRoomCapacity overrides the room capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) { r.Capacity = capacity }
}

// NewRoomFixture builds a room with sequential identity.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	n := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		ID:         fmt.Sprintf("room-%d", n),
		Name:       fmt.Sprintf("Room %d", n),
		Capacity:   4,
		Location:   "ground floor",
		HourlyRate: 5000,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return RoomFixture{Room: room}
}

// Persistence returns the materialised room record.
func (f RoomFixture) Persistence() persistence.Room {
	return f.Room
}

// EquipmentFixture represents a deterministic equipment record.
type EquipmentFixture struct {
	Equipment persistence.Equipment
}

// EquipmentOption mutates an equipment fixture before materialisation.
type EquipmentOption func(*persistence.Equipment)

// WithEquipmentName overrides the generated equipment name.
func WithEquipmentName(name string) EquipmentOption {
	return func(e *persistence.Equipment) { e.Name = name }
}

// WithEquipmentQuantity overrides the stocked quantity.
func WithEquipmentQuantity(quantity int) EquipmentOption {
	return func(e *persistence.Equipment) { e.Quantity = quantity }
}

// NewEquipmentFixture builds an equipment line with sequential identity.
func NewEquipmentFixture(opts ...EquipmentOption) EquipmentFixture {
	n := atomic.AddUint64(&equipmentCounter, 1)
	equipment := persistence.Equipment{
		ID:        fmt.Sprintf("equipment-%d", n),
		Name:      fmt.Sprintf("Equipment %d", n),
		Category:  "audio",
		Quantity:  1,
		DailyRate: 2500,
		Condition: "good",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&equipment)
	}
	return EquipmentFixture{Equipment: equipment}
}

// Persistence returns the materialised equipment record.
func (f EquipmentFixture) Persistence() persistence.Equipment {
	return f.Equipment
}

// ClassFixture represents a deterministic class record.
type ClassFixture struct {
	Class persistence.Class
}

// ClassOption mutates a class fixture before materialisation.
type ClassOption func(*persistence.Class)

// WithClassRoom assigns a room to the class.
func WithClassRoom(roomID string) ClassOption {
	return func(c *persistence.Class) { c.RoomID = &roomID }
}

// WithClassSessions overrides the canonical session set.
func WithClassSessions(sessions ...string) ClassOption {
	return func(c *persistence.Class) { c.Sessions = sessions }
}

// NewClassFixture builds a class with sequential identity and two weekly
// sessions relative to ReferenceTime.
func NewClassFixture(opts ...ClassOption) ClassFixture {
	n := atomic.AddUint64(&classCounter, 1)
	class := persistence.Class{
		ID:            fmt.Sprintf("class-%d", n),
		Name:          fmt.Sprintf("Class %d", n),
		Instructor:    "Sato",
		SessionLength: 60,
		Fee:           8000,
		Sessions: []string{
			referenceTime.Format(time.RFC3339),
			referenceTime.AddDate(0, 0, 7).Format(time.RFC3339),
		},
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&class)
	}
	return ClassFixture{Class: class}
}

// Persistence returns the materialised class record.
func (f ClassFixture) Persistence() persistence.Class {
	return f.Class
}

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	Booking persistence.Booking
}

// BookingOption mutates a booking fixture before materialisation.
type BookingOption func(*persistence.Booking)

// WithBookingClient assigns the owning client.
func WithBookingClient(clientID string) BookingOption {
	return func(b *persistence.Booking) { b.ClientID = clientID }
}

// WithBookingRoom makes the booking a room reservation.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *persistence.Booking) {
		b.ServiceType = "room"
		b.RoomID = &roomID
		b.EquipmentID = nil
	}
}

// WithBookingEquipment makes the booking an equipment rental.
func WithBookingEquipment(equipmentID string) BookingOption {
	return func(b *persistence.Booking) {
		b.ServiceType = "equipment"
		b.EquipmentID = &equipmentID
		b.RoomID = nil
	}
}

// WithBookingWindow overrides the reservation window.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(b *persistence.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingStatus overrides the booking status.
func WithBookingStatus(status string) BookingOption {
	return func(b *persistence.Booking) { b.Status = status }
}

// NewBookingFixture builds an active one-hour room booking starting at
// ReferenceTime. The generated client and room identifiers do not reference
// stored rows; callers persisting the booking should supply real ones.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	n := atomic.AddUint64(&bookingCounter, 1)
	roomID := fmt.Sprintf("room-for-booking-%d", n)
	booking := persistence.Booking{
		ID:            fmt.Sprintf("booking-%d", n),
		ClientID:      fmt.Sprintf("client-for-booking-%d", n),
		ServiceType:   "room",
		RoomID:        &roomID,
		Start:         referenceTime,
		End:           referenceTime.Add(time.Hour),
		Price:         5000,
		PaymentStatus: "unpaid",
		Status:        "active",
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return BookingFixture{Booking: booking}
}

// Persistence returns the materialised booking record.
func (f BookingFixture) Persistence() persistence.Booking {
	return f.Booking
}

// AccountFixture represents a deterministic staff account record.
type AccountFixture struct {
	Account persistence.Account
}

// AccountOption mutates an account fixture before materialisation.
type AccountOption func(*persistence.Account)

// WithAccountRole overrides the account role.
func WithAccountRole(role string) AccountOption {
	return func(a *persistence.Account) { a.Role = role }
}

// NewAccountFixture builds a staff account with sequential identity.
func NewAccountFixture(opts ...AccountOption) AccountFixture {
	n := atomic.AddUint64(&accountCounter, 1)
	account := persistence.Account{
		ID:           fmt.Sprintf("account-%d", n),
		Username:     fmt.Sprintf("staff%d", n),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$cGxhY2Vob2xkZXI$cGxhY2Vob2xkZXI",
		Role:         "staff",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&account)
	}
	return AccountFixture{Account: account}
}

// Persistence returns the materialised account record.
func (f AccountFixture) Persistence() persistence.Account {
	return f.Account
}
