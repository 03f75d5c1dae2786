package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/schedule"
)

// BookingService orchestrates reservations of rooms and equipment. It also
// serves as the availability oracle for the schedule builder.
type BookingService struct {
	bookings    persistence.BookingRepository
	cache       *availabilityCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings persistence.BookingRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		cache:       newAvailabilityCache(30*time.Second, 512),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates input, verifies the resource window is free, and
// persists the reservation.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking persistence.Booking, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	vErr := validateBookingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var available bool
	available, err = s.CheckAvailability(ctx, AvailabilityQuery{
		ServiceType: params.Input.ServiceType,
		ResourceID:  bookingResourceID(params.Input),
		Start:       params.Input.Start,
		End:         params.Input.End,
	})
	if err != nil {
		return
	}
	if !available {
		err = ErrConflict
		return
	}

	now := s.now()
	booking = persistence.Booking{
		ID:            s.idGenerator(),
		ClientID:      params.Input.ClientID,
		ServiceType:   params.Input.ServiceType,
		RoomID:        params.Input.RoomID,
		EquipmentID:   params.Input.EquipmentID,
		Start:         params.Input.Start,
		End:           params.Input.End,
		Price:         params.Input.Price,
		PaymentStatus: "unpaid",
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.bookings.CreateBooking(ctx, booking); err != nil {
		err = mapRepoError(err)
		booking = persistence.Booking{}
		return
	}
	s.cache.Invalidate()
	return
}

// UpdateBooking validates input and replaces an existing booking. The overlap
// check ignores the booking being updated.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking persistence.Booking, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.AccountID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	var existing persistence.Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateBookingInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var conflicting bool
	conflicting, err = s.hasOverlapExcluding(ctx, params.Input, existing.ID)
	if err != nil {
		return
	}
	if conflicting {
		err = ErrConflict
		return
	}

	booking = existing
	booking.ClientID = params.Input.ClientID
	booking.ServiceType = params.Input.ServiceType
	booking.RoomID = params.Input.RoomID
	booking.EquipmentID = params.Input.EquipmentID
	booking.Start = params.Input.Start
	booking.End = params.Input.End
	booking.Price = params.Input.Price
	booking.UpdatedAt = s.now()

	if err = s.bookings.UpdateBooking(ctx, booking); err != nil {
		err = mapRepoError(err)
		booking = persistence.Booking{}
		return
	}
	s.cache.Invalidate()
	return
}

// GetBooking retrieves a single booking.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (persistence.Booking, error) {
	if s == nil || s.bookings == nil {
		return persistence.Booking{}, fmt.Errorf("booking service not configured")
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]persistence.Booking, error) {
	if s == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking service not configured")
	}
	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		ClientID:    params.ClientID,
		ServiceType: params.ServiceType,
		RoomID:      params.RoomID,
		EquipmentID: params.EquipmentID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
		Status:      params.Status,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return bookings, nil
}

// CancelBooking marks a booking cancelled, freeing its window.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (persistence.Booking, error) {
	if s == nil || s.bookings == nil {
		return persistence.Booking{}, fmt.Errorf("booking service not configured")
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"principal_id", principal.AccountID,
		"booking_id", bookingID,
	)

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
		return persistence.Booking{}, err
	}

	booking.Status = "cancelled"
	booking.UpdatedAt = s.now()
	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
		return persistence.Booking{}, err
	}
	s.cache.Invalidate()
	logger.InfoContext(ctx, "booking cancelled")
	return booking, nil
}

// ReturnEquipment records the return of rented equipment, freeing its window.
func (s *BookingService) ReturnEquipment(ctx context.Context, principal Principal, bookingID string) (booking persistence.Booking, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking service not configured")
		return
	}

	logger := s.loggerWith(ctx, "ReturnEquipment",
		"principal_id", principal.AccountID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to return equipment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "equipment returned")
	}()

	booking, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		booking = persistence.Booking{}
		return
	}

	if booking.ServiceType != "equipment" {
		vErr := &ValidationError{}
		vErr.add("service_type", "only equipment bookings can be returned")
		err = vErr
		booking = persistence.Booking{}
		return
	}
	if booking.ReturnedAt != nil {
		err = ErrAlreadyExists
		booking = persistence.Booking{}
		return
	}

	returnedAt := s.now()
	booking.ReturnedAt = &returnedAt
	booking.UpdatedAt = returnedAt
	if err = s.bookings.UpdateBooking(ctx, booking); err != nil {
		err = mapRepoError(err)
		booking = persistence.Booking{}
		return
	}
	s.cache.Invalidate()
	return
}

// DeleteBooking removes a booking when requested by an administrator.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil || s.bookings == nil {
		return fmt.Errorf("booking service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.AccountID,
		"booking_id", bookingID,
	)
	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.cache.Invalidate()
	logger.InfoContext(ctx, "booking deleted")
	return nil
}

// CheckAvailability reports whether the resource window is free of active
// bookings. Results are cached briefly; the cache is purged on every booking
// write.
func (s *BookingService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (bool, error) {
	if s == nil || s.bookings == nil {
		return false, fmt.Errorf("booking service not configured")
	}

	vErr := validateAvailabilityQuery(query)
	if vErr.HasErrors() {
		return false, vErr
	}

	key := availabilityCacheKey(query)
	if available, ok := s.cache.Get(key); ok {
		return available, nil
	}

	count, err := s.bookings.CountOverlapping(ctx, query.ServiceType, query.ResourceID, query.Start, query.End)
	if err != nil {
		return false, mapRepoError(err)
	}
	available := count == 0
	s.cache.Store(key, available)
	return available, nil
}

// RoomOracle adapts the service into the schedule builder's oracle for room
// availability probes.
func (s *BookingService) RoomOracle() schedule.AvailabilityOracle {
	return schedule.AvailabilityOracleFunc(func(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
		return s.CheckAvailability(ctx, AvailabilityQuery{
			ServiceType: "room",
			ResourceID:  resourceID,
			Start:       start,
			End:         end,
		})
	})
}

func (s *BookingService) hasOverlapExcluding(ctx context.Context, input BookingInput, excludeID string) (bool, error) {
	filter := persistence.BookingFilter{
		ServiceType: input.ServiceType,
		Status:      "active",
	}
	if input.ServiceType == "equipment" {
		filter.EquipmentID = bookingResourceID(input)
	} else {
		filter.RoomID = bookingResourceID(input)
	}

	bookings, err := s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return false, mapRepoError(err)
	}
	for _, other := range bookings {
		if other.ID == excludeID || other.ReturnedAt != nil {
			continue
		}
		if input.Start.Before(other.End) && other.Start.Before(input.End) {
			return true, nil
		}
	}
	return false, nil
}

func bookingResourceID(input BookingInput) string {
	if input.ServiceType == "equipment" {
		if input.EquipmentID != nil {
			return *input.EquipmentID
		}
		return ""
	}
	if input.RoomID != nil {
		return *input.RoomID
	}
	return ""
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	switch input.ServiceType {
	case "room":
		if input.RoomID == nil || *input.RoomID == "" {
			vErr.add("room_id", "room is required for room bookings")
		}
	case "equipment":
		if input.EquipmentID == nil || *input.EquipmentID == "" {
			vErr.add("equipment_id", "equipment is required for equipment bookings")
		}
	default:
		vErr.add("service_type", "service type must be room or equipment")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		vErr.add("end", "end must be after start")
	}
	if input.Price < 0 {
		vErr.add("price", "price must not be negative")
	}
	return vErr
}

func validateAvailabilityQuery(query AvailabilityQuery) *ValidationError {
	vErr := &ValidationError{}
	switch query.ServiceType {
	case "room", "equipment":
	default:
		vErr.add("service_type", "service type must be room or equipment")
	}
	if query.ResourceID == "" {
		vErr.add("resource_id", "resource is required")
	}
	if query.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if query.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !query.Start.IsZero() && !query.End.IsZero() && !query.End.After(query.Start) {
		vErr.add("end", "end must be after start")
	}
	return vErr
}
