package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/application"
	"github.com/example/studio-manager/internal/persistence"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (persistence.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (persistence.Booking, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]persistence.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	ReturnEquipment(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (bool, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "malformed booking window", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "malformed booking window", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "booking_id", bookingID)

	booking, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "booking_id", bookingID)

	booking, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	params := application.ListBookingsParams{
		Principal:   principal,
		ClientID:    strings.TrimSpace(r.URL.Query().Get("client_id")),
		ServiceType: strings.TrimSpace(r.URL.Query().Get("service_type")),
		RoomID:      strings.TrimSpace(r.URL.Query().Get("room_id")),
		EquipmentID: strings.TrimSpace(r.URL.Query().Get("equipment_id")),
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("starts_after")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("starts_after must be RFC3339"))
			return
		}
		params.StartsAfter = &parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("ends_before")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("ends_before must be RFC3339"))
			return
		}
		params.EndsBefore = &parsed
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	bookings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for cancel")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.AccountID, "booking_id", bookingID)

	booking, err := h.service.CancelBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Return(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Return", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for equipment return")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Return", "principal_id", principal.AccountID, "booking_id", bookingID)

	booking, err := h.service.ReturnEquipment(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "equipment return failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "equipment returned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "booking_id", bookingID)

	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Availability answers whether a resource window is free without creating
// anything.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	serviceType := strings.TrimSpace(query.Get("service_type"))
	resourceID := strings.TrimSpace(query.Get("resource_id"))
	start, startErr := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("start")))
	end, endErr := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("end")))
	if serviceType == "" || resourceID == "" || startErr != nil || endErr != nil {
		h.log(r.Context(), "Availability", "error_kind", "bad_request").ErrorContext(r.Context(), "malformed availability query")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("service_type, resource_id, start and end are required"))
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Availability",
		"principal_id", principal.AccountID,
		"service_type", serviceType,
		"resource_id", resourceID,
	)

	available, err := h.service.CheckAvailability(r.Context(), application.AvailabilityQuery{
		ServiceType: serviceType,
		ResourceID:  resourceID,
		Start:       start,
		End:         end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("available", available).InfoContext(r.Context(), "availability checked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Available: available})
}

type bookingRequest struct {
	ClientID    string  `json:"client_id"`
	ServiceType string  `json:"service_type"`
	RoomID      *string `json:"room_id"`
	EquipmentID *string `json:"equipment_id"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Price       int64   `json:"price"`
}

func (r bookingRequest) toInput() (application.BookingInput, error) {
	input := application.BookingInput{
		ClientID:    strings.TrimSpace(r.ClientID),
		ServiceType: strings.TrimSpace(r.ServiceType),
		Price:       r.Price,
	}
	if r.RoomID != nil {
		trimmed := strings.TrimSpace(*r.RoomID)
		if trimmed != "" {
			input.RoomID = &trimmed
		}
	}
	if r.EquipmentID != nil {
		trimmed := strings.TrimSpace(*r.EquipmentID)
		if trimmed != "" {
			input.EquipmentID = &trimmed
		}
	}

	if raw := strings.TrimSpace(r.Start); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return application.BookingInput{}, errors.New("start must be RFC3339")
		}
		input.Start = parsed
	}
	if raw := strings.TrimSpace(r.End); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return application.BookingInput{}, errors.New("end must be RFC3339")
		}
		input.End = parsed
	}
	return input, nil
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type bookingDTO struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"client_id"`
	ServiceType   string  `json:"service_type"`
	RoomID        *string `json:"room_id,omitempty"`
	EquipmentID   *string `json:"equipment_id,omitempty"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Price         int64   `json:"price"`
	PaymentStatus string  `json:"payment_status"`
	Status        string  `json:"status"`
	ReturnedAt    *string `json:"returned_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toBookingDTO(booking persistence.Booking) bookingDTO {
	dto := bookingDTO{
		ID:            booking.ID,
		ClientID:      booking.ClientID,
		ServiceType:   booking.ServiceType,
		RoomID:        booking.RoomID,
		EquipmentID:   booking.EquipmentID,
		Start:         booking.Start.UTC().Format(time.RFC3339Nano),
		End:           booking.End.UTC().Format(time.RFC3339Nano),
		Price:         booking.Price,
		PaymentStatus: booking.PaymentStatus,
		Status:        booking.Status,
		CreatedAt:     booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if booking.ReturnedAt != nil {
		returned := booking.ReturnedAt.UTC().Format(time.RFC3339Nano)
		dto.ReturnedAt = &returned
	}
	return dto
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}
