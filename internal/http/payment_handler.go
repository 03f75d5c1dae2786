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

type paymentService interface {
	CreatePayment(ctx context.Context, params application.CreatePaymentParams) (persistence.Payment, error)
	UpdatePayment(ctx context.Context, params application.UpdatePaymentParams) (persistence.Payment, error)
	GetPayment(ctx context.Context, principal application.Principal, paymentID string) (persistence.Payment, error)
	ListPayments(ctx context.Context, principal application.Principal, clientID string) ([]persistence.Payment, error)
	DeletePayment(ctx context.Context, principal application.Principal, paymentID string) error
}

type PaymentHandler struct {
	service   paymentService
	responder responder
	logger    *slog.Logger
}

func NewPaymentHandler(service paymentService, logger *slog.Logger) *PaymentHandler {
	base := defaultLogger(logger)
	return &PaymentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PaymentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PaymentHandler", operation, attrs...)
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode payment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "malformed payment date", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	payment, err := h.service.CreatePayment(r.Context(), application.CreatePaymentParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "payment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("payment_id", payment.ID).InfoContext(r.Context(), "payment recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, paymentResponse{Payment: toPaymentDTO(payment)})
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	paymentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(paymentID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing payment id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "payment_id", paymentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode payment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "payment_id", paymentID, "error_kind", "bad_request").ErrorContext(r.Context(), "malformed payment date", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "payment_id", paymentID)

	payment, err := h.service.UpdatePayment(r.Context(), application.UpdatePaymentParams{
		Principal: principal,
		PaymentID: paymentID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "payment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "payment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, paymentResponse{Payment: toPaymentDTO(payment)})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	paymentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(paymentID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing payment id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "payment_id", paymentID)

	payment, err := h.service.GetPayment(r.Context(), principal, paymentID)
	if err != nil {
		logger.ErrorContext(r.Context(), "payment fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, paymentResponse{Payment: toPaymentDTO(payment)})
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	payments, err := h.service.ListPayments(r.Context(), principal, clientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "payment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(payments)).InfoContext(r.Context(), "payments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPaymentsResponse{Payments: toPaymentDTOs(payments)})
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	paymentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(paymentID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing payment id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "payment_id", paymentID)

	if err := h.service.DeletePayment(r.Context(), principal, paymentID); err != nil {
		logger.ErrorContext(r.Context(), "payment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "payment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type paymentRequest struct {
	ClientID    string  `json:"client_id"`
	BookingID   *string `json:"booking_id"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Method      string  `json:"method"`
	Description string  `json:"description"`
	PaidOn      string  `json:"paid_on"`
}

func (r paymentRequest) toInput() (application.PaymentInput, error) {
	input := application.PaymentInput{
		ClientID:    strings.TrimSpace(r.ClientID),
		Type:        strings.TrimSpace(r.Type),
		Amount:      r.Amount,
		Method:      strings.TrimSpace(r.Method),
		Description: strings.TrimSpace(r.Description),
	}
	if r.BookingID != nil {
		trimmed := strings.TrimSpace(*r.BookingID)
		if trimmed != "" {
			input.BookingID = &trimmed
		}
	}
	if raw := strings.TrimSpace(r.PaidOn); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return application.PaymentInput{}, errors.New("paid_on must be RFC3339")
		}
		input.PaidOn = parsed
	}
	return input, nil
}

type paymentResponse struct {
	Payment paymentDTO `json:"payment"`
}

type listPaymentsResponse struct {
	Payments []paymentDTO `json:"payments"`
}

type paymentDTO struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	BookingID   *string `json:"booking_id,omitempty"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Method      string  `json:"method,omitempty"`
	Description string  `json:"description,omitempty"`
	PaidOn      string  `json:"paid_on"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toPaymentDTO(payment persistence.Payment) paymentDTO {
	return paymentDTO{
		ID:          payment.ID,
		ClientID:    payment.ClientID,
		BookingID:   payment.BookingID,
		Type:        payment.Type,
		Amount:      payment.Amount,
		Method:      payment.Method,
		Description: payment.Description,
		PaidOn:      payment.PaidOn.UTC().Format(time.RFC3339Nano),
		CreatedAt:   payment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   payment.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPaymentDTOs(payments []persistence.Payment) []paymentDTO {
	if len(payments) == 0 {
		return nil
	}
	out := make([]paymentDTO, 0, len(payments))
	for _, payment := range payments {
		out = append(out, toPaymentDTO(payment))
	}
	return out
}
