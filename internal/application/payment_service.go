package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// PaymentService records income and refunds for clients.
type PaymentService struct {
	payments    persistence.PaymentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPaymentService constructs a payment service with the provided dependencies.
func NewPaymentService(payments persistence.PaymentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PaymentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PaymentService{payments: payments, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *PaymentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PaymentService", operation, attrs...)
}

// CreatePayment records a new payment.
func (s *PaymentService) CreatePayment(ctx context.Context, params CreatePaymentParams) (payment persistence.Payment, err error) {
	if s == nil || s.payments == nil {
		err = fmt.Errorf("payment service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreatePayment", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record payment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("payment_id", payment.ID, "amount", payment.Amount).InfoContext(ctx, "payment recorded")
	}()

	vErr := validatePaymentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	paidOn := params.Input.PaidOn
	if paidOn.IsZero() {
		paidOn = now
	}
	payment = persistence.Payment{
		ID:          s.idGenerator(),
		ClientID:    params.Input.ClientID,
		BookingID:   params.Input.BookingID,
		Type:        normalizePaymentType(params.Input.Type),
		Amount:      params.Input.Amount,
		Method:      strings.TrimSpace(params.Input.Method),
		Description: strings.TrimSpace(params.Input.Description),
		PaidOn:      paidOn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.payments.CreatePayment(ctx, payment); err != nil {
		err = mapRepoError(err)
		payment = persistence.Payment{}
		return
	}
	return
}

// UpdatePayment updates an existing payment record.
func (s *PaymentService) UpdatePayment(ctx context.Context, params UpdatePaymentParams) (payment persistence.Payment, err error) {
	if s == nil || s.payments == nil {
		err = fmt.Errorf("payment service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePayment",
		"principal_id", params.Principal.AccountID,
		"payment_id", params.PaymentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update payment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "payment updated")
	}()

	var existing persistence.Payment
	existing, err = s.payments.GetPayment(ctx, params.PaymentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validatePaymentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	payment = existing
	payment.ClientID = params.Input.ClientID
	payment.BookingID = params.Input.BookingID
	payment.Type = normalizePaymentType(params.Input.Type)
	payment.Amount = params.Input.Amount
	payment.Method = strings.TrimSpace(params.Input.Method)
	payment.Description = strings.TrimSpace(params.Input.Description)
	if !params.Input.PaidOn.IsZero() {
		payment.PaidOn = params.Input.PaidOn
	}
	payment.UpdatedAt = s.now()

	if err = s.payments.UpdatePayment(ctx, payment); err != nil {
		err = mapRepoError(err)
		payment = persistence.Payment{}
		return
	}
	return
}

// GetPayment retrieves a single payment.
func (s *PaymentService) GetPayment(ctx context.Context, principal Principal, paymentID string) (persistence.Payment, error) {
	if s == nil || s.payments == nil {
		return persistence.Payment{}, fmt.Errorf("payment service not configured")
	}
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return persistence.Payment{}, mapRepoError(err)
	}
	return payment, nil
}

// ListPayments returns payments, optionally for one client.
func (s *PaymentService) ListPayments(ctx context.Context, principal Principal, clientID string) ([]persistence.Payment, error) {
	if s == nil || s.payments == nil {
		return nil, fmt.Errorf("payment service not configured")
	}
	payments, err := s.payments.ListPayments(ctx, clientID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return payments, nil
}

// DeletePayment removes a payment when requested by an administrator.
func (s *PaymentService) DeletePayment(ctx context.Context, principal Principal, paymentID string) error {
	if s == nil || s.payments == nil {
		return fmt.Errorf("payment service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeletePayment",
		"principal_id", principal.AccountID,
		"payment_id", paymentID,
	)
	if err := s.payments.DeletePayment(ctx, paymentID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete payment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "payment deleted")
	return nil
}

func validatePaymentInput(input PaymentInput) *ValidationError {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	switch normalizePaymentType(input.Type) {
	case "income", "refund":
	default:
		vErr.add("type", "type must be income or refund")
	}
	if input.Amount <= 0 {
		vErr.add("amount", "amount must be positive")
	}
	return vErr
}

func normalizePaymentType(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "income"
	}
	return trimmed
}
