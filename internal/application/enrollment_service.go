package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// EnrollmentService links clients to classes.
type EnrollmentService struct {
	enrollments persistence.EnrollmentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEnrollmentService constructs an enrollment service with the provided dependencies.
func NewEnrollmentService(enrollments persistence.EnrollmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EnrollmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EnrollmentService{enrollments: enrollments, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EnrollmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EnrollmentService", operation, attrs...)
}

// CreateEnrollment enrolls a client in a class. A client can only hold one
// enrollment per class.
func (s *EnrollmentService) CreateEnrollment(ctx context.Context, params CreateEnrollmentParams) (enrollment persistence.Enrollment, err error) {
	if s == nil || s.enrollments == nil {
		err = fmt.Errorf("enrollment service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEnrollment", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create enrollment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("enrollment_id", enrollment.ID).InfoContext(ctx, "enrollment created")
	}()

	vErr := validateEnrollmentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	enrollment = persistence.Enrollment{
		ID:        s.idGenerator(),
		ClientID:  params.Input.ClientID,
		ClassID:   params.Input.ClassID,
		Status:    normalizeEnrollmentStatus(params.Input.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.enrollments.CreateEnrollment(ctx, enrollment); err != nil {
		err = mapRepoError(err)
		enrollment = persistence.Enrollment{}
		return
	}
	return
}

// UpdateEnrollment updates the status of an existing enrollment.
func (s *EnrollmentService) UpdateEnrollment(ctx context.Context, params UpdateEnrollmentParams) (enrollment persistence.Enrollment, err error) {
	if s == nil || s.enrollments == nil {
		err = fmt.Errorf("enrollment service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEnrollment",
		"principal_id", params.Principal.AccountID,
		"enrollment_id", params.EnrollmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update enrollment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "enrollment updated")
	}()

	var existing persistence.Enrollment
	existing, err = s.enrollments.GetEnrollment(ctx, params.EnrollmentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateEnrollmentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	enrollment = existing
	enrollment.ClientID = params.Input.ClientID
	enrollment.ClassID = params.Input.ClassID
	enrollment.Status = normalizeEnrollmentStatus(params.Input.Status)
	enrollment.UpdatedAt = s.now()

	if err = s.enrollments.UpdateEnrollment(ctx, enrollment); err != nil {
		err = mapRepoError(err)
		enrollment = persistence.Enrollment{}
		return
	}
	return
}

// GetEnrollment retrieves a single enrollment.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, principal Principal, enrollmentID string) (persistence.Enrollment, error) {
	if s == nil || s.enrollments == nil {
		return persistence.Enrollment{}, fmt.Errorf("enrollment service not configured")
	}
	enrollment, err := s.enrollments.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return persistence.Enrollment{}, mapRepoError(err)
	}
	return enrollment, nil
}

// ListEnrollments returns enrollments, optionally filtered by class or client.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, principal Principal, classID, clientID string) ([]persistence.Enrollment, error) {
	if s == nil || s.enrollments == nil {
		return nil, fmt.Errorf("enrollment service not configured")
	}
	enrollments, err := s.enrollments.ListEnrollments(ctx, classID, clientID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return enrollments, nil
}

// DeleteEnrollment removes an enrollment.
func (s *EnrollmentService) DeleteEnrollment(ctx context.Context, principal Principal, enrollmentID string) error {
	if s == nil || s.enrollments == nil {
		return fmt.Errorf("enrollment service not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEnrollment",
		"principal_id", principal.AccountID,
		"enrollment_id", enrollmentID,
	)
	if err := s.enrollments.DeleteEnrollment(ctx, enrollmentID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete enrollment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "enrollment deleted")
	return nil
}

func validateEnrollmentInput(input EnrollmentInput) *ValidationError {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	if input.ClassID == "" {
		vErr.add("class_id", "class is required")
	}
	switch normalizeEnrollmentStatus(input.Status) {
	case "active", "cancelled", "completed":
	default:
		vErr.add("status", "status must be active, cancelled, or completed")
	}
	return vErr
}

func normalizeEnrollmentStatus(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "active"
	}
	return trimmed
}
