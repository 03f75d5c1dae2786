package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/schedule"
)

// AttendanceService records client presence at class sessions. Session keys
// are normalized to the canonical timestamp form before storage.
type AttendanceService struct {
	attendance  persistence.AttendanceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService constructs an attendance service with the provided dependencies.
func NewAttendanceService(attendance persistence.AttendanceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{attendance: attendance, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// CreateAttendance records attendance for a client at one class session.
func (s *AttendanceService) CreateAttendance(ctx context.Context, params CreateAttendanceParams) (record persistence.Attendance, err error) {
	if s == nil || s.attendance == nil {
		err = fmt.Errorf("attendance service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateAttendance", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("attendance_id", record.ID).InfoContext(ctx, "attendance recorded")
	}()

	session, vErr := validateAttendanceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record = persistence.Attendance{
		ID:        s.idGenerator(),
		ClientID:  params.Input.ClientID,
		ClassID:   params.Input.ClassID,
		Session:   session,
		Status:    normalizeAttendanceStatus(params.Input.Status),
		Notes:     strings.TrimSpace(params.Input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.attendance.CreateAttendance(ctx, record); err != nil {
		err = mapRepoError(err)
		record = persistence.Attendance{}
		return
	}
	return
}

// UpdateAttendance updates an existing attendance record.
func (s *AttendanceService) UpdateAttendance(ctx context.Context, params UpdateAttendanceParams) (record persistence.Attendance, err error) {
	if s == nil || s.attendance == nil {
		err = fmt.Errorf("attendance service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAttendance",
		"principal_id", params.Principal.AccountID,
		"attendance_id", params.AttendanceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendance updated")
	}()

	var existing persistence.Attendance
	existing, err = s.attendance.GetAttendance(ctx, params.AttendanceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	session, vErr := validateAttendanceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record = existing
	record.ClientID = params.Input.ClientID
	record.ClassID = params.Input.ClassID
	record.Session = session
	record.Status = normalizeAttendanceStatus(params.Input.Status)
	record.Notes = strings.TrimSpace(params.Input.Notes)
	record.UpdatedAt = s.now()

	if err = s.attendance.UpdateAttendance(ctx, record); err != nil {
		err = mapRepoError(err)
		record = persistence.Attendance{}
		return
	}
	return
}

// GetAttendance retrieves a single attendance record.
func (s *AttendanceService) GetAttendance(ctx context.Context, principal Principal, attendanceID string) (persistence.Attendance, error) {
	if s == nil || s.attendance == nil {
		return persistence.Attendance{}, fmt.Errorf("attendance service not configured")
	}
	record, err := s.attendance.GetAttendance(ctx, attendanceID)
	if err != nil {
		return persistence.Attendance{}, mapRepoError(err)
	}
	return record, nil
}

// ListAttendance returns attendance records, optionally filtered by class or client.
func (s *AttendanceService) ListAttendance(ctx context.Context, principal Principal, classID, clientID string) ([]persistence.Attendance, error) {
	if s == nil || s.attendance == nil {
		return nil, fmt.Errorf("attendance service not configured")
	}
	records, err := s.attendance.ListAttendance(ctx, classID, clientID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

// DeleteAttendance removes an attendance record.
func (s *AttendanceService) DeleteAttendance(ctx context.Context, principal Principal, attendanceID string) error {
	if s == nil || s.attendance == nil {
		return fmt.Errorf("attendance service not configured")
	}

	logger := s.loggerWith(ctx, "DeleteAttendance",
		"principal_id", principal.AccountID,
		"attendance_id", attendanceID,
	)
	if err := s.attendance.DeleteAttendance(ctx, attendanceID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete attendance", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "attendance deleted")
	return nil
}

// validateAttendanceInput validates the input and returns the canonical
// session key.
func validateAttendanceInput(input AttendanceInput) (string, *ValidationError) {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	if input.ClassID == "" {
		vErr.add("class_id", "class is required")
	}

	var session string
	instant, err := schedule.ParseEntry(strings.TrimSpace(input.Session))
	if err != nil {
		vErr.add("session", "session must be a valid timestamp")
	} else {
		session = schedule.NormalizeInstant(instant)
	}

	switch normalizeAttendanceStatus(input.Status) {
	case "scheduled", "present", "absent":
	default:
		vErr.add("status", "status must be scheduled, present, or absent")
	}
	return session, vErr
}

func normalizeAttendanceStatus(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "scheduled"
	}
	return trimmed
}
