package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
	"github.com/example/studio-manager/internal/schedule"
)

// ClassService orchestrates validation, authorization, and persistence for
// class offerings. Session sets are built with the schedule builder so that
// stored schedules are always canonical.
type ClassService struct {
	classes     persistence.ClassRepository
	oracle      schedule.AvailabilityOracle
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClassService constructs a class service with the provided dependencies.
// The oracle may be nil; conflict checks then mark every session conflicted.
func NewClassService(classes persistence.ClassRepository, oracle schedule.AvailabilityOracle, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClassService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClassService{classes: classes, oracle: oracle, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ClassService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClassService", operation, attrs...)
}

// CreateClass validates input, expands any recurrence or grid specification
// into the session set, and persists the class.
func (s *ClassService) CreateClass(ctx context.Context, params CreateClassParams) (class persistence.Class, err error) {
	if s == nil || s.classes == nil {
		err = fmt.Errorf("class service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateClass", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create class", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("class_id", class.ID, "session_count", len(class.Sessions)).InfoContext(ctx, "class created")
	}()

	sessions, vErr := buildSessionSet(params.Input)
	vErr.addAll(validateClassInput(params.Input).FieldErrors)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	class = persistence.Class{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(params.Input.Name),
		Instructor:    strings.TrimSpace(params.Input.Instructor),
		RoomID:        params.Input.RoomID,
		SessionLength: normalizeSessionLength(params.Input.SessionLength),
		Fee:           params.Input.Fee,
		Sessions:      sessions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.classes.CreateClass(ctx, class); err != nil {
		err = mapRepoError(err)
		class = persistence.Class{}
		return
	}
	return
}

// UpdateClass validates input and replaces an existing class, rebuilding the
// session set from the provided input.
func (s *ClassService) UpdateClass(ctx context.Context, params UpdateClassParams) (class persistence.Class, err error) {
	if s == nil || s.classes == nil {
		err = fmt.Errorf("class service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateClass",
		"principal_id", params.Principal.AccountID,
		"class_id", params.ClassID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update class", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_count", len(class.Sessions)).InfoContext(ctx, "class updated")
	}()

	var existing persistence.Class
	existing, err = s.classes.GetClass(ctx, params.ClassID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	sessions, vErr := buildSessionSet(params.Input)
	vErr.addAll(validateClassInput(params.Input).FieldErrors)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	class = existing
	class.Name = strings.TrimSpace(params.Input.Name)
	class.Instructor = strings.TrimSpace(params.Input.Instructor)
	class.RoomID = params.Input.RoomID
	class.SessionLength = normalizeSessionLength(params.Input.SessionLength)
	class.Fee = params.Input.Fee
	class.Sessions = sessions
	class.UpdatedAt = s.now()

	if err = s.classes.UpdateClass(ctx, class); err != nil {
		err = mapRepoError(err)
		class = persistence.Class{}
		return
	}
	return
}

// GetClass retrieves a single class with its session set.
func (s *ClassService) GetClass(ctx context.Context, principal Principal, classID string) (persistence.Class, error) {
	if s == nil || s.classes == nil {
		return persistence.Class{}, fmt.Errorf("class service not configured")
	}
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return persistence.Class{}, mapRepoError(err)
	}
	return class, nil
}

// ListClasses returns all classes ordered by name.
func (s *ClassService) ListClasses(ctx context.Context, principal Principal) ([]persistence.Class, error) {
	if s == nil || s.classes == nil {
		return nil, fmt.Errorf("class service not configured")
	}
	classes, err := s.classes.ListClasses(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.Slice(classes, func(i, j int) bool {
		if strings.EqualFold(classes[i].Name, classes[j].Name) {
			return classes[i].ID < classes[j].ID
		}
		return strings.ToLower(classes[i].Name) < strings.ToLower(classes[j].Name)
	})
	return classes, nil
}

// DeleteClass removes a class when requested by an administrator.
func (s *ClassService) DeleteClass(ctx context.Context, principal Principal, classID string) error {
	if s == nil || s.classes == nil {
		return fmt.Errorf("class service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteClass",
		"principal_id", principal.AccountID,
		"class_id", classID,
	)
	if err := s.classes.DeleteClass(ctx, classID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete class", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "class deleted")
	return nil
}

// CheckSessionConflicts probes the class room for each session window and
// returns the per-session conflict map. Without an assigned room there is
// nothing to check.
func (s *ClassService) CheckSessionConflicts(ctx context.Context, principal Principal, classID string) (map[string]bool, error) {
	if s == nil || s.classes == nil {
		return nil, fmt.Errorf("class service not configured")
	}

	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if class.RoomID == nil || *class.RoomID == "" {
		return map[string]bool{}, nil
	}

	builder := schedule.NewBuilder(class.Sessions, s.oracle, nil)
	conflicts := builder.CheckConflicts(ctx, *class.RoomID, class.SessionLength)

	s.loggerWith(ctx, "CheckSessionConflicts",
		"principal_id", principal.AccountID,
		"class_id", classID,
	).With("session_count", len(conflicts)).InfoContext(ctx, "session conflicts checked")

	return conflicts, nil
}

// buildSessionSet canonicalizes explicit sessions and expands recurrence and
// grid specifications through the schedule builder. Invalid specifications
// surface as field errors instead of silently generating nothing.
func buildSessionSet(input ClassInput) ([]string, *ValidationError) {
	vErr := &ValidationError{}
	if input.Recurrence != nil {
		for field, msg := range input.Recurrence.Validate() {
			vErr.add("recurrence."+field, msg)
		}
	}
	if input.Grid != nil {
		for field, msg := range input.Grid.Validate() {
			vErr.add("grid."+field, msg)
		}
	}

	builder := schedule.NewBuilder(input.Sessions, nil, nil)
	if input.Recurrence != nil {
		builder.GenerateWeekly(*input.Recurrence)
	}
	if input.Grid != nil {
		builder.GenerateGrid(*input.Grid)
	}
	return builder.Entries(), vErr
}

func validateClassInput(input ClassInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.SessionLength < 0 {
		vErr.add("session_length", "session length must not be negative")
	}
	if input.Fee < 0 {
		vErr.add("fee", "fee must not be negative")
	}
	return vErr
}

func normalizeSessionLength(minutes int) int {
	if minutes <= 0 {
		return schedule.DefaultSessionLength
	}
	return minutes
}
