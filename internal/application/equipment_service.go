package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// EquipmentService orchestrates validation, authorization, and persistence
// for rentable equipment lines.
type EquipmentService struct {
	equipment   persistence.EquipmentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEquipmentService constructs an equipment service with the provided dependencies.
func NewEquipmentService(equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EquipmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EquipmentService{equipment: equipment, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EquipmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EquipmentService", operation, attrs...)
}

// CreateEquipment validates input and persists a new equipment line for administrators.
func (s *EquipmentService) CreateEquipment(ctx context.Context, params CreateEquipmentParams) (item persistence.Equipment, err error) {
	if s == nil || s.equipment == nil {
		err = fmt.Errorf("equipment service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEquipment", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create equipment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("equipment_id", item.ID).InfoContext(ctx, "equipment created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateEquipmentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	item = persistence.Equipment{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Category:  strings.TrimSpace(params.Input.Category),
		Quantity:  params.Input.Quantity,
		DailyRate: params.Input.DailyRate,
		Condition: strings.TrimSpace(params.Input.Condition),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.equipment.CreateEquipment(ctx, item); err != nil {
		err = mapRepoError(err)
		item = persistence.Equipment{}
		return
	}
	return
}

// UpdateEquipment validates input and updates an existing equipment line for administrators.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, params UpdateEquipmentParams) (item persistence.Equipment, err error) {
	if s == nil || s.equipment == nil {
		err = fmt.Errorf("equipment service not configured")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "UpdateEquipment",
		"principal_id", params.Principal.AccountID,
		"equipment_id", params.EquipmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update equipment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "equipment updated")
	}()

	var existing persistence.Equipment
	existing, err = s.equipment.GetEquipment(ctx, params.EquipmentID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateEquipmentInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	item = existing
	item.Name = strings.TrimSpace(params.Input.Name)
	item.Category = strings.TrimSpace(params.Input.Category)
	item.Quantity = params.Input.Quantity
	item.DailyRate = params.Input.DailyRate
	item.Condition = strings.TrimSpace(params.Input.Condition)
	item.UpdatedAt = s.now()

	if err = s.equipment.UpdateEquipment(ctx, item); err != nil {
		err = mapRepoError(err)
		item = persistence.Equipment{}
		return
	}
	return
}

// GetEquipment retrieves a single equipment line.
func (s *EquipmentService) GetEquipment(ctx context.Context, principal Principal, equipmentID string) (persistence.Equipment, error) {
	if s == nil || s.equipment == nil {
		return persistence.Equipment{}, fmt.Errorf("equipment service not configured")
	}
	item, err := s.equipment.GetEquipment(ctx, equipmentID)
	if err != nil {
		return persistence.Equipment{}, mapRepoError(err)
	}
	return item, nil
}

// ListEquipment returns the equipment catalog ordered by name.
func (s *EquipmentService) ListEquipment(ctx context.Context, principal Principal) ([]persistence.Equipment, error) {
	if s == nil || s.equipment == nil {
		return nil, fmt.Errorf("equipment service not configured")
	}
	items, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.Slice(items, func(i, j int) bool {
		if strings.EqualFold(items[i].Name, items[j].Name) {
			return items[i].ID < items[j].ID
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// DeleteEquipment removes an equipment line when requested by an administrator.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, principal Principal, equipmentID string) error {
	if s == nil || s.equipment == nil {
		return fmt.Errorf("equipment service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteEquipment",
		"principal_id", principal.AccountID,
		"equipment_id", equipmentID,
	)
	if err := s.equipment.DeleteEquipment(ctx, equipmentID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete equipment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "equipment deleted")
	return nil
}

func validateEquipmentInput(input EquipmentInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Quantity < 0 {
		vErr.add("quantity", "quantity must not be negative")
	}
	if input.DailyRate < 0 {
		vErr.add("daily_rate", "daily rate must not be negative")
	}
	return vErr
}
