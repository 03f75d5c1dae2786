package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/application"
	"github.com/example/studio-manager/internal/persistence"
)

type equipmentService interface {
	CreateEquipment(ctx context.Context, params application.CreateEquipmentParams) (persistence.Equipment, error)
	UpdateEquipment(ctx context.Context, params application.UpdateEquipmentParams) (persistence.Equipment, error)
	GetEquipment(ctx context.Context, principal application.Principal, equipmentID string) (persistence.Equipment, error)
	ListEquipment(ctx context.Context, principal application.Principal) ([]persistence.Equipment, error)
	DeleteEquipment(ctx context.Context, principal application.Principal, equipmentID string) error
}

type EquipmentHandler struct {
	service   equipmentService
	responder responder
	logger    *slog.Logger
}

func NewEquipmentHandler(service equipmentService, logger *slog.Logger) *EquipmentHandler {
	base := defaultLogger(logger)
	return &EquipmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EquipmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EquipmentHandler", operation, attrs...)
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode equipment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	item, err := h.service.CreateEquipment(r.Context(), application.CreateEquipmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "equipment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("equipment_id", item.ID).InfoContext(r.Context(), "equipment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing equipment id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "equipment_id", equipmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode equipment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "equipment_id", equipmentID)

	item, err := h.service.UpdateEquipment(r.Context(), application.UpdateEquipmentParams{
		Principal:   principal,
		EquipmentID: equipmentID,
		Input:       req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "equipment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "equipment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing equipment id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "equipment_id", equipmentID)

	item, err := h.service.GetEquipment(r.Context(), principal, equipmentID)
	if err != nil {
		logger.ErrorContext(r.Context(), "equipment fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(item)})
}

func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	items, err := h.service.ListEquipment(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "equipment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(items)).InfoContext(r.Context(), "equipment listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: toEquipmentDTOs(items)})
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	equipmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(equipmentID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing equipment id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "equipment_id", equipmentID)

	if err := h.service.DeleteEquipment(r.Context(), principal, equipmentID); err != nil {
		logger.ErrorContext(r.Context(), "equipment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "equipment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type equipmentRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	DailyRate int64  `json:"daily_rate"`
	Condition string `json:"condition"`
}

func (r equipmentRequest) toInput() application.EquipmentInput {
	return application.EquipmentInput{
		Name:      strings.TrimSpace(r.Name),
		Category:  strings.TrimSpace(r.Category),
		Quantity:  r.Quantity,
		DailyRate: r.DailyRate,
		Condition: strings.TrimSpace(r.Condition),
	}
}

type equipmentResponse struct {
	Equipment equipmentDTO `json:"equipment"`
}

type listEquipmentResponse struct {
	Equipment []equipmentDTO `json:"equipment"`
}

type equipmentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity"`
	DailyRate int64  `json:"daily_rate"`
	Condition string `json:"condition,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toEquipmentDTO(item persistence.Equipment) equipmentDTO {
	return equipmentDTO{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		Quantity:  item.Quantity,
		DailyRate: item.DailyRate,
		Condition: item.Condition,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEquipmentDTOs(items []persistence.Equipment) []equipmentDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]equipmentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toEquipmentDTO(item))
	}
	return out
}
