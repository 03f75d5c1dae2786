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
	"github.com/example/studio-manager/internal/schedule"
)

type classService interface {
	CreateClass(ctx context.Context, params application.CreateClassParams) (persistence.Class, error)
	UpdateClass(ctx context.Context, params application.UpdateClassParams) (persistence.Class, error)
	GetClass(ctx context.Context, principal application.Principal, classID string) (persistence.Class, error)
	ListClasses(ctx context.Context, principal application.Principal) ([]persistence.Class, error)
	DeleteClass(ctx context.Context, principal application.Principal, classID string) error
	CheckSessionConflicts(ctx context.Context, principal application.Principal, classID string) (map[string]bool, error)
}

type ClassHandler struct {
	service   classService
	responder responder
	logger    *slog.Logger
}

func NewClassHandler(service classService, logger *slog.Logger) *ClassHandler {
	base := defaultLogger(logger)
	return &ClassHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ClassHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClassHandler", operation, attrs...)
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode class request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	class, err := h.service.CreateClass(r.Context(), application.CreateClassParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "class creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("class_id", class.ID, "session_count", len(class.Sessions)).InfoContext(r.Context(), "class created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, classResponse{Class: toClassDTO(class)})
}

func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(classID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing class id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "class_id", classID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode class update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "class_id", classID)

	class, err := h.service.UpdateClass(r.Context(), application.UpdateClassParams{
		Principal: principal,
		ClassID:   classID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "class update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "class updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classResponse{Class: toClassDTO(class)})
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(classID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing class id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "class_id", classID)

	class, err := h.service.GetClass(r.Context(), principal, classID)
	if err != nil {
		logger.ErrorContext(r.Context(), "class fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, classResponse{Class: toClassDTO(class)})
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	classes, err := h.service.ListClasses(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "class list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(classes)).InfoContext(r.Context(), "classes listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClassesResponse{Classes: toClassDTOs(classes)})
}

func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(classID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing class id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "class_id", classID)

	if err := h.service.DeleteClass(r.Context(), principal, classID); err != nil {
		logger.ErrorContext(r.Context(), "class delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "class deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Conflicts probes room availability for every session of the class and
// reports the per-session outcome.
func (h *ClassHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(classID) == "" {
		h.log(r.Context(), "Conflicts", "error_kind", "bad_request").ErrorContext(r.Context(), "missing class id for conflict check")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Conflicts", "principal_id", principal.AccountID, "class_id", classID)

	conflicts, err := h.service.CheckSessionConflicts(r.Context(), principal, classID)
	if err != nil {
		logger.ErrorContext(r.Context(), "class conflict check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_count", len(conflicts)).InfoContext(r.Context(), "class conflicts checked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classConflictsResponse{Conflicts: conflicts})
}

type classRequest struct {
	Name          string             `json:"name"`
	Instructor    string             `json:"instructor"`
	RoomID        *string            `json:"room_id"`
	SessionLength int                `json:"session_length"`
	Fee           int64              `json:"fee"`
	Sessions      []string           `json:"sessions"`
	Recurrence    *recurrenceRequest `json:"recurrence"`
	Grid          *gridRequest       `json:"grid"`
}

type recurrenceRequest struct {
	Weekdays  []int  `json:"weekdays"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TimeOfDay string `json:"time_of_day"`
}

type gridRequest struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	FirstStart    string `json:"first_start"`
	LastStart     string `json:"last_start"`
	SessionLength int    `json:"session_length"`
}

func (r classRequest) toInput() application.ClassInput {
	var roomID *string
	if r.RoomID != nil {
		trimmed := strings.TrimSpace(*r.RoomID)
		if trimmed != "" {
			roomID = &trimmed
		}
	}

	input := application.ClassInput{
		Name:          strings.TrimSpace(r.Name),
		Instructor:    strings.TrimSpace(r.Instructor),
		RoomID:        roomID,
		SessionLength: r.SessionLength,
		Fee:           r.Fee,
		Sessions:      r.Sessions,
	}
	if r.Recurrence != nil {
		weekdays := make([]time.Weekday, 0, len(r.Recurrence.Weekdays))
		for _, day := range r.Recurrence.Weekdays {
			weekdays = append(weekdays, time.Weekday(day))
		}
		input.Recurrence = &schedule.RecurrenceSpec{
			Weekdays:  weekdays,
			StartDate: r.Recurrence.StartDate,
			EndDate:   r.Recurrence.EndDate,
			TimeOfDay: r.Recurrence.TimeOfDay,
		}
	}
	if r.Grid != nil {
		input.Grid = &schedule.GridSpec{
			StartDate:     r.Grid.StartDate,
			EndDate:       r.Grid.EndDate,
			FirstStart:    r.Grid.FirstStart,
			LastStart:     r.Grid.LastStart,
			SessionLength: r.Grid.SessionLength,
		}
	}
	return input
}

type classResponse struct {
	Class classDTO `json:"class"`
}

type listClassesResponse struct {
	Classes []classDTO `json:"classes"`
}

type classConflictsResponse struct {
	Conflicts map[string]bool `json:"conflicts"`
}

type classDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Instructor    string   `json:"instructor,omitempty"`
	RoomID        *string  `json:"room_id,omitempty"`
	SessionLength int      `json:"session_length"`
	Fee           int64    `json:"fee"`
	Sessions      []string `json:"sessions"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toClassDTO(class persistence.Class) classDTO {
	return classDTO{
		ID:            class.ID,
		Name:          class.Name,
		Instructor:    class.Instructor,
		RoomID:        class.RoomID,
		SessionLength: class.SessionLength,
		Fee:           class.Fee,
		Sessions:      class.Sessions,
		CreatedAt:     class.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     class.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toClassDTOs(classes []persistence.Class) []classDTO {
	if len(classes) == 0 {
		return nil
	}
	out := make([]classDTO, 0, len(classes))
	for _, class := range classes {
		out = append(out, toClassDTO(class))
	}
	return out
}
