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

type attendanceService interface {
	CreateAttendance(ctx context.Context, params application.CreateAttendanceParams) (persistence.Attendance, error)
	UpdateAttendance(ctx context.Context, params application.UpdateAttendanceParams) (persistence.Attendance, error)
	GetAttendance(ctx context.Context, principal application.Principal, attendanceID string) (persistence.Attendance, error)
	ListAttendance(ctx context.Context, principal application.Principal, classID, clientID string) ([]persistence.Attendance, error)
	DeleteAttendance(ctx context.Context, principal application.Principal, attendanceID string) error
}

type AttendanceHandler struct {
	service   attendanceService
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	record, err := h.service.CreateAttendance(r.Context(), application.CreateAttendanceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("attendance_id", record.ID).InfoContext(r.Context(), "attendance recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, attendanceResponse{Attendance: toAttendanceDTO(record)})
}

func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendanceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendanceID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing attendance id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "attendance_id", attendanceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendance update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "attendance_id", attendanceID)

	record, err := h.service.UpdateAttendance(r.Context(), application.UpdateAttendanceParams{
		Principal:    principal,
		AttendanceID: attendanceID,
		Input:        req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendance updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceResponse{Attendance: toAttendanceDTO(record)})
}

func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendanceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendanceID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing attendance id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "attendance_id", attendanceID)

	record, err := h.service.GetAttendance(r.Context(), principal, attendanceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceResponse{Attendance: toAttendanceDTO(record)})
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	classID := strings.TrimSpace(r.URL.Query().Get("class_id"))
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	records, err := h.service.ListAttendance(r.Context(), principal, classID, clientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(records)).InfoContext(r.Context(), "attendance listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{Attendance: toAttendanceDTOs(records)})
}

func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendanceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendanceID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing attendance id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "attendance_id", attendanceID)

	if err := h.service.DeleteAttendance(r.Context(), principal, attendanceID); err != nil {
		logger.ErrorContext(r.Context(), "attendance delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendance deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type attendanceRequest struct {
	ClientID string `json:"client_id"`
	ClassID  string `json:"class_id"`
	Session  string `json:"session"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (r attendanceRequest) toInput() application.AttendanceInput {
	return application.AttendanceInput{
		ClientID: strings.TrimSpace(r.ClientID),
		ClassID:  strings.TrimSpace(r.ClassID),
		Session:  strings.TrimSpace(r.Session),
		Status:   strings.TrimSpace(r.Status),
		Notes:    strings.TrimSpace(r.Notes),
	}
}

type attendanceResponse struct {
	Attendance attendanceDTO `json:"attendance"`
}

type listAttendanceResponse struct {
	Attendance []attendanceDTO `json:"attendance"`
}

type attendanceDTO struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	ClassID   string `json:"class_id"`
	Session   string `json:"session"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAttendanceDTO(record persistence.Attendance) attendanceDTO {
	return attendanceDTO{
		ID:        record.ID,
		ClientID:  record.ClientID,
		ClassID:   record.ClassID,
		Session:   record.Session,
		Status:    record.Status,
		Notes:     record.Notes,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAttendanceDTOs(records []persistence.Attendance) []attendanceDTO {
	if len(records) == 0 {
		return nil
	}
	out := make([]attendanceDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toAttendanceDTO(record))
	}
	return out
}
