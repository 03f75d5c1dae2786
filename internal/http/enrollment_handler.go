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

type enrollmentService interface {
	CreateEnrollment(ctx context.Context, params application.CreateEnrollmentParams) (persistence.Enrollment, error)
	UpdateEnrollment(ctx context.Context, params application.UpdateEnrollmentParams) (persistence.Enrollment, error)
	GetEnrollment(ctx context.Context, principal application.Principal, enrollmentID string) (persistence.Enrollment, error)
	ListEnrollments(ctx context.Context, principal application.Principal, classID, clientID string) ([]persistence.Enrollment, error)
	DeleteEnrollment(ctx context.Context, principal application.Principal, enrollmentID string) error
}

type EnrollmentHandler struct {
	service   enrollmentService
	responder responder
	logger    *slog.Logger
}

func NewEnrollmentHandler(service enrollmentService, logger *slog.Logger) *EnrollmentHandler {
	base := defaultLogger(logger)
	return &EnrollmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EnrollmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EnrollmentHandler", operation, attrs...)
}

func (h *EnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req enrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode enrollment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	enrollment, err := h.service.CreateEnrollment(r.Context(), application.CreateEnrollmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("enrollment_id", enrollment.ID).InfoContext(r.Context(), "enrollment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, enrollmentResponse{Enrollment: toEnrollmentDTO(enrollment)})
}

func (h *EnrollmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	enrollmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(enrollmentID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing enrollment id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req enrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "enrollment_id", enrollmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode enrollment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "enrollment_id", enrollmentID)

	enrollment, err := h.service.UpdateEnrollment(r.Context(), application.UpdateEnrollmentParams{
		Principal:    principal,
		EnrollmentID: enrollmentID,
		Input:        req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "enrollment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, enrollmentResponse{Enrollment: toEnrollmentDTO(enrollment)})
}

func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	enrollmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(enrollmentID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing enrollment id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "enrollment_id", enrollmentID)

	enrollment, err := h.service.GetEnrollment(r.Context(), principal, enrollmentID)
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, enrollmentResponse{Enrollment: toEnrollmentDTO(enrollment)})
}

func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	classID := strings.TrimSpace(r.URL.Query().Get("class_id"))
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	enrollments, err := h.service.ListEnrollments(r.Context(), principal, classID, clientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "enrollment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(enrollments)).InfoContext(r.Context(), "enrollments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEnrollmentsResponse{Enrollments: toEnrollmentDTOs(enrollments)})
}

func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	enrollmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(enrollmentID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing enrollment id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "enrollment_id", enrollmentID)

	if err := h.service.DeleteEnrollment(r.Context(), principal, enrollmentID); err != nil {
		logger.ErrorContext(r.Context(), "enrollment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "enrollment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type enrollmentRequest struct {
	ClientID string `json:"client_id"`
	ClassID  string `json:"class_id"`
	Status   string `json:"status"`
}

func (r enrollmentRequest) toInput() application.EnrollmentInput {
	return application.EnrollmentInput{
		ClientID: strings.TrimSpace(r.ClientID),
		ClassID:  strings.TrimSpace(r.ClassID),
		Status:   strings.TrimSpace(r.Status),
	}
}

type enrollmentResponse struct {
	Enrollment enrollmentDTO `json:"enrollment"`
}

type listEnrollmentsResponse struct {
	Enrollments []enrollmentDTO `json:"enrollments"`
}

type enrollmentDTO struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	ClassID   string `json:"class_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toEnrollmentDTO(enrollment persistence.Enrollment) enrollmentDTO {
	return enrollmentDTO{
		ID:        enrollment.ID,
		ClientID:  enrollment.ClientID,
		ClassID:   enrollment.ClassID,
		Status:    enrollment.Status,
		CreatedAt: enrollment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: enrollment.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEnrollmentDTOs(enrollments []persistence.Enrollment) []enrollmentDTO {
	if len(enrollments) == 0 {
		return nil
	}
	out := make([]enrollmentDTO, 0, len(enrollments))
	for _, enrollment := range enrollments {
		out = append(out, toEnrollmentDTO(enrollment))
	}
	return out
}
