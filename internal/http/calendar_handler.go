package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/application"
	"github.com/example/studio-manager/internal/persistence"
)

type calendarService interface {
	Sync(ctx context.Context) error
	Events(ctx context.Context, from, to *time.Time) ([]persistence.CalendarEvent, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

// Events lists materialized calendar entries, optionally restricted to a
// window via from/to query parameters.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var from, to *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("from must be RFC3339"))
			return
		}
		from = &parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("to must be RFC3339"))
			return
		}
		to = &parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Events", "principal_id", principal.AccountID)

	events, err := h.service.Events(r.Context(), from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar event list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(events)).InfoContext(r.Context(), "calendar events listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCalendarEventsResponse{Events: toCalendarEventDTOs(events)})
}

// Sync rebuilds the materialized calendar on demand, outside the periodic
// schedule.
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Sync", "principal_id", principal.AccountID)

	if err := h.service.Sync(r.Context()); err != nil {
		logger.ErrorContext(r.Context(), "calendar sync failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar synchronized")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type listCalendarEventsResponse struct {
	Events []calendarEventDTO `json:"events"`
}

type calendarEventDTO struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	SourceID  string  `json:"source_id"`
	Title     string  `json:"title"`
	RoomID    *string `json:"room_id,omitempty"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	UpdatedAt string  `json:"updated_at"`
}

func toCalendarEventDTOs(events []persistence.CalendarEvent) []calendarEventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]calendarEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, calendarEventDTO{
			ID:        event.ID,
			Kind:      event.Kind,
			SourceID:  event.SourceID,
			Title:     event.Title,
			RoomID:    event.RoomID,
			Start:     event.Start.UTC().Format(time.RFC3339Nano),
			End:       event.End.UTC().Format(time.RFC3339Nano),
			UpdatedAt: event.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
