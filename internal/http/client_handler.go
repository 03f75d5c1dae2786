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

type clientService interface {
	CreateClient(ctx context.Context, params application.CreateClientParams) (persistence.Client, error)
	UpdateClient(ctx context.Context, params application.UpdateClientParams) (persistence.Client, error)
	GetClient(ctx context.Context, principal application.Principal, clientID string) (persistence.Client, error)
	ListClients(ctx context.Context, principal application.Principal) ([]persistence.Client, error)
	DeleteClient(ctx context.Context, principal application.Principal, clientID string) error
}

type ClientHandler struct {
	service   clientService
	responder responder
	logger    *slog.Logger
}

func NewClientHandler(service clientService, logger *slog.Logger) *ClientHandler {
	base := defaultLogger(logger)
	return &ClientHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ClientHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClientHandler", operation, attrs...)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.AccountID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode client request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.AccountID)

	client, err := h.service.CreateClient(r.Context(), application.CreateClientParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "client creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("client_id", client.ID).InfoContext(r.Context(), "client created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, clientResponse{Client: toClientDTO(client)})
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(clientID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing client id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.AccountID, "client_id", clientID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode client update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.AccountID, "client_id", clientID)

	client, err := h.service.UpdateClient(r.Context(), application.UpdateClientParams{
		Principal: principal,
		ClientID:  clientID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "client update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "client updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clientResponse{Client: toClientDTO(client)})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(clientID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing client id for get")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.AccountID, "client_id", clientID)

	client, err := h.service.GetClient(r.Context(), principal, clientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "client fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, clientResponse{Client: toClientDTO(client)})
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.AccountID)

	clients, err := h.service.ListClients(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "client list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(clients)).InfoContext(r.Context(), "clients listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClientsResponse{Clients: toClientDTOs(clients)})
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(clientID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing client id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.AccountID, "client_id", clientID)

	if err := h.service.DeleteClient(r.Context(), principal, clientID); err != nil {
		logger.ErrorContext(r.Context(), "client delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "client deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type clientRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func (r clientRequest) toInput() application.ClientInput {
	return application.ClientInput{
		Name:  strings.TrimSpace(r.Name),
		Type:  strings.TrimSpace(r.Type),
		Email: strings.TrimSpace(r.Email),
		Phone: strings.TrimSpace(r.Phone),
		Notes: strings.TrimSpace(r.Notes),
	}
}

type clientResponse struct {
	Client clientDTO `json:"client"`
}

type listClientsResponse struct {
	Clients []clientDTO `json:"clients"`
}

type clientDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toClientDTO(client persistence.Client) clientDTO {
	return clientDTO{
		ID:        client.ID,
		Name:      client.Name,
		Type:      client.Type,
		Email:     client.Email,
		Phone:     client.Phone,
		Notes:     client.Notes,
		CreatedAt: client.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: client.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toClientDTOs(clients []persistence.Client) []clientDTO {
	if len(clients) == 0 {
		return nil
	}
	out := make([]clientDTO, 0, len(clients))
	for _, client := range clients {
		out = append(out, toClientDTO(client))
	}
	return out
}
