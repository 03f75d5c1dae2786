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

// ClientService orchestrates validation, authorization, and persistence for
// studio clients.
type ClientService struct {
	clients     persistence.ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClientService constructs a client service with the provided dependencies.
func NewClientService(clients persistence.ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ClientService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClientService", operation, attrs...)
}

// CreateClient validates input and persists a new client.
func (s *ClientService) CreateClient(ctx context.Context, params CreateClientParams) (client persistence.Client, err error) {
	if s == nil || s.clients == nil {
		err = fmt.Errorf("client service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateClient", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("client_id", client.ID).InfoContext(ctx, "client created")
	}()

	vErr := validateClientInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	client = persistence.Client{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Type:      normalizeClientType(params.Input.Type),
		Email:     strings.TrimSpace(params.Input.Email),
		Phone:     strings.TrimSpace(params.Input.Phone),
		Notes:     strings.TrimSpace(params.Input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.clients.CreateClient(ctx, client); err != nil {
		err = mapRepoError(err)
		client = persistence.Client{}
		return
	}
	return
}

// UpdateClient validates input and updates an existing client.
func (s *ClientService) UpdateClient(ctx context.Context, params UpdateClientParams) (client persistence.Client, err error) {
	if s == nil || s.clients == nil {
		err = fmt.Errorf("client service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateClient",
		"principal_id", params.Principal.AccountID,
		"client_id", params.ClientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "client updated")
	}()

	var existing persistence.Client
	existing, err = s.clients.GetClient(ctx, params.ClientID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateClientInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	client = existing
	client.Name = strings.TrimSpace(params.Input.Name)
	client.Type = normalizeClientType(params.Input.Type)
	client.Email = strings.TrimSpace(params.Input.Email)
	client.Phone = strings.TrimSpace(params.Input.Phone)
	client.Notes = strings.TrimSpace(params.Input.Notes)
	client.UpdatedAt = s.now()

	if err = s.clients.UpdateClient(ctx, client); err != nil {
		err = mapRepoError(err)
		client = persistence.Client{}
		return
	}
	return
}

// GetClient retrieves a single client.
func (s *ClientService) GetClient(ctx context.Context, principal Principal, clientID string) (persistence.Client, error) {
	if s == nil || s.clients == nil {
		return persistence.Client{}, fmt.Errorf("client service not configured")
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return persistence.Client{}, mapRepoError(err)
	}
	return client, nil
}

// ListClients returns all clients ordered by name.
func (s *ClientService) ListClients(ctx context.Context, principal Principal) ([]persistence.Client, error) {
	if s == nil || s.clients == nil {
		return nil, fmt.Errorf("client service not configured")
	}
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.Slice(clients, func(i, j int) bool {
		if strings.EqualFold(clients[i].Name, clients[j].Name) {
			return clients[i].ID < clients[j].ID
		}
		return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name)
	})
	return clients, nil
}

// DeleteClient removes a client. Admin only; deleting cascades to the
// client's bookings and enrollments.
func (s *ClientService) DeleteClient(ctx context.Context, principal Principal, clientID string) error {
	if s == nil || s.clients == nil {
		return fmt.Errorf("client service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteClient",
		"principal_id", principal.AccountID,
		"client_id", clientID,
	)
	if err := s.clients.DeleteClient(ctx, clientID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete client", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "client deleted")
	return nil
}

func validateClientInput(input ClientInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch normalizeClientType(input.Type) {
	case "individual", "company":
	default:
		vErr.add("type", "type must be individual or company")
	}
	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		vErr.add("email", "email is invalid")
	}
	return vErr
}

func normalizeClientType(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "individual"
	}
	return trimmed
}
