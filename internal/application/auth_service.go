package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates staff registration, login, and session validation.
type AuthService struct {
	accounts       persistence.AccountRepository
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	hashPassword   func(password string) (string, error)
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(accounts persistence.AccountRepository, sessions persistence.SessionRepository, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:       accounts,
		sessions:       sessions,
		verifyPassword: VerifyPassword,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a new staff account. Only administrators may register
// accounts once one exists; the very first account becomes an admin.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (account persistence.Account, err error) {
	if s == nil || s.accounts == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	username := strings.ToLower(strings.TrimSpace(params.Username))
	logger := s.loggerWith(ctx, "Register", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("account_id", account.ID).InfoContext(ctx, "account registered")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	}
	if len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	role := strings.ToLower(strings.TrimSpace(params.Role))
	if role == "" {
		role = "staff"
	}
	switch role {
	case "staff", "admin":
	default:
		vErr.add("role", "role must be staff or admin")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	account = persistence.Account{
		ID:           s.idGenerator(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.accounts.CreateAccount(ctx, account); err != nil {
		err = mapRepoError(err)
		account = persistence.Account{}
		return
	}
	account.PasswordHash = ""
	return
}

// Login validates credentials and issues a new session token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil || s.accounts == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	username := strings.ToLower(strings.TrimSpace(params.Username))
	logger := s.loggerWith(ctx, "Login", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("account_id", result.AccountID).InfoContext(ctx, "login succeeded")
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var account persistence.Account
	account, err = s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = mapRepoError(err)
		return
	}

	if err = s.verifyPassword(account.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		err = mapRepoError(err)
		return
	}

	session := persistence.Session{
		ID:        s.idGenerator(),
		AccountID: account.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if session.Token == "" {
		session.Token = session.ID
	}

	if err = s.sessions.CreateSession(ctx, session); err != nil {
		err = mapRepoError(err)
		return
	}

	result = LoginResult{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
	return
}

// Logout revokes the session for the given token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "Logout")
	if err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the token corresponds to an active session
// and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil || s.sessions == nil || s.accounts == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrUnauthorized
			return
		}
		err = mapRepoError(err)
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var account persistence.Account
	account, err = s.accounts.GetAccount(ctx, session.AccountID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrUnauthorized
			return
		}
		err = mapRepoError(err)
		return
	}

	principal = Principal{AccountID: account.ID, IsAdmin: account.Role == "admin"}
	return
}
