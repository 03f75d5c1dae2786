package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

type accountRepoStub struct {
	accounts map[string]persistence.Account
}

func newAccountRepoStub() *accountRepoStub {
	return &accountRepoStub{accounts: make(map[string]persistence.Account)}
}

func (s *accountRepoStub) CreateAccount(ctx context.Context, account persistence.Account) error {
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return persistence.ErrDuplicate
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *accountRepoStub) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return persistence.Account{}, persistence.ErrNotFound
	}
	return account, nil
}

func (s *accountRepoStub) GetAccountByUsername(ctx context.Context, username string) (persistence.Account, error) {
	for _, account := range s.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return persistence.Account{}, persistence.ErrNotFound
}

func (s *accountRepoStub) UpdateAccount(ctx context.Context, account persistence.Account) error {
	if _, ok := s.accounts[account.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.accounts[account.ID] = account
	return nil
}

type sessionRepoStub struct {
	sessions map[string]persistence.Session
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]persistence.Session)}
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session persistence.Session) error {
	s.sessions[session.Token] = session
	return nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	session, ok := s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func newTestAuthService(accounts *accountRepoStub, sessions *sessionRepoStub, now time.Time) *AuthService {
	service := NewAuthService(accounts, sessions, fixedIDs("id"), fixedIDs("tok"), fixedClock(now), time.Hour, nil)
	// Plain comparison keeps the tests fast; argon2 is covered separately.
	service.hashPassword = func(password string) (string, error) { return "hashed:" + password, nil }
	service.verifyPassword = func(hashed, password string) error {
		if hashed == "hashed:"+password {
			return nil
		}
		return ErrInvalidCredentials
	}
	return service
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	accounts := newAccountRepoStub()
	sessions := newSessionRepoStub()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	service := newTestAuthService(accounts, sessions, now)

	account, err := service.Register(context.Background(), RegisterParams{
		Principal: Principal{AccountID: "root", IsAdmin: true},
		Username:  "Staff.One",
		Password:  "correct horse",
		Role:      "staff",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if account.Username != "staff.one" {
		t.Errorf("expected lowercased username, got %q", account.Username)
	}
	if account.PasswordHash != "" {
		t.Error("expected password hash to be cleared from the result")
	}

	result, err := service.Login(context.Background(), LoginParams{Username: "staff.one", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a session token")
	}
	if !result.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", now.Add(time.Hour), result.ExpiresAt)
	}
}

func TestAuthService_Register_RequiresAdmin(t *testing.T) {
	service := newTestAuthService(newAccountRepoStub(), newSessionRepoStub(), time.Now())

	_, err := service.Register(context.Background(), RegisterParams{
		Principal: Principal{AccountID: "staff1"},
		Username:  "intruder",
		Password:  "long enough",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	accounts := newAccountRepoStub()
	sessions := newSessionRepoStub()
	service := newTestAuthService(accounts, sessions, time.Now())

	accounts.accounts["acct1"] = persistence.Account{
		ID:           "acct1",
		Username:     "staff.one",
		PasswordHash: "hashed:secret123",
		Role:         "staff",
	}

	_, err := service.Login(context.Background(), LoginParams{Username: "staff.one", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Unknown accounts report the same error as bad passwords.
	_, err = service.Login(context.Background(), LoginParams{Username: "nobody", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	accounts := newAccountRepoStub()
	sessions := newSessionRepoStub()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	service := newTestAuthService(accounts, sessions, now)

	accounts.accounts["acct1"] = persistence.Account{ID: "acct1", Username: "admin", Role: "admin"}
	sessions.sessions["tok-live"] = persistence.Session{
		ID: "s1", AccountID: "acct1", Token: "tok-live", ExpiresAt: now.Add(time.Hour),
	}
	revokedAt := now.Add(-time.Minute)
	sessions.sessions["tok-revoked"] = persistence.Session{
		ID: "s2", AccountID: "acct1", Token: "tok-revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt,
	}
	sessions.sessions["tok-expired"] = persistence.Session{
		ID: "s3", AccountID: "acct1", Token: "tok-expired", ExpiresAt: now.Add(-time.Minute),
	}

	principal, err := service.ValidateSession(context.Background(), "tok-live")
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if principal.AccountID != "acct1" || !principal.IsAdmin {
		t.Errorf("unexpected principal %+v", principal)
	}

	if _, err := service.ValidateSession(context.Background(), "tok-revoked"); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("expected ErrSessionRevoked, got %v", err)
	}
	if _, err := service.ValidateSession(context.Background(), "tok-expired"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := service.ValidateSession(context.Background(), "tok-missing"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	sessions := newSessionRepoStub()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	service := newTestAuthService(newAccountRepoStub(), sessions, now)

	sessions.sessions["tok1"] = persistence.Session{ID: "s1", AccountID: "acct1", Token: "tok1", ExpiresAt: now.Add(time.Hour)}

	if err := service.Logout(context.Background(), "tok1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if sessions.sessions["tok1"].RevokedAt == nil {
		t.Error("expected session to be revoked")
	}
	if err := service.Logout(context.Background(), "tok1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials on repeated logout, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreatePasswordHash("opensesame", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if err := VerifyPassword(hash, "opensesame"); err != nil {
		t.Errorf("expected matching password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if err := VerifyPassword("not a hash", "opensesame"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Errorf("expected ErrInvalidPasswordHash, got %v", err)
	}
}
