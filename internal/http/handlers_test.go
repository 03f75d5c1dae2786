package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/studio-manager/internal/application"
	"github.com/example/studio-manager/internal/persistence"
)

type authServiceStub struct {
	loginResult application.LoginResult
	loginErr    error
	logoutErr   error
	registered  []application.RegisterParams
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (persistence.Account, error) {
	s.registered = append(s.registered, params)
	return persistence.Account{ID: "account-1", Username: params.Username, Role: params.Role}, nil
}

func (s *authServiceStub) Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error) {
	if s.loginErr != nil {
		return application.LoginResult{}, s.loginErr
	}
	return s.loginResult, nil
}

func (s *authServiceStub) Logout(ctx context.Context, token string) error {
	return s.logoutErr
}

type clientServiceStub struct {
	client    persistence.Client
	clients   []persistence.Client
	err       error
	lastInput application.ClientInput
	deletedID string
}

func (s *clientServiceStub) CreateClient(ctx context.Context, params application.CreateClientParams) (persistence.Client, error) {
	s.lastInput = params.Input
	return s.client, s.err
}

func (s *clientServiceStub) UpdateClient(ctx context.Context, params application.UpdateClientParams) (persistence.Client, error) {
	s.lastInput = params.Input
	return s.client, s.err
}

func (s *clientServiceStub) GetClient(ctx context.Context, principal application.Principal, clientID string) (persistence.Client, error) {
	return s.client, s.err
}

func (s *clientServiceStub) ListClients(ctx context.Context, principal application.Principal) ([]persistence.Client, error) {
	return s.clients, s.err
}

func (s *clientServiceStub) DeleteClient(ctx context.Context, principal application.Principal, clientID string) error {
	s.deletedID = clientID
	return s.err
}

type bookingServiceStub struct {
	booking    persistence.Booking
	bookings   []persistence.Booking
	available  bool
	err        error
	lastQuery  application.AvailabilityQuery
	returnedID string
	cancelled  string
}

func (s *bookingServiceStub) CreateBooking(ctx context.Context, params application.CreateBookingParams) (persistence.Booking, error) {
	return s.booking, s.err
}

func (s *bookingServiceStub) UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (persistence.Booking, error) {
	return s.booking, s.err
}

func (s *bookingServiceStub) GetBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error) {
	return s.booking, s.err
}

func (s *bookingServiceStub) ListBookings(ctx context.Context, params application.ListBookingsParams) ([]persistence.Booking, error) {
	return s.bookings, s.err
}

func (s *bookingServiceStub) CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error) {
	s.cancelled = bookingID
	return s.booking, s.err
}

func (s *bookingServiceStub) ReturnEquipment(ctx context.Context, principal application.Principal, bookingID string) (persistence.Booking, error) {
	s.returnedID = bookingID
	return s.booking, s.err
}

func (s *bookingServiceStub) DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error {
	return s.err
}

func (s *bookingServiceStub) CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (bool, error) {
	s.lastQuery = query
	return s.available, s.err
}

type classServiceStub struct {
	class     persistence.Class
	classes   []persistence.Class
	conflicts map[string]bool
	err       error
	checkedID string
}

func (s *classServiceStub) CreateClass(ctx context.Context, params application.CreateClassParams) (persistence.Class, error) {
	return s.class, s.err
}

func (s *classServiceStub) UpdateClass(ctx context.Context, params application.UpdateClassParams) (persistence.Class, error) {
	return s.class, s.err
}

func (s *classServiceStub) GetClass(ctx context.Context, principal application.Principal, classID string) (persistence.Class, error) {
	return s.class, s.err
}

func (s *classServiceStub) ListClasses(ctx context.Context, principal application.Principal) ([]persistence.Class, error) {
	return s.classes, s.err
}

func (s *classServiceStub) DeleteClass(ctx context.Context, principal application.Principal, classID string) error {
	return s.err
}

func (s *classServiceStub) CheckSessionConflicts(ctx context.Context, principal application.Principal, classID string) (map[string]bool, error) {
	s.checkedID = classID
	return s.conflicts, s.err
}

func TestLoginSetsSessionTokenArtifacts(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	auth := &authServiceStub{loginResult: application.LoginResult{
		AccountID: "account-1",
		Username:  "miki",
		Role:      "admin",
		Token:     "token-abc",
		ExpiresAt: expires,
	}}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(auth, nil)})

	body := strings.NewReader(`{"username":"Miki","password":"secret-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("X-Session-Token"); got != "token-abc" {
		t.Fatalf("expected session token header, got %q", got)
	}

	var foundCookie bool
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value == "token-abc" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatal("expected session_token cookie to be set")
	}

	var resp loginResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token != "token-abc" || resp.Username != "miki" || resp.Role != "admin" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	if resp.ExpiresAt != expires.Format(time.RFC3339Nano) {
		t.Fatalf("expected expiry %s, got %s", expires.Format(time.RFC3339Nano), resp.ExpiresAt)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	auth := &authServiceStub{loginErr: application.ErrInvalidCredentials}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(auth, nil)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"miki","password":"wrong"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error code %q", resp.ErrorCode)
	}
}

func TestClientHandlersRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	service := &clientServiceStub{
		client: persistence.Client{ID: "client-1", Name: "Acme Audio", Type: "company", CreatedAt: now, UpdatedAt: now},
		clients: []persistence.Client{
			{ID: "client-1", Name: "Acme Audio", Type: "company", CreatedAt: now, UpdatedAt: now},
			{ID: "client-2", Name: "Beta Band", Type: "individual", CreatedAt: now, UpdatedAt: now},
		},
	}
	router := NewRouter(RouterConfig{Clients: NewClientHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"  Acme Audio ","type":"company"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.lastInput.Name != "Acme Audio" {
		t.Fatalf("expected trimmed name, got %q", service.lastInput.Name)
	}

	var created clientResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode client response: %v", err)
	}
	if created.Client.ID != "client-1" || created.Client.CreatedAt != now.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected client payload: %+v", created.Client)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/clients", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var listed listClientsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listed.Clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(listed.Clients))
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/clients/client-2", nil))
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recorder.Code)
	}
	if service.deletedID != "client-2" {
		t.Fatalf("expected path id to reach service, got %q", service.deletedID)
	}
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	t.Parallel()

	validation := &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "forbidden", err: application.ErrUnauthorized, expectedStatus: http.StatusForbidden},
		{name: "not found", err: application.ErrNotFound, expectedStatus: http.StatusNotFound},
		{name: "conflict", err: application.ErrConflict, expectedStatus: http.StatusConflict},
		{name: "validation", err: validation, expectedStatus: http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service := &clientServiceStub{err: tc.err}
			router := NewRouter(RouterConfig{Clients: NewClientHandler(service, nil)})

			req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"x"}`))
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedStatus, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestValidationErrorsExposeFieldMap(t *testing.T) {
	t.Parallel()

	validation := &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}
	service := &clientServiceStub{err: validation}
	router := NewRouter(RouterConfig{Clients: NewClientHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var resp errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Errors["name"] != "name is required" {
		t.Fatalf("expected field error for name, got %+v", resp.Errors)
	}
}

func TestBookingAvailabilityEndpoint(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{available: true}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	target := "/bookings/availability?service_type=room&resource_id=room-1&start=2025-03-01T10:00:00Z&end=2025-03-01T11:00:00Z"
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp availabilityResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode availability response: %v", err)
	}
	if !resp.Available {
		t.Fatal("expected available true")
	}
	if service.lastQuery.ServiceType != "room" || service.lastQuery.ResourceID != "room-1" {
		t.Fatalf("unexpected query forwarded: %+v", service.lastQuery)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/bookings/availability?service_type=room", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for partial query, got %d", recorder.Code)
	}
}

func TestBookingActionRoutes(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{booking: persistence.Booking{ID: "booking-9", ServiceType: "equipment", Status: "active"}}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/booking-9/return", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.returnedID != "booking-9" {
		t.Fatalf("expected return to reach service with id, got %q", service.returnedID)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/booking-9/cancel", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if service.cancelled != "booking-9" {
		t.Fatalf("expected cancel to reach service with id, got %q", service.cancelled)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/bookings/booking-9/return", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 for GET on return action, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/booking-9/unknown", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown action, got %d", recorder.Code)
	}
}

func TestClassConflictsEndpoint(t *testing.T) {
	t.Parallel()

	service := &classServiceStub{conflicts: map[string]bool{
		"2025-03-03T10:00:00Z": true,
		"2025-03-10T10:00:00Z": false,
	}}
	router := NewRouter(RouterConfig{Classes: NewClassHandler(service, nil)})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/classes/class-7/conflicts", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.checkedID != "class-7" {
		t.Fatalf("expected class id to reach service, got %q", service.checkedID)
	}

	var resp classConflictsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode conflicts response: %v", err)
	}
	if !resp.Conflicts["2025-03-03T10:00:00Z"] || resp.Conflicts["2025-03-10T10:00:00Z"] {
		t.Fatalf("unexpected conflict map: %+v", resp.Conflicts)
	}
}

func TestMethodNotAllowedCarriesAllowHeader(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Clients: NewClientHandler(&clientServiceStub{}, nil)})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/clients", nil))

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) || !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("expected Allow header with GET and POST, got %q", allow)
	}
}
