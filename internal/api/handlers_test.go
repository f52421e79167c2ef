package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paym/profile-service/internal/app"
	"github.com/paym/profile-service/internal/domain"
	"github.com/paym/profile-service/internal/store"
)

// stubRepo backs the handler tests with a couple of seeded profiles.
type stubRepo struct {
	profiles []*domain.Profile
	methods  map[uuid.UUID][]domain.PaymentMethod
	attempts []domain.PinAttempt
	payms    []*domain.Paym
}

func (s *stubRepo) FindProfileIDByClerkUserID(_ context.Context, clerkUserID string) (uuid.UUID, error) {
	for _, p := range s.profiles {
		if p.ClerkUserID == clerkUserID {
			return p.ID, nil
		}
	}
	return uuid.Nil, store.ErrProfileNotFound
}

func (s *stubRepo) FindProfileByUsername(_ context.Context, username string) (*domain.Profile, error) {
	needle := strings.ToLower(strings.TrimSpace(username))
	for _, p := range s.profiles {
		if strings.ToLower(p.Username) == needle {
			return p, nil
		}
	}
	return nil, store.ErrProfileNotFound
}

func (s *stubRepo) FindProfileByID(_ context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == profileID {
			return p, nil
		}
	}
	return nil, store.ErrProfileNotFound
}

func (s *stubRepo) ListActivePaymentMethods(_ context.Context, profileID uuid.UUID) ([]domain.PaymentMethod, error) {
	return s.methods[profileID], nil
}

func (s *stubRepo) InsertPinAttempt(_ context.Context, attempt *domain.PinAttempt) error {
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *stubRepo) ListPinAttempts(_ context.Context, profileID uuid.UUID, _ int) ([]domain.PinAttempt, error) {
	out := []domain.PinAttempt{}
	for _, a := range s.attempts {
		if a.ProfileID == profileID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) CreatePaym(_ context.Context, paym *domain.Paym) error {
	s.payms = append(s.payms, paym)
	return nil
}

func (s *stubRepo) FindPaymBySlug(_ context.Context, slug string) (*domain.Paym, error) {
	for _, p := range s.payms {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, store.ErrPaymNotFound
}

func (s *stubRepo) ListPaymsByProfile(_ context.Context, profileID uuid.UUID) ([]domain.Paym, error) {
	out := []domain.Paym{}
	for _, p := range s.payms {
		if p.ProfileID == profileID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) DeletePaym(_ context.Context, paymID uuid.UUID, profileID uuid.UUID) (bool, error) {
	for i, p := range s.payms {
		if p.ID == paymID && p.ProfileID == profileID {
			s.payms = append(s.payms[:i], s.payms[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) ExpireDuePayms(_ context.Context, now time.Time) ([]domain.Paym, error) {
	return nil, nil
}

const handlerTestSalt = "handler-test-salt"

// newTestServer seeds a protected profile "alice" (PIN AB12CD) and an open
// profile "bob", and returns the full router.
func newTestServer(t *testing.T) (*stubRepo, http.Handler) {
	t.Helper()

	aliceHash := app.HashPin("AB12CD", handlerTestSalt)
	alice := &domain.Profile{
		ID:          uuid.New(),
		ClerkUserID: "user_alice",
		Username:    "alice",
		DisplayName: "Alice",
		PinEnabled:  true,
		PinHash:     &aliceHash,
	}
	bob := &domain.Profile{
		ID:          uuid.New(),
		ClerkUserID: "user_bob",
		Username:    "bob",
		DisplayName: "Bob",
		PinEnabled:  false,
	}

	vpa := "alice@upi"
	repo := &stubRepo{
		profiles: []*domain.Profile{alice, bob},
		methods: map[uuid.UUID][]domain.PaymentMethod{
			alice.ID: {{ID: uuid.New(), ProfileID: alice.ID, Kind: domain.PaymentMethodKindUPI, Label: "UPI", VPA: &vpa, Active: true}},
			bob.ID:   {{ID: uuid.New(), ProfileID: bob.ID, Kind: domain.PaymentMethodKindBank, Label: "Salary account", Active: true}},
		},
	}

	service := app.NewService(repo, app.NewMemoryRateLimiter(5, time.Minute), nil, handlerTestSalt, "https://paym.test")
	handlers := NewProfileHandlers(service)
	return repo, ProfileRoutes(handlers, "")
}

func postVerifyPin(t *testing.T, router http.Handler, username, pin, clientIP string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(domain.VerifyPinRequest{Username: username, Pin: pin})
	req := httptest.NewRequest(http.MethodPost, "/profiles/verify-pin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", clientIP)
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVerifyPinHandlerSuccess(t *testing.T) {
	repo, router := newTestServer(t)

	rec := postVerifyPin(t, router, "alice", "AB12CD", "1.2.3.4")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success        bool                     `json:"success"`
		PinRequired    bool                     `json:"pinRequired"`
		PaymentMethods []map[string]interface{} `json:"paymentMethods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !resp.Success || !resp.PinRequired {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.PaymentMethods) != 1 {
		t.Fatalf("expected 1 payment method, got %d", len(resp.PaymentMethods))
	}
	if len(repo.attempts) != 1 || !repo.attempts[0].Success {
		t.Fatalf("expected one successful audit record, got %+v", repo.attempts)
	}
}

func TestVerifyPinHandlerOpenProfile(t *testing.T) {
	repo, router := newTestServer(t)

	rec := postVerifyPin(t, router, "bob", "AB12CD", "1.2.3.4")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		PinRequired bool `json:"pinRequired"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.PinRequired {
		t.Fatal("expected pinRequired=false for an open profile")
	}
	if len(repo.attempts) != 0 {
		t.Fatal("open profile access must not be audited")
	}
}

func TestVerifyPinHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		username string
		pin      string
		status   int
	}{
		{name: "invalid format", username: "alice", pin: "ab12cd", status: http.StatusBadRequest},
		{name: "unknown profile", username: "unknown_user", pin: "AB12CD", status: http.StatusNotFound},
		{name: "wrong pin", username: "alice", pin: "ZZ99ZZ", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newTestServer(t)
			rec := postVerifyPin(t, router, tt.username, tt.pin, "1.2.3.4")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp["error"] == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestVerifyPinHandlerRateLimit(t *testing.T) {
	repo, router := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := postVerifyPin(t, router, "alice", "ZZ99ZZ", "1.2.3.4")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := postVerifyPin(t, router, "alice", "ZZ99ZZ", "1.2.3.4")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 6th attempt, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
	if len(repo.attempts) != 5 {
		t.Fatalf("expected exactly 5 audit records, got %d", len(repo.attempts))
	}
}

func TestVerifyPinHandlerMalformedBody(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/profiles/verify-pin", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProfileHandler(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/profiles/ALICE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var card domain.ProfileCard
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if card.Username != "alice" || !card.PinRequired {
		t.Fatalf("unexpected card %+v", card)
	}
	if strings.Contains(rec.Body.String(), "paymentMethods") {
		t.Fatal("public card must not leak payment methods")
	}

	req = httptest.NewRequest(http.MethodGet, "/profiles/ghost", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", rec.Code)
	}
}

func TestGetPaymHandler(t *testing.T) {
	repo, router := newTestServer(t)
	profileID := repo.profiles[0].ID

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	repo.payms = []*domain.Paym{
		{ID: uuid.New(), ProfileID: profileID, Slug: "livepaym01", AmountPaise: 5000, Status: domain.PaymStatusActive, ExpiresAt: &future},
		{ID: uuid.New(), ProfileID: profileID, Slug: "deadpaym01", AmountPaise: 5000, Status: domain.PaymStatusActive, ExpiresAt: &past},
	}

	req := httptest.NewRequest(http.MethodGet, "/payms/livepaym01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for live paym, got %d", rec.Code)
	}
	var view domain.PaymView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if view.Creator.Username != "alice" {
		t.Fatalf("expected creator card, got %+v", view.Creator)
	}

	req = httptest.NewRequest(http.MethodGet, "/payms/deadpaym01", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for expired paym, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/payms/missing123", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown paym, got %d", rec.Code)
	}
}

func TestOwnerRoutesRequireAuth(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/me/payms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{name: "forwarded single", xff: "203.0.113.7", remote: "10.0.0.1:9999", want: "203.0.113.7"},
		{name: "forwarded chain takes first", xff: "203.0.113.7, 10.0.0.2", remote: "10.0.0.1:9999", want: "203.0.113.7"},
		{name: "real ip fallback", xri: "198.51.100.4", remote: "10.0.0.1:9999", want: "198.51.100.4"},
		{name: "remote addr fallback", remote: "192.0.2.9:1234", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIPFromRequest(req); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
