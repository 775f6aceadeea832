package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipfeed/backend/internal/auth"
	"github.com/clipfeed/backend/internal/models"
)

func postJSON(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
}

func TestAuthHandlerRegister(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	req := postJSON(t, "/api/register", registerRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersafe",
	})
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected an access token to be issued")
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.TokenType)
	}
	if resp.User.Username != "alice" {
		t.Fatalf("expected username alice, got %q", resp.User.Username)
	}

	claims, err := manager.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != auth.RoleUser {
		t.Fatalf("expected user-role token, got %q", claims.Role)
	}

	stored, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		request registerRequest
		wantMsg string
	}{
		{
			name:    "missing username",
			request: registerRequest{Email: "a@example.com", Password: "supersafe"},
			wantMsg: "username, email, and password are required",
		},
		{
			name:    "invalid email",
			request: registerRequest{Username: "alice", Email: "not-an-email", Password: "supersafe"},
			wantMsg: "invalid email address",
		},
		{
			name:    "short password",
			request: registerRequest{Username: "alice", Email: "a@example.com", Password: "short"},
			wantMsg: "password must be at least 8 characters",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryUserStore()
			guard, manager := newTestAccess(store)
			handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

			rec := httptest.NewRecorder()
			handler.Register(rec, postJSON(t, "/api/register", tc.request))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["error"] != tc.wantMsg {
				t.Fatalf("expected error %q, got %q", tc.wantMsg, resp["error"])
			}
		})
	}
}

func TestAuthHandlerRegisterDuplicates(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	store.users["user-1"] = models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	}

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON(t, "/api/register", registerRequest{
		Username: "someone-else",
		Email:    "alice@example.com",
		Password: "supersafe",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "email already registered" {
		t.Fatalf("unexpected error %q", resp["error"])
	}

	rec = httptest.NewRecorder()
	handler.Register(rec, postJSON(t, "/api/register", registerRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "supersafe",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	resp = nil
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "username already taken" {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["user-1"] = models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashed),
	}

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/login", loginRequest{
		Email:    "Alice@Example.com",
		Password: "password123",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := manager.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != auth.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["user-1"] = models.User{ID: "user-1", Email: "alice@example.com", Password: string(hashed)}

	for _, req := range []loginRequest{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password123"},
	} {
		rec := httptest.NewRecorder()
		handler.Login(rec, postJSON(t, "/api/login", req))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
		}
		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["error"] != "incorrect email or password" {
			t.Fatalf("unexpected error %q", resp["error"])
		}
	}
}

func TestAuthHandlerLoginBannedAccount(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["user-1"] = models.User{
		ID:        "user-1",
		Email:     "alice@example.com",
		Password:  string(hashed),
		IsBanned:  true,
		BanReason: "Uploaded inappropriate content",
	}

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/login", loginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "account banned: Uploaded inappropriate content" {
		t.Fatalf("expected the stored ban reason to surface, got %q", resp["error"])
	}
}

func TestAuthHandlerAdminLogin(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	rec := httptest.NewRecorder()
	handler.AdminLogin(rec, postJSON(t, "/api/admin/login", adminLoginRequest{
		Username: "admin",
		Password: "admin-pass",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp adminTokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Admin {
		t.Fatal("expected admin flag in response")
	}
	claims, err := manager.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != auth.RoleAdmin || claims.Subject != auth.AdminSubject {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthHandlerAdminLoginWrongCredentials(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard}

	rec := httptest.NewRecorder()
	handler.AdminLogin(rec, postJSON(t, "/api/admin/login", adminLoginRequest{
		Username: "admin",
		Password: "guess",
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "invalid admin credentials" {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestAuthHandlerRateLimited(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	handler := AuthHandler{Users: store, Tokens: manager, Access: guard, Limiter: blockedLimiter{}}

	endpoints := []struct {
		name string
		call func(http.ResponseWriter, *http.Request)
	}{
		{name: "register", call: handler.Register},
		{name: "login", call: handler.Login},
		{name: "admin login", call: handler.AdminLogin},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ep.call(rec, postJSON(t, "/api", struct{}{}))
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
			}
		})
	}
}

func TestAuthHandlerRegisterUsesNowFunc(t *testing.T) {
	store := newMemoryUserStore()
	guard, manager := newTestAccess(store)
	created := time.Date(2025, time.March, 2, 9, 30, 0, 0, time.UTC)
	handler := AuthHandler{
		Users:   store,
		Tokens:  manager,
		Access:  guard,
		NowFunc: func() time.Time { return created },
	}

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON(t, "/api/register", registerRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersafe",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	stored, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if !stored.CreatedAt.Equal(created) {
		t.Fatalf("expected CreatedAt %v, got %v", created, stored.CreatedAt)
	}
}
