package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bloggerhub/device-session-service/internal/domain"
	"github.com/bloggerhub/device-session-service/internal/http/handler"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Session{}, &domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hash, err := security.HashPassword("Valid#Pass1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := repository.NewUserRepository(db)
	if err := users.Create(&domain.User{
		ID:           "u1",
		Login:        "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	codec := security.NewTokenCodec(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
		"abcdefghijklmnopqrstuvwxyz654321",
	)
	sessions := repository.NewSessionRepository(db)
	manager := service.NewSessionManager(codec, sessions, "pepper", 15*time.Minute, 24*time.Hour)
	verifier := service.NewCredentialVerifier(users)
	cookieCfg := security.DefaultCookieConfig()

	return NewRouter(Dependencies{
		AuthHandler:         handler.NewAuthHandler(verifier, manager, users, cookieCfg, 24*time.Hour),
		SecurityHandler:     handler.NewSecurityHandler(manager),
		TokenCodec:          codec,
		SessionManager:      manager,
		LoginRateLimitRPM:   100,
		RefreshRateLimitRPM: 100,
	})
}

func TestRouterHealthLive(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterProtectedRoutesRequireCredentials(t *testing.T) {
	h := newTestRouter(t)
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/refresh-token"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/security/devices"},
		{http.MethodDelete, "/security/devices"},
		{http.MethodDelete, "/security/devices/some-id"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestRouterLoginFlow(t *testing.T) {
	h := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"loginOrEmail": "alice",
		"password":     "Valid#Pass1234",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("User-Agent", "Chrome on Linux")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var loginResp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.AccessToken == "" {
		t.Fatal("expected access token")
	}

	var refreshCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.RefreshCookieName {
			refreshCookie = c
		}
	}
	if refreshCookie == nil || refreshCookie.Value == "" {
		t.Fatal("expected refresh cookie")
	}
	if !refreshCookie.HttpOnly {
		t.Fatal("refresh cookie must be http-only")
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rr.Code)
	}
	var me struct {
		UserID string `json:"userId"`
		Login  string `json:"login"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.UserID != "u1" || me.Login != "alice" {
		t.Fatalf("unexpected identity %+v", me)
	}
}

func TestRouterLoginRejectsBadPassword(t *testing.T) {
	h := newTestRouter(t)
	body, _ := json.Marshal(map[string]string{
		"loginOrEmail": "alice",
		"password":     "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRouterLoginRateLimit(t *testing.T) {
	dsn := "file:rate_limit_router?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Session{}, &domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	codec := security.NewTokenCodec("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456", "abcdefghijklmnopqrstuvwxyz654321")
	manager := service.NewSessionManager(codec, sessions, "pepper", 15*time.Minute, 24*time.Hour)
	h := NewRouter(Dependencies{
		AuthHandler:         handler.NewAuthHandler(service.NewCredentialVerifier(users), manager, users, security.DefaultCookieConfig(), 24*time.Hour),
		SecurityHandler:     handler.NewSecurityHandler(manager),
		TokenCodec:          codec,
		SessionManager:      manager,
		LoginRateLimitRPM:   2,
		RefreshRateLimitRPM: 2,
	})

	body := []byte(`{"loginOrEmail":"ghost","password":"nope"}`)
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		req.RemoteAddr = "10.9.8.7:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third login attempt, got %d", last)
	}
}
