package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
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
	"github.com/bloggerhub/device-session-service/internal/http/router"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

const testPassword = "Valid#Pass1234"

func newSessionTestServer(t *testing.T) (string, func()) {
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

	hash, err := security.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := repository.NewUserRepository(db)
	for _, u := range []domain.User{
		{ID: "user-alice", Login: "alice", Email: "alice@example.com", PasswordHash: hash},
		{ID: "user-bob", Login: "bob", Email: "bob@example.com", PasswordHash: hash},
	} {
		u := u
		if err := users.Create(&u); err != nil {
			t.Fatalf("seed user %s: %v", u.Login, err)
		}
	}

	codec := security.NewTokenCodec(
		"test-issuer",
		"test-audience",
		"integration-access-secret-0123456",
		"integration-refresh-secret-012345",
	)
	sessions := repository.NewSessionRepository(db)
	manager := service.NewSessionManager(codec, sessions, "integration-pepper", 15*time.Minute, 24*time.Hour)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(service.NewCredentialVerifier(users), manager, users, security.DefaultCookieConfig(), 24*time.Hour),
		SecurityHandler:     handler.NewSecurityHandler(manager),
		TokenCodec:          codec,
		SessionManager:      manager,
		LoginRateLimitRPM:   1000,
		RefreshRateLimitRPM: 1000,
	})

	srv := httptest.NewServer(h)
	return srv.URL, srv.Close
}

// device holds the credentials one login handed out.
type device struct {
	userAgent   string
	accessToken string
	refresh     *http.Cookie
}

func loginDevice(t *testing.T, baseURL, login, userAgent string) device {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"loginOrEmail": login, "password": testPassword})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("login %s: status=%d body=%s", userAgent, resp.StatusCode, raw)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	d := device{userAgent: userAgent, accessToken: payload.AccessToken}
	for _, c := range resp.Cookies() {
		if c.Name == security.RefreshCookieName {
			d.refresh = c
		}
	}
	if d.refresh == nil || d.refresh.Value == "" {
		t.Fatalf("login %s: missing refresh cookie", userAgent)
	}
	return d
}

func do(t *testing.T, method, url string, cookies []*http.Cookie) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

type deviceView struct {
	DeviceID       string `json:"deviceId"`
	IP             string `json:"ip"`
	Title          string `json:"title"`
	LastActiveDate string `json:"lastActiveDate"`
}

func listDevices(t *testing.T, baseURL string, d device) []deviceView {
	t.Helper()
	resp, raw := do(t, http.MethodGet, baseURL+"/security/devices", []*http.Cookie{d.refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list devices: status=%d body=%s", resp.StatusCode, raw)
	}
	var views []deviceView
	if err := json.Unmarshal(raw, &views); err != nil {
		t.Fatalf("decode devices: %v", err)
	}
	return views
}
