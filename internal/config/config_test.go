package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("REFRESH_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz654321")
	t.Setenv("ACCESS_TOKEN_TTL", "10s")
	t.Setenv("REFRESH_TOKEN_TTL", "20h")
	t.Setenv("DATABASE_URL", "file::memory:?cache=shared")
}

func TestLoadWithRequiredEnv(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != 10*time.Second {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 20*time.Hour {
		t.Fatalf("unexpected refresh ttl %v", cfg.RefreshTokenTTL)
	}
	if cfg.ServerAddr == "" {
		t.Fatal("expected default server addr")
	}
}

func TestLoadFailsWithoutSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ACCESS_TOKEN_SECRET") {
		t.Fatalf("expected missing-secret error, got %v", err)
	}
}

func TestLoadFailsWithEqualSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected distinct-secret error, got %v", err)
	}
}

func TestLoadFailsWithoutTTLs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_TOKEN_TTL", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "REFRESH_TOKEN_TTL") {
		t.Fatalf("expected missing-ttl error, got %v", err)
	}
}

func TestLoadFailsOnMalformedDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse ACCESS_TOKEN_TTL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestClassifyConfigLoadError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: errors.New("validate config: DATABASE_URL is required"), want: "validation"},
		{name: "parse", err: errors.New("parse ACCESS_TOKEN_TTL: invalid duration"), want: "parse"},
		{name: "other", err: errors.New("some other load error"), want: "load"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeConfigProfile(t *testing.T) {
	if got := normalizeConfigProfile("  ProD  "); got != "prod" {
		t.Fatalf("expected prod, got %q", got)
	}
	if got := normalizeConfigProfile("   "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
