package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment. Both token
// secrets and both TTLs are required: a session service without them cannot
// issue a single credential, so absence is a start-up failure.
type Config struct {
	Profile    string
	ServerAddr string

	DatabaseURL string
	RedisAddr   string

	JWTIssuer          string
	JWTAudience        string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	FingerprintPepper  string

	CookieSecure bool

	LoginRateLimitRPM   int
	RefreshRateLimitRPM int

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := load()
	profile := os.Getenv("APP_PROFILE")
	if err != nil {
		recordConfigValidationEvent(context.Background(), profile, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), profile, "success", "none")
	return cfg, nil
}

func load() (*Config, error) {
	accessTTL, err := getEnvDuration("ACCESS_TOKEN_TTL")
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getEnvDuration("REFRESH_TOKEN_TTL")
	if err != nil {
		return nil, err
	}
	metricsInterval, err := getEnvDurationDefault("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDurationDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Profile:    getEnv("APP_PROFILE", "dev"),
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		JWTIssuer:          getEnv("JWT_ISSUER", "device-session-service"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "bloggerhub"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		FingerprintPepper:  getEnv("FINGERPRINT_PEPPER", ""),

		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		LoginRateLimitRPM:   getEnvInt("LOGIN_RATE_LIMIT_RPM", 30),
		RefreshRateLimitRPM: getEnvInt("REFRESH_RATE_LIMIT_RPM", 60),

		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "device-session-service"),
		OTELEnvironment:           getEnv("OTEL_ENVIRONMENT", "dev"),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:        getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:           getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELMetricsExportInterval: metricsInterval,

		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.AccessTokenSecret == "":
		return fmt.Errorf("validate config: ACCESS_TOKEN_SECRET is required")
	case c.RefreshTokenSecret == "":
		return fmt.Errorf("validate config: REFRESH_TOKEN_SECRET is required")
	case c.AccessTokenSecret == c.RefreshTokenSecret:
		return fmt.Errorf("validate config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("validate config: ACCESS_TOKEN_TTL is required")
	case c.RefreshTokenTTL <= 0:
		return fmt.Errorf("validate config: REFRESH_TOKEN_TTL is required")
	case c.RefreshTokenTTL <= c.AccessTokenTTL:
		return fmt.Errorf("validate config: REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	case c.DatabaseURL == "":
		return fmt.Errorf("validate config: DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvDurationDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
