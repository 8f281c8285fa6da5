package app

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/bloggerhub/device-session-service/internal/config"
	"github.com/bloggerhub/device-session-service/internal/http/handler"
	"github.com/bloggerhub/device-session-service/internal/http/middleware"
	"github.com/bloggerhub/device-session-service/internal/http/router"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

func provideDatabase(cfg *config.Config) (*gorm.DB, error) {
	return repository.OpenDatabase(cfg.DatabaseURL)
}

// provideRedisClient returns nil when no Redis address is configured; the
// router falls back to in-process rate limiting in that case.
func provideRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func provideTokenCodec(cfg *config.Config) *security.TokenCodec {
	return security.NewTokenCodec(cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
}

func provideCookieConfig(cfg *config.Config) security.CookieConfig {
	cookieCfg := security.DefaultCookieConfig()
	cookieCfg.Secure = cfg.CookieSecure
	return cookieCfg
}

func provideSessionManager(cfg *config.Config, codec *security.TokenCodec, sessions repository.SessionRepository) *service.SessionManager {
	return service.NewSessionManager(codec, sessions, cfg.FingerprintPepper, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

func provideAuthHandler(cfg *config.Config, verifier *service.CredentialVerifier, manager *service.SessionManager, users repository.UserRepository, cookieCfg security.CookieConfig) *handler.AuthHandler {
	return handler.NewAuthHandler(verifier, manager, users, cookieCfg, cfg.RefreshTokenTTL)
}

func provideRouter(cfg *config.Config, authHandler *handler.AuthHandler, securityHandler *handler.SecurityHandler, codec *security.TokenCodec, manager *service.SessionManager, redisClient *redis.Client) http.Handler {
	dep := router.Dependencies{
		AuthHandler:         authHandler,
		SecurityHandler:     securityHandler,
		TokenCodec:          codec,
		SessionManager:      manager,
		LoginRateLimitRPM:   cfg.LoginRateLimitRPM,
		RefreshRateLimitRPM: cfg.RefreshRateLimitRPM,
		EnableOTelHTTP:      cfg.OTELTracingEnabled,
	}
	if redisClient != nil {
		dep.LoginRateLimiter = middleware.NewRateLimiter(
			middleware.NewRedisWindowLimiter(redisClient, "rl_login"),
			cfg.LoginRateLimitRPM, time.Minute, "login",
		).Middleware()
		dep.RefreshRateLimiter = middleware.NewRateLimiter(
			middleware.NewRedisWindowLimiter(redisClient, "rl_refresh"),
			cfg.RefreshRateLimitRPM, time.Minute, "refresh",
		).Middleware()
	}
	return router.NewRouter(dep)
}

func provideServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
