package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bloggerhub/device-session-service/internal/http/handler"
	"github.com/bloggerhub/device-session-service/internal/http/middleware"
	"github.com/bloggerhub/device-session-service/internal/http/response"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	SecurityHandler *handler.SecurityHandler
	TokenCodec      *security.TokenCodec
	SessionManager  *service.SessionManager

	LoginRateLimiter    func(http.Handler) http.Handler
	RefreshRateLimiter  func(http.Handler) http.Handler
	LoginRateLimitRPM   int
	RefreshRateLimitRPM int

	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)

	loginLimiter := dep.LoginRateLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewRateLimiter(middleware.NewLocalWindowLimiter(), dep.LoginRateLimitRPM, time.Minute, "login").Middleware()
	}
	refreshLimiter := dep.RefreshRateLimiter
	if refreshLimiter == nil {
		refreshLimiter = middleware.NewRateLimiter(middleware.NewLocalWindowLimiter(), dep.RefreshRateLimitRPM, time.Minute, "refresh").Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
		r.With(refreshLimiter).Post("/refresh-token", dep.AuthHandler.RefreshToken)
		r.Post("/logout", dep.AuthHandler.Logout)
		r.With(middleware.AccessGuard(dep.TokenCodec)).Get("/me", dep.AuthHandler.Me)
	})

	r.Route("/security", func(r chi.Router) {
		r.Use(middleware.SessionGuard(dep.SessionManager))
		r.Get("/devices", dep.SecurityHandler.ListDevices)
		r.Delete("/devices", dep.SecurityHandler.RevokeOtherDevices)
		r.Delete("/devices/{deviceId}", dep.SecurityHandler.RevokeDevice)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
