package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bloggerhub/device-session-service/internal/http/middleware"
	"github.com/bloggerhub/device-session-service/internal/http/response"
	"github.com/bloggerhub/device-session-service/internal/observability"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

type AuthHandler struct {
	verifier   *service.CredentialVerifier
	manager    *service.SessionManager
	users      repository.UserRepository
	cookieCfg  security.CookieConfig
	refreshTTL time.Duration
}

func NewAuthHandler(verifier *service.CredentialVerifier, manager *service.SessionManager, users repository.UserRepository, cookieCfg security.CookieConfig, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		verifier:   verifier,
		manager:    manager,
		users:      users,
		cookieCfg:  cookieCfg,
		refreshTTL: refreshTTL,
	}
}

type loginRequest struct {
	LoginOrEmail string `json:"loginOrEmail"`
	Password     string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LoginOrEmail == "" || req.Password == "" {
		observability.RecordLogin("bad_request")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "loginOrEmail and password are required")
		return
	}

	user, err := h.verifier.Verify(req.LoginOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			observability.RecordLogin("unauthorized")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		observability.RecordLogin("error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	pair, err := h.manager.Login(user.ID, deviceLabel(r), r.RemoteAddr)
	if err != nil {
		observability.RecordLogin("error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	observability.RecordLogin("success")
	observability.Audit(r, "auth.login", "user_id", user.ID)
	security.SetRefreshCookie(w, pair.RefreshToken, h.refreshTTL, h.cookieCfg)
	response.JSON(w, r, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.RefreshCookieName)
	if raw == "" {
		observability.RecordRefresh("unauthorized")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token")
		return
	}

	pair, err := h.manager.Refresh(raw)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			observability.RecordRefresh("unauthorized")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid refresh token")
			return
		}
		observability.RecordRefresh("error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "refresh failed")
		return
	}

	observability.RecordRefresh("success")
	security.SetRefreshCookie(w, pair.RefreshToken, h.refreshTTL, h.cookieCfg)
	response.JSON(w, r, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.RefreshCookieName)
	if raw == "" {
		observability.RecordLogout("unauthorized")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token")
		return
	}

	if err := h.manager.Logout(raw); err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			observability.RecordLogout("unauthorized")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid refresh token")
			return
		}
		observability.RecordLogout("error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed")
		return
	}

	observability.RecordLogout("success")
	observability.Audit(r, "auth.logout")
	security.ClearRefreshCookie(w, h.cookieCfg)
	response.NoContent(w)
}

type meResponse struct {
	UserID string `json:"userId"`
	Login  string `json:"login"`
	Email  string `json:"email"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
		return
	}
	user, err := h.users.FindByID(claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed")
		return
	}
	response.JSON(w, r, http.StatusOK, meResponse{UserID: user.ID, Login: user.Login, Email: user.Email})
}

func deviceLabel(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return "unknown device"
}
