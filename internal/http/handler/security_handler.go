package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bloggerhub/device-session-service/internal/http/middleware"
	"github.com/bloggerhub/device-session-service/internal/http/response"
	"github.com/bloggerhub/device-session-service/internal/observability"
	"github.com/bloggerhub/device-session-service/internal/service"
)

// SecurityHandler serves the device-management surface. Every route behind it
// runs under the session guard, so a Principal is always in context.
type SecurityHandler struct {
	manager *service.SessionManager
}

func NewSecurityHandler(manager *service.SessionManager) *SecurityHandler {
	return &SecurityHandler{manager: manager}
}

func (h *SecurityHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	devices, err := h.manager.ListDevices(principal.UserID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "device listing failed")
		return
	}
	response.JSON(w, r, http.StatusOK, devices)
}

func (h *SecurityHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	deviceID := chi.URLParam(r, "deviceId")

	err := h.manager.RevokeDevice(principal.UserID, deviceID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		observability.RecordDeviceRevocation("single", "not_found")
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "no such device")
		return
	case errors.Is(err, service.ErrForbidden):
		observability.RecordDeviceRevocation("single", "forbidden")
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "device belongs to another user")
		return
	case err != nil:
		observability.RecordDeviceRevocation("single", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "revoke failed")
		return
	}

	observability.RecordDeviceRevocation("single", "success")
	observability.Audit(r, "security.device.revoked", "user_id", principal.UserID, "device_id", deviceID)
	response.NoContent(w)
}

func (h *SecurityHandler) RevokeOtherDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	count, err := h.manager.RevokeOthers(principal.UserID, principal.SessionID)
	if err != nil {
		observability.RecordDeviceRevocation("others", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "revoke failed")
		return
	}
	observability.RecordDeviceRevocation("others", "success")
	observability.Audit(r, "security.devices.revoked_others", "user_id", principal.UserID, "count", count)
	response.NoContent(w)
}
