package controllers

import (
	"net/http"

	"github.com/dmagan/asadmindset-admin/api/middleware"
	"github.com/dmagan/asadmindset-admin/api/responses"
	"github.com/dmagan/asadmindset-admin/api/validators"
	"github.com/dmagan/asadmindset-admin/internal/push"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
)

type registerDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform"`
}

// PushRegister records a device token for the caller. A token previously
// owned by another user is reassigned.
func PushRegister(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "push service unavailable"))
			return
		}

		var payload registerDeviceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		token, err := svc.Register(r.Context(), userID, payload.Token, payload.Platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":       token.ID,
			"platform": token.Platform.String(),
		})
	}
}

type unregisterDeviceRequest struct {
	Token string `json:"token" validate:"required"`
}

// PushUnregister drops a device token; unknown tokens are a no-op.
func PushUnregister(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "push service unavailable"))
			return
		}

		var payload unregisterDeviceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.Unregister(r.Context(), userID, payload.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
