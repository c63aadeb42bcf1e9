// Package api exposes the device-token registration surface the mobile app
// calls. The fan-out engine itself never writes tokens; this is the
// collaborator that creates them and refreshes lastUsed.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/devmantra/tasker-push-service/pkg/push"
)

type TokenAPI struct {
	Registrar push.TokenRegistrar
	Logger    *slog.Logger
}

func NewTokenAPI(registrar push.TokenRegistrar, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Registrar: registrar,
		Logger:    logger,
	}
}

type TokenRequest struct {
	Token string `json:"token"`
}

// RegisterToken upserts the caller's device token. Re-registering an
// existing token refreshes its lastUsed timestamp, which is what keeps an
// active device out of the retention sweep.
func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Registrar.RegisterToken(ctx, userID, req.Token); err != nil {
		api.Logger.Error("failed to register token", "user_id", userID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnregisterToken removes the caller's device token, e.g. on sign-out.
func (api *TokenAPI) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Registrar.UnregisterToken(ctx, userID, req.Token); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister token", "user_id", userID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
