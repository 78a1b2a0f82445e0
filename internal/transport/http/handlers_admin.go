package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahavirb22/EventLens/internal/audit"
	"github.com/mahavirb22/EventLens/internal/platform/middleware"
	"github.com/mahavirb22/EventLens/internal/transport/httputil"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	token, err := h.admin.Login(req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.emit(r.Context(), audit.Event{
		Action:    audit.ActionAdminLogin,
		RequestID: middleware.GetRequestID(r.Context()),
		Device:    middleware.GetDevice(r.Context()).String(),
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleProfileBadges(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	badges, err := h.verifier.Profile(wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"wallet": wallet,
		"badges": badges,
	})
}
