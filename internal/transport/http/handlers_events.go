package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahavirb22/EventLens/internal/audit"
	"github.com/mahavirb22/EventLens/internal/event"
	"github.com/mahavirb22/EventLens/internal/platform/middleware"
	"github.com/mahavirb22/EventLens/internal/transport/httputil"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

type createEventRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	AssetID     uint64   `json:"asset_id"`
	Capacity    int      `json:"capacity"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	StartsAt    string   `json:"starts_at"`
	EndsAt      string   `json:"ends_at"`
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	ev, err := h.events.Create(event.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		AssetID:     req.AssetID,
		Capacity:    req.Capacity,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EventsCreated.Inc()
	}
	h.emit(r.Context(), audit.Event{
		EventID:   ev.ID,
		Action:    audit.ActionEventCreated,
		RequestID: middleware.GetRequestID(r.Context()),
	})
	httputil.WriteJSON(w, http.StatusCreated, ev)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ev)
}

// handleOptInCheck reports whether a wallet can receive the event's asset,
// so clients can prompt for opt-in before wasting a verification.
func (h *Handler) handleOptInCheck(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "wallet query parameter is required"))
		return
	}

	ev, err := h.events.Get(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	optedIn, err := h.optIn.IsOptedIn(r.Context(), wallet, ev.AssetID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check asset opt-in"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"opted_in": optedIn,
		"asset_id": ev.AssetID,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.verifier.Stats()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
