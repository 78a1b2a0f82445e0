package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mahavirb22/EventLens/internal/platform/middleware"
	"github.com/mahavirb22/EventLens/internal/transport/httputil"
)

// NewRouter wires all public endpoints with middleware. The verify route gets
// a long timeout because it waits on the external vision judgment.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Device)
	r.Use(middleware.Logger(logger))
	if h.metrics != nil {
		r.Use(middleware.Metrics(h.metrics))
	}

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/verify-attendance", h.handleVerifyAttendance)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Post("/mint-badge", h.handleMintBadge)

			r.Get("/events", h.handleListEvents)
			r.Post("/events", h.adminOnly(h.handleCreateEvent))
			r.Get("/events/{eventID}", h.handleGetEvent)
			r.Get("/events/{eventID}/opt-in", h.handleOptInCheck)

			r.Get("/profile/{wallet}/badges", h.handleProfileBadges)
			r.Get("/stats", h.handleStats)

			r.Post("/admin/login", h.handleAdminLogin)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
