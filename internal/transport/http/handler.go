// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mahavirb22/EventLens/internal/admin"
	"github.com/mahavirb22/EventLens/internal/audit"
	"github.com/mahavirb22/EventLens/internal/event"
	"github.com/mahavirb22/EventLens/internal/platform/metrics"
	"github.com/mahavirb22/EventLens/internal/transport/httputil"
	"github.com/mahavirb22/EventLens/internal/verification"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// VerificationService is the slice of the verification core the HTTP layer
// needs.
type VerificationService interface {
	Verify(ctx context.Context, req verification.VerifyRequest) (*verification.VerifyResult, error)
	Mint(ctx context.Context, req verification.MintRequest) (*verification.MintResult, error)
	Profile(subject string) ([]verification.Badge, error)
	Stats() (*verification.PlatformStats, error)
}

// EventService manages the event registry.
type EventService interface {
	Create(p event.CreateParams) (*event.Event, error)
	Get(id string) (*event.Event, error)
	List() ([]*event.Event, error)
}

// AdminService guards organizer-only endpoints.
type AdminService interface {
	Login(password string) (string, error)
	Validate(token string) (*admin.SessionClaims, error)
}

// OptInChecker answers whether a wallet can receive an event's asset.
type OptInChecker interface {
	IsOptedIn(ctx context.Context, subject string, assetID uint64) (bool, error)
}

// Handler bundles the HTTP handlers and their dependencies.
type Handler struct {
	verifier  VerificationService
	events    EventService
	admin     AdminService
	optIn     OptInChecker
	logger    *slog.Logger
	maxUpload int64
	metrics   *metrics.Metrics
	trail     *audit.Publisher
}

// HandlerOption configures optional collaborators.
type HandlerOption func(*Handler)

// WithMetrics enables endpoint latency and event creation metrics.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithAuditTrail records organizer actions in the audit trail.
func WithAuditTrail(p *audit.Publisher) HandlerOption {
	return func(h *Handler) { h.trail = p }
}

// NewHandler creates the Handler.
func NewHandler(
	verifier VerificationService,
	events EventService,
	adminSvc AdminService,
	optIn OptInChecker,
	logger *slog.Logger,
	maxUpload int64,
	opts ...HandlerOption,
) *Handler {
	if maxUpload <= 0 {
		maxUpload = verification.DefaultMaxUploadBytes
	}
	h := &Handler{
		verifier:  verifier,
		events:    events,
		admin:     adminSvc,
		optIn:     optIn,
		logger:    logger,
		maxUpload: maxUpload,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// emit records an organizer action when a trail is configured.
func (h *Handler) emit(ctx context.Context, e audit.Event) {
	if h.trail == nil {
		return
	}
	if err := h.trail.Emit(ctx, e); err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event", "action", e.Action, "error", err)
	}
}

// parseOptionalFloat returns nil for absent values, an error for junk.
func parseOptionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid coordinate value")
	}
	return &v, nil
}

// bearerToken extracts the Authorization bearer token, if any.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// adminOnly rejects requests without a valid admin session token.
func (h *Handler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.admin.Validate(bearerToken(r)); err != nil {
			httputil.WriteError(w, err)
			return
		}
		next(w, r)
	}
}
