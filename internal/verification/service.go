// Package verification orchestrates the claim pipeline: admission control,
// signal extraction, fusion, capability token issuance, and the guarded mint.
package verification

//go:generate mockgen -source=../issuer/issuer.go -destination=mocks/issuer.go -package=mocks
//go:generate mockgen -source=../vision/vision.go -destination=mocks/vision.go -package=mocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mahavirb22/EventLens/internal/audit"
	"github.com/mahavirb22/EventLens/internal/captoken"
	"github.com/mahavirb22/EventLens/internal/certificate"
	"github.com/mahavirb22/EventLens/internal/claims"
	"github.com/mahavirb22/EventLens/internal/digest"
	"github.com/mahavirb22/EventLens/internal/event"
	"github.com/mahavirb22/EventLens/internal/forensic"
	"github.com/mahavirb22/EventLens/internal/geofence"
	"github.com/mahavirb22/EventLens/internal/issuer"
	"github.com/mahavirb22/EventLens/internal/platform/metrics"
	"github.com/mahavirb22/EventLens/internal/ratelimit"
	"github.com/mahavirb22/EventLens/internal/scoring"
	"github.com/mahavirb22/EventLens/internal/vision"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// DefaultConfidenceThreshold is the minimum composite confidence that earns a
// capability token.
const DefaultConfidenceThreshold = 80

// DefaultMaxUploadBytes caps the accepted image payload size.
const DefaultMaxUploadBytes = int64(10 << 20)

// VerifyRequest carries one attendance claim.
type VerifyRequest struct {
	EventID     string
	Subject     string
	DisplayName string
	Image       []byte
	Coords      *geofence.Coordinates
	ClientKey   string
	RequestID   string
	Device      string
}

// VerifyResult is the outcome of one verification pass. Token is set only
// when the claim is eligible.
type VerifyResult struct {
	Eligible  bool              `json:"eligible"`
	Token     string            `json:"token,omitempty"`
	ExpiresIn int               `json:"expires_in,omitempty"`
	Composite scoring.Composite `json:"composite"`
	RateLimit ratelimit.Result  `json:"-"`
}

// MintRequest carries one mint attempt: the capability token plus the event
// and subject the caller asserts it was issued for.
type MintRequest struct {
	EventID     string
	Subject     string
	DisplayName string
	Token       string
	RequestID   string
	Device      string
}

// MintResult is the confirmation of a completed issuance.
type MintResult struct {
	TxID           string `json:"tx_id"`
	AssetID        uint64 `json:"asset_id"`
	Confidence     int    `json:"confidence"`
	CertificateURL string `json:"certificate_url,omitempty"`
}

// Service runs the verification and mint flows.
type Service struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	events   *event.Registry
	ledger   *claims.Ledger
	judge    *vision.Judge
	tokens   *captoken.Service
	governor *ratelimit.Governor
	throttle *ratelimit.GlobalThrottle
	backend  issuer.Backend
	renderer certificate.Renderer
	trail    *audit.Publisher

	threshold     int
	maxUpload     int64
	geofenceMaxKm float64
	now           func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithConfidenceThreshold overrides the eligibility threshold.
func WithConfidenceThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithMaxUploadBytes overrides the payload size cap.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithGeofenceMaxKm overrides the allowed venue distance.
func WithGeofenceMaxKm(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.geofenceMaxKm = km
		}
	}
}

// WithGlobalThrottle puts a process-wide throttle in front of the per-key
// governor.
func WithGlobalThrottle(t *ratelimit.GlobalThrottle) Option {
	return func(s *Service) { s.throttle = t }
}

// WithCertificateRenderer sets the renderer used after a successful mint.
func WithCertificateRenderer(r certificate.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires the verification service.
func New(
	logger *slog.Logger,
	m *metrics.Metrics,
	events *event.Registry,
	ledger *claims.Ledger,
	judge *vision.Judge,
	tokens *captoken.Service,
	governor *ratelimit.Governor,
	backend issuer.Backend,
	trail *audit.Publisher,
	opts ...Option,
) *Service {
	s := &Service{
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("eventlens/verification"),
		events:        events,
		ledger:        ledger,
		judge:         judge,
		tokens:        tokens,
		governor:      governor,
		backend:       backend,
		renderer:      certificate.Noop{},
		trail:         trail,
		threshold:     DefaultConfidenceThreshold,
		maxUpload:     DefaultMaxUploadBytes,
		geofenceMaxKm: geofence.DefaultMaxKm,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the full claim pipeline. Cheap gates run before any signal
// work; the expensive vision call is last among the signals.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("event.id", req.EventID)))
	defer span.End()

	if s.throttle != nil && !s.throttle.Allow() {
		s.metrics.RateLimitExceeded.Inc()
		return nil, dErrors.New(dErrors.CodeRateLimited, "service is busy, retry shortly")
	}

	rl := s.governor.Allow(req.ClientKey)
	if !rl.Allowed {
		s.metrics.RateLimitExceeded.Inc()
		s.metrics.RecordVerification("rejected")
		return nil, dErrors.New(dErrors.CodeRateLimited,
			fmt.Sprintf("rate limit exceeded, retry in %ds", rl.RetryAfter))
	}

	ev, err := s.events.Get(req.EventID)
	if err != nil {
		s.metrics.RecordVerification("rejected")
		return nil, err
	}

	claimed, err := s.ledger.HasClaimed(req.EventID, req.Subject)
	if err != nil {
		return nil, err
	}
	if claimed {
		s.metrics.RecordVerification("rejected")
		return nil, dErrors.New(dErrors.CodeConflict, "badge already claimed for this event")
	}

	if int64(len(req.Image)) > s.maxUpload {
		s.metrics.RecordVerification("rejected")
		return nil, dErrors.New(dErrors.CodePayloadTooBig, "image exceeds the upload size limit")
	}
	if len(req.Image) == 0 {
		s.metrics.RecordVerification("rejected")
		return nil, dErrors.New(dErrors.CodeInvalidInput, "image payload is required")
	}

	signals := s.extractSignals(ctx, ev, req)
	composite := scoring.Fuse(signals)
	s.metrics.CompositeScore.Observe(float64(composite.Confidence))

	result := &VerifyResult{Composite: composite, RateLimit: rl}

	if composite.Confidence < s.threshold {
		s.metrics.RecordVerification("ineligible")
		s.emit(ctx, audit.Event{
			Subject:    req.Subject,
			EventID:    req.EventID,
			Action:     audit.ActionClaimRejected,
			Reason:     composite.Signals.Vision.Reason,
			Confidence: composite.Confidence,
			Digest:     signals.Digest,
			RequestID:  req.RequestID,
			Device:     req.Device,
		})
		s.logger.InfoContext(ctx, "claim below threshold",
			"event_id", req.EventID,
			"confidence", composite.Confidence,
			"threshold", s.threshold,
		)
		return result, nil
	}

	result.Eligible = true
	result.Token = s.tokens.Issue(req.EventID, req.Subject, composite.Confidence, signals.Digest)
	result.ExpiresIn = int(captoken.DefaultTTL.Seconds())

	s.metrics.RecordVerification("eligible")
	s.metrics.TokensIssued.Inc()
	s.emit(ctx, audit.Event{
		Subject:    req.Subject,
		EventID:    req.EventID,
		Action:     audit.ActionTokenIssued,
		Confidence: composite.Confidence,
		Digest:     signals.Digest,
		RequestID:  req.RequestID,
		Device:     req.Device,
	})
	s.logger.InfoContext(ctx, "claim verified",
		"event_id", req.EventID,
		"confidence", composite.Confidence,
		"digest_prefix", digest.Prefix(signals.Digest),
	)
	return result, nil
}

// extractSignals gathers the four signals. The local ones (digest, forensic,
// geofence) run concurrently; the vision call follows because its cache key
// needs the digest.
func (s *Service) extractSignals(ctx context.Context, ev *event.Event, req VerifyRequest) scoring.SignalSet {
	ctx, span := s.tracer.Start(ctx, "verification.extractSignals")
	defer span.End()

	var signals scoring.SignalSet

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		signals.Digest = digest.Sum(req.Image)
		return nil
	})
	g.Go(func() error {
		signals.Forensic = forensic.Inspect(req.Image)
		return nil
	})
	g.Go(func() error {
		signals.Geofence = geofence.Check(req.Coords, ev.Venue(), s.geofenceMaxKm)
		return nil
	})
	_ = g.Wait()

	start := s.now()
	judgment := s.judge.Judge(ctx, req.Image, signals.Digest, ev.Name, ev.Location)
	s.metrics.VisionLatency.Observe(s.now().Sub(start).Seconds())
	if judgment.FailedClosed() {
		s.metrics.VisionFailures.Inc()
		span.SetAttributes(attribute.String("vision.reason", judgment.Reason))
	}
	signals.Vision = *judgment

	return signals
}

// Mint redeems a capability token for the irreversible issuance. Reserve
// closes the race between the final already-claimed check and the external
// call; every authorization failure maps to the same outward code.
func (s *Service) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Mint",
		trace.WithAttributes(attribute.String("event.id", req.EventID)))
	defer span.End()

	ev, err := s.events.Get(req.EventID)
	if err != nil {
		s.metrics.RecordMintRejection("event_not_found")
		return nil, err
	}

	tokenClaims, err := s.tokens.Validate(req.Token, req.EventID, req.Subject, s.threshold)
	if err != nil {
		s.metrics.RecordMintRejection("invalid_token")
		s.emit(ctx, audit.Event{
			Subject:   req.Subject,
			EventID:   req.EventID,
			Action:    audit.ActionMintRejected,
			Reason:    "invalid token",
			RequestID: req.RequestID,
			Device:    req.Device,
		})
		return nil, err
	}

	if err := s.ledger.Reserve(req.EventID, req.Subject); err != nil {
		s.metrics.RecordMintRejection("already_claimed")
		// Deliberately not Wrap: the outward code must be not_authorized even
		// though the ledger reports a conflict.
		return nil, &dErrors.Error{Code: dErrors.CodeNotAuthorized, Message: "not authorized to mint", Err: err}
	}

	optedIn, err := s.backend.IsOptedIn(ctx, req.Subject, ev.AssetID)
	if err != nil {
		s.ledger.Release(req.EventID, req.Subject)
		return nil, dErrors.Wrap(err, dErrors.CodeIssuanceFailed, "failed to check asset opt-in")
	}
	if !optedIn {
		s.ledger.Release(req.EventID, req.Subject)
		s.metrics.RecordMintRejection("not_opted_in")
		return nil, dErrors.New(dErrors.CodeBadRequest, "wallet has not opted in to the badge asset")
	}

	// Supply is reserved atomically before the irreversible call and handed
	// back if the call fails.
	if err := s.events.IncrementMinted(req.EventID); err != nil {
		s.ledger.Release(req.EventID, req.Subject)
		if dErrors.HasCode(err, dErrors.CodeSupplyExhausted) {
			s.metrics.RecordMintRejection("supply_exhausted")
		}
		return nil, err
	}

	txID, err := s.backend.Issue(ctx, req.Subject, ev.AssetID)
	if err != nil {
		s.ledger.Release(req.EventID, req.Subject)
		if derr := s.events.DecrementMinted(req.EventID); derr != nil {
			s.logger.ErrorContext(ctx, "failed to return reserved supply",
				"event_id", req.EventID, "error", derr)
		}
		s.metrics.IssuanceFailures.Inc()
		s.emit(ctx, audit.Event{
			Subject:   req.Subject,
			EventID:   req.EventID,
			Action:    audit.ActionIssuanceFailed,
			Reason:    err.Error(),
			RequestID: req.RequestID,
			Device:    req.Device,
		})
		return nil, dErrors.Wrap(err, dErrors.CodeIssuanceFailed, "badge issuance failed, please retry")
	}

	if err := s.ledger.Commit(claims.Record{
		Subject:     req.Subject,
		EventID:     req.EventID,
		Digest:      tokenClaims.DigestPrefix,
		Confidence:  tokenClaims.Confidence,
		DisplayName: req.DisplayName,
		TxID:        txID,
	}); err != nil {
		// The issuance already happened; the claim must not be lost.
		s.logger.ErrorContext(ctx, "failed to record claim after issuance",
			"event_id", req.EventID, "tx_id", txID, "error", err)
	}

	s.metrics.BadgesMinted.Inc()
	s.emit(ctx, audit.Event{
		Subject:    req.Subject,
		EventID:    req.EventID,
		Action:     audit.ActionBadgeMinted,
		Confidence: tokenClaims.Confidence,
		Digest:     tokenClaims.DigestPrefix,
		RequestID:  req.RequestID,
		Device:     req.Device,
	})
	s.logger.InfoContext(ctx, "badge minted",
		"event_id", req.EventID,
		"tx_id", txID,
		"confidence", tokenClaims.Confidence,
	)

	result := &MintResult{
		TxID:       txID,
		AssetID:    ev.AssetID,
		Confidence: tokenClaims.Confidence,
	}

	s.recordProof(ctx, ev, req, tokenClaims, txID)
	result.CertificateURL = s.renderCertificate(ctx, ev, req, txID)

	return result, nil
}

// recordProof stores the verification proof on the ledger. Best-effort: the
// badge is already issued, so a failure here only logs and counts.
func (s *Service) recordProof(ctx context.Context, ev *event.Event, req MintRequest, tc *captoken.Claims, txID string) {
	err := s.backend.RecordAuditProof(ctx, issuer.Proof{
		EventID:    req.EventID,
		Subject:    req.Subject,
		Digest:     tc.DigestPrefix,
		Confidence: tc.Confidence,
		AssetID:    ev.AssetID,
		TxID:       txID,
	})
	if err != nil {
		s.metrics.AuditProofFailures.Inc()
		s.logger.WarnContext(ctx, "failed to record audit proof",
			"event_id", req.EventID, "tx_id", txID, "error", err)
	}
}

// renderCertificate produces the decorative certificate. Failures never fail
// the mint.
func (s *Service) renderCertificate(ctx context.Context, ev *event.Event, req MintRequest, txID string) string {
	name := req.DisplayName
	if name == "" {
		name = req.Subject
	}
	url, err := s.renderer.Render(ctx, certificate.Details{
		AttendeeName: name,
		EventName:    ev.Name,
		EventDate:    ev.StartsAt,
		Location:     ev.Location,
		TxID:         txID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "certificate rendering failed",
			"event_id", req.EventID, "error", err)
		return ""
	}
	return url
}

// Badge is one entry of a subject's badge collection.
type Badge struct {
	EventID    string    `json:"event_id"`
	EventName  string    `json:"event_name"`
	TxID       string    `json:"tx_id,omitempty"`
	Confidence int       `json:"confidence"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

// PlatformStats is the platform-wide aggregate for the dashboard.
type PlatformStats struct {
	TotalEvents     int `json:"total_events"`
	TotalMinted     int `json:"total_badges_minted"`
	TotalAvailable  int `json:"total_badges_available"`
	UniqueAttendees int `json:"unique_attendees"`
}

// Stats aggregates event supply counts with the ledger's attendee count.
func (s *Service) Stats() (*PlatformStats, error) {
	es, err := s.events.Stats()
	if err != nil {
		return nil, err
	}
	attendees, err := s.ledger.UniqueSubjects()
	if err != nil {
		return nil, err
	}
	return &PlatformStats{
		TotalEvents:     es.TotalEvents,
		TotalMinted:     es.TotalMinted,
		TotalAvailable:  es.TotalAvailable,
		UniqueAttendees: attendees,
	}, nil
}

// Profile returns every badge held by the subject, joined with event names.
func (s *Service) Profile(subject string) ([]Badge, error) {
	records, err := s.ledger.ListBySubject(subject)
	if err != nil {
		return nil, err
	}
	badges := make([]Badge, 0, len(records))
	for _, rec := range records {
		b := Badge{
			EventID:    rec.EventID,
			TxID:       rec.TxID,
			Confidence: rec.Confidence,
			ClaimedAt:  rec.ClaimedAt,
		}
		if ev, err := s.events.Get(rec.EventID); err == nil {
			b.EventName = ev.Name
		}
		badges = append(badges, b)
	}
	return badges, nil
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", e.Action, "error", err)
	}
}
