// Package captoken issues and validates the short-lived bearer capability
// that bridges the verification call and the later mint call.
//
// A token is a self-contained signed assertion: "at time T this subject's
// claim for this event scored C with digest prefix D". No server-side state
// beyond the signing secret is needed to validate one, so verification and
// minting can be served by independently scaled stateless handlers.
package captoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mahavirb22/EventLens/internal/digest"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 600 * time.Second

// wireFields is the exact field count of the colon-delimited wire format:
// timestamp : confidence : digest-prefix : signature.
const wireFields = 4

// Claims are the decoded assertions of a validated token.
type Claims struct {
	IssuedAt     time.Time
	Confidence   int
	DigestPrefix string
}

// token is the internal tagged form of the wire format. Encoding and decoding
// happen only through encode/decode so no call site splits strings ad hoc.
type token struct {
	timestamp    int64
	confidence   int
	digestPrefix string
	signature    string
}

func (t token) encode() string {
	return fmt.Sprintf("%d:%d:%s:%s", t.timestamp, t.confidence, t.digestPrefix, t.signature)
}

func decode(wire string) (token, error) {
	parts := strings.Split(wire, ":")
	if len(parts) != wireFields {
		return token{}, fmt.Errorf("expected %d fields, got %d", wireFields, len(parts))
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return token{}, fmt.Errorf("unparseable timestamp: %w", err)
	}
	confidence, err := strconv.Atoi(parts[1])
	if err != nil {
		return token{}, fmt.Errorf("unparseable confidence: %w", err)
	}
	return token{
		timestamp:    ts,
		confidence:   confidence,
		digestPrefix: parts[2],
		signature:    parts[3],
	}, nil
}

// Service signs and validates capability tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Used by tests to age tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a token service around the signing secret.
func New(secret string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a signed token binding (event, subject, confidence, digest).
// Event and subject are covered by the signature but not carried in the wire
// string; validation requires the caller to re-supply them, which is what
// makes the token single-purpose.
func (s *Service) Issue(eventID, subject string, confidence int, contentDigest string) string {
	t := token{
		timestamp:    s.now().Unix(),
		confidence:   confidence,
		digestPrefix: digest.Prefix(contentDigest),
	}
	t.signature = s.sign(eventID, subject, t)
	return t.encode()
}

// Validate checks a presented token against the event and subject the caller
// claims it was issued for. Every rejection reason maps to the same outward
// not_authorized code; the wrapped error keeps the internal cause for logs.
func (s *Service) Validate(wire, eventID, subject string, minConfidence int) (*Claims, error) {
	t, err := decode(wire)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotAuthorized, "invalid verification token")
	}

	// Signature first: age and confidence of a forged token are meaningless.
	expected := s.sign(eventID, subject, t)
	if !hmac.Equal([]byte(expected), []byte(t.signature)) {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "invalid verification token")
	}

	issuedAt := time.Unix(t.timestamp, 0)
	if s.now().Sub(issuedAt) > s.ttl {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "invalid verification token")
	}

	if t.confidence < minConfidence {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "invalid verification token")
	}

	return &Claims{
		IssuedAt:     issuedAt,
		Confidence:   t.confidence,
		DigestPrefix: t.digestPrefix,
	}, nil
}

// sign computes the hex MAC over every asserted field, including the event
// and subject that never appear in the wire string. hmac.Equal keeps the
// comparison constant-time on the validation path.
func (s *Service) sign(eventID, subject string, t token) string {
	payload := fmt.Sprintf("%s:%s:%d:%s:%d", eventID, subject, t.confidence, t.digestPrefix, t.timestamp)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
