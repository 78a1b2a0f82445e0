package captoken

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahavirb22/EventLens/internal/digest"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

const testDigest = "a3f8c2e914b07d5612398acdef045b1122334455667788990011223344556677"

func newTestService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New("test-secret", logger, opts...)
}

func TestIssueWireFormat(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	parts := strings.Split(wire, ":")
	require.Len(t, parts, 4)
	assert.Equal(t, testDigest[:16], parts[2])
	assert.Len(t, parts[3], 64) // hex sha256 MAC
}

func TestRoundTrip(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	claims, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	require.NoError(t, err)
	assert.Equal(t, 87, claims.Confidence)
	assert.Equal(t, testDigest[:16], claims.DigestPrefix)
}

func TestRoundTripEmptyDigest(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 92, "")

	claims, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	require.NoError(t, err)
	assert.Equal(t, "none", claims.DigestPrefix)
}

func TestRejectWrongEvent(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	_, err := svc.Validate(wire, "evt-2", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestRejectWrongSubject(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	_, err := svc.Validate(wire, "evt-1", "SUBJECT2", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestRejectTamperedSignature(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	// Flip one character of the signature.
	last := wire[len(wire)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	tampered := wire[:len(wire)-1] + string(flipped)

	_, err := svc.Validate(tampered, "evt-1", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestRejectTamperedConfidence(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 81, testDigest)

	parts := strings.Split(wire, ":")
	parts[1] = "99"
	_, err := svc.Validate(strings.Join(parts, ":"), "evt-1", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestRejectMalformedFieldCount(t *testing.T) {
	svc := newTestService()
	for _, wire := range []string{"", "abc", "1:2:3", "1:2:3:4:5"} {
		_, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized), "wire %q", wire)
	}
}

func TestRejectUnparseableTimestamp(t *testing.T) {
	svc := newTestService()
	_, err := svc.Validate("notanumber:87:abcdef0123456789:deadbeef", "evt-1", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestRejectExpired(t *testing.T) {
	issued := time.Now()
	clock := issued
	svc := newTestService(WithClock(func() time.Time { return clock }))

	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	// 601 seconds later with the default 600s TTL.
	clock = issued.Add(601 * time.Second)
	_, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))

	// Just inside the TTL still passes.
	clock = issued.Add(599 * time.Second)
	_, err = svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	assert.NoError(t, err)
}

func TestRejectConfidenceBelowMinimum(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 75, testDigest)

	// Signature is valid, but the asserted confidence is below the caller's bar.
	_, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))

	claims, err := svc.Validate(wire, "evt-1", "SUBJECT1", 70)
	require.NoError(t, err)
	assert.Equal(t, 75, claims.Confidence)
}

func TestCustomTTL(t *testing.T) {
	issued := time.Now()
	clock := issued
	svc := newTestService(WithTTL(5*time.Second), WithClock(func() time.Time { return clock }))

	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)
	clock = issued.Add(6 * time.Second)
	_, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	assert.Error(t, err)
}

func TestDigestPrefixBinding(t *testing.T) {
	svc := newTestService()
	wire := svc.Issue("evt-1", "SUBJECT1", 87, testDigest)

	claims, err := svc.Validate(wire, "evt-1", "SUBJECT1", 80)
	require.NoError(t, err)
	assert.Equal(t, digest.Prefix(testDigest), claims.DigestPrefix)
}
