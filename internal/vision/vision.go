// Package vision invokes the external image-judgment model and normalizes
// its output into a bounded verdict.
package vision

import (
	"context"
	"errors"
	"strings"
)

// Judgment is the normalized output of one vision evaluation.
type Judgment struct {
	// Confidence is the model's belief, clamped to [0, 100], that the image
	// is a genuine live attendance photo.
	Confidence int `json:"confidence"`
	// Reason is a one-sentence rationale.
	Reason string `json:"reason"`
	// Indicators are up to four short visual signals the model reports.
	Indicators []string `json:"indicators"`
}

// Provider evaluates an untrusted image against an event description.
// Implementations may be slow and unreliable; callers own the timeout.
type Provider interface {
	Evaluate(ctx context.Context, image []byte, eventName, locationHint string) (*Judgment, error)
}

// Failed builds the fail-closed verdict for a broken evaluation. Zero
// confidence with a labeled reason is deliberate policy: a fault in the
// external judge must never admit a claim.
func Failed(reason string) *Judgment {
	return &Judgment{
		Confidence: 0,
		Reason:     "vision verification failed: " + reason,
		Indicators: []string{},
	}
}

// FailedClosed reports whether this is the fail-closed verdict produced by
// Failed rather than a genuine model judgment.
func (j *Judgment) FailedClosed() bool {
	return j.Confidence == 0 && strings.HasPrefix(j.Reason, "vision verification failed")
}

// Unconfigured is the Provider used when no API key is set. Every evaluation
// fails, which the fail-closed policy turns into zero confidence.
type Unconfigured struct{}

// Evaluate implements Provider.
func (Unconfigured) Evaluate(context.Context, []byte, string, string) (*Judgment, error) {
	return nil, errors.New("vision provider not configured")
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
