// Package scoring fuses the independent verification signals into one
// bounded composite confidence. Pure; no I/O.
package scoring

import (
	"fmt"

	"github.com/mahavirb22/EventLens/internal/forensic"
	"github.com/mahavirb22/EventLens/internal/geofence"
	"github.com/mahavirb22/EventLens/internal/vision"
)

// Fusion deltas. Geofence absence is neutral: lack of coordinates must not
// punish a claim. The provenance penalty only fires when the running score is
// already close to passing, so weak claims are not penalized twice.
const (
	geofencePassBonus      = 5
	geofenceFailPenalty    = 15
	suspiciousPenalty      = 20
	noProvenancePenalty    = 5
	provenancePenaltyFloor = 60
)

// SignalSet bundles the four independent signals produced for one claim.
type SignalSet struct {
	Vision   vision.Judgment `json:"vision"`
	Geofence geofence.Result `json:"geofence"`
	Forensic forensic.Report `json:"forensic"`
	Digest   string          `json:"digest"`
}

// Adjustment is one step of the fusion trail: a signed delta plus its reason.
type Adjustment struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// Composite is the fused verdict: final confidence in [0, 100], the ordered
// adjustment trail, and the underlying signals for audit.
type Composite struct {
	Confidence int          `json:"confidence"`
	Trail      []Adjustment `json:"trail"`
	Signals    SignalSet    `json:"signals"`
}

// Fuse applies the fixed fusion policy to a signal set. The score is clamped
// to [0, 100] after every step, so adversarial extremes cannot push it out of
// range in either direction.
func Fuse(signals SignalSet) Composite {
	score := clamp(signals.Vision.Confidence)
	trail := []Adjustment{{
		Delta:  score,
		Reason: "vision judgment baseline",
	}}

	switch signals.Geofence.Status {
	case geofence.StatusPass:
		score = clamp(score + geofencePassBonus)
		trail = append(trail, Adjustment{
			Delta:  +geofencePassBonus,
			Reason: fmt.Sprintf("geofence pass (%.2f km from venue)", signals.Geofence.DistanceKm),
		})
	case geofence.StatusFail:
		score = clamp(score - geofenceFailPenalty)
		trail = append(trail, Adjustment{
			Delta:  -geofenceFailPenalty,
			Reason: fmt.Sprintf("geofence fail (%.2f km from venue, max %.2f km)", signals.Geofence.DistanceKm, signals.Geofence.MaxKm),
		})
	case geofence.StatusUnavailable:
		trail = append(trail, Adjustment{
			Delta:  0,
			Reason: "geofence unavailable, no adjustment",
		})
	}

	if signals.Forensic.Suspicious {
		score = clamp(score - suspiciousPenalty)
		trail = append(trail, Adjustment{
			Delta:  -suspiciousPenalty,
			Reason: "forensic inspection flagged editing-tool provenance",
		})
	}

	if !signals.Forensic.HasProvenance && score > provenancePenaltyFloor {
		score = clamp(score - noProvenancePenalty)
		trail = append(trail, Adjustment{
			Delta:  -noProvenancePenalty,
			Reason: "no capture metadata on an otherwise high-scoring claim",
		})
	}

	return Composite{
		Confidence: score,
		Trail:      trail,
		Signals:    signals,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
