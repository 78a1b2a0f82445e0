// Package audit captures structured trail events emitted from the
// verification and mint flows.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Subject    string
	EventID    string
	Action     Action
	Reason     string
	Confidence int
	Digest     string
	RequestID  string
	Device     string
}

// Action names the audited action.
type Action string

const (
	ActionClaimVerified  Action = "claim_verified"
	ActionClaimRejected  Action = "claim_rejected"
	ActionTokenIssued    Action = "token_issued"
	ActionBadgeMinted    Action = "badge_minted"
	ActionMintRejected   Action = "mint_rejected"
	ActionIssuanceFailed Action = "issuance_failed"
	ActionEventCreated   Action = "event_created"
	ActionAdminLogin     Action = "admin_login"
)
