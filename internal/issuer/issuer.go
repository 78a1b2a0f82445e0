// Package issuer defines the port to the external ledger that performs the
// irreversible issuance action. The verification core never talks to the
// chain directly; it consumes this interface.
package issuer

import "context"

// Proof is the audit evidence recorded alongside a confirmed issuance.
// Recording it is best-effort: a failure must not fail the mint.
type Proof struct {
	EventID    string
	Subject    string
	Digest     string
	Confidence int
	AssetID    uint64
	TxID       string
}

// Backend is the external ledger collaborator.
type Backend interface {
	// IsOptedIn reports whether the subject can receive the asset.
	IsOptedIn(ctx context.Context, subject string, assetID uint64) (bool, error)
	// Issue performs the irreversible issuance and returns the transaction id.
	Issue(ctx context.Context, subject string, assetID uint64) (string, error)
	// RecordAuditProof stores the verification proof on the ledger.
	RecordAuditProof(ctx context.Context, proof Proof) error
}
