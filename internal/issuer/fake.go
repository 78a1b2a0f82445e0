package issuer

import (
	"context"
	"fmt"
	"sync"
)

// Fake is the in-memory Backend used by tests and local development. It
// counts issuance calls so tests can assert the at-most-once guarantee.
type Fake struct {
	mu sync.Mutex

	OptedIn     bool
	IssueErr    error
	ProofErr    error
	issueCalls  int
	proofCalls  int
	lastSubject string
}

// NewFake creates a Fake with opt-in enabled.
func NewFake() *Fake {
	return &Fake{OptedIn: true}
}

// IsOptedIn implements Backend.
func (f *Fake) IsOptedIn(_ context.Context, _ string, _ uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OptedIn, nil
}

// Issue implements Backend.
func (f *Fake) Issue(_ context.Context, subject string, assetID uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.IssueErr != nil {
		return "", f.IssueErr
	}
	f.issueCalls++
	f.lastSubject = subject
	return fmt.Sprintf("TX-%d-%d", assetID, f.issueCalls), nil
}

// RecordAuditProof implements Backend.
func (f *Fake) RecordAuditProof(_ context.Context, _ Proof) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proofCalls++
	return f.ProofErr
}

// IssueCalls returns how many issuances succeeded.
func (f *Fake) IssueCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueCalls
}

// ProofCalls returns how many audit proof recordings were attempted.
func (f *Fake) ProofCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.proofCalls
}
