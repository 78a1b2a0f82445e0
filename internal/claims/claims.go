// Package claims is the ledger guaranteeing at most one successful issuance
// per (event, subject) pair.
package claims

import (
	"sync"
	"time"

	"github.com/mahavirb22/EventLens/internal/kv"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

const keyPrefix = "claim/"

// Record is the durable proof of one successful issuance. Once written it is
// never mutated or deleted.
type Record struct {
	Subject     string    `json:"subject"`
	EventID     string    `json:"event_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
	Digest      string    `json:"digest"`
	Confidence  int       `json:"confidence"`
	DisplayName string    `json:"display_name,omitempty"`
	TxID        string    `json:"tx_id,omitempty"`
}

// Ledger serializes claim admission per (event, subject) key. The in-process
// mutex covers the gap between the final has-claimed check and the durable
// write; reservations cover the gap across the slow external issuance call
// without holding the lock through it.
type Ledger struct {
	mu      sync.Mutex
	pending map[string]struct{}
	store   kv.Store
	now     func() time.Time
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store kv.Store) *Ledger {
	return &Ledger{
		pending: make(map[string]struct{}),
		store:   store,
		now:     time.Now,
	}
}

func key(eventID, subject string) string {
	return keyPrefix + eventID + "/" + subject
}

// HasClaimed reports whether a successful issuance was already recorded.
// Used as the cheap early check before any expensive signal work.
func (l *Ledger) HasClaimed(eventID, subject string) (bool, error) {
	var rec Record
	found, err := l.store.Get(key(eventID, subject), &rec)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim ledger")
	}
	return found, nil
}

// Reserve atomically re-checks the ledger and claims the in-flight slot for
// (event, subject). Exactly one concurrent caller wins; everyone else gets a
// conflict until the winner commits or releases. This is the second,
// authoritative check the mint flow runs immediately before the irreversible
// issuance action.
func (l *Ledger) Reserve(eventID, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(eventID, subject)
	if _, inflight := l.pending[k]; inflight {
		return dErrors.New(dErrors.CodeConflict, "claim already in progress")
	}

	var rec Record
	found, err := l.store.Get(k, &rec)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim ledger")
	}
	if found {
		return dErrors.New(dErrors.CodeConflict, "badge already claimed")
	}

	l.pending[k] = struct{}{}
	return nil
}

// Release drops a reservation after a failed issuance so the subject can
// retry. A no-op for unreserved keys.
func (l *Ledger) Release(eventID, subject string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, key(eventID, subject))
}

// Commit appends the record for a confirmed issuance and drops the
// reservation. Append-only and idempotent: committing an already-recorded
// pair leaves the first record untouched.
func (l *Ledger) Commit(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(rec.EventID, rec.Subject)
	defer delete(l.pending, k)

	var existing Record
	found, err := l.store.Get(k, &existing)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim ledger")
	}
	if found {
		return nil
	}

	if rec.ClaimedAt.IsZero() {
		rec.ClaimedAt = l.now().UTC()
	}
	if err := l.store.Put(k, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append claim record")
	}
	return nil
}

// Get returns the record for (event, subject), if any.
func (l *Ledger) Get(eventID, subject string) (*Record, bool, error) {
	var rec Record
	found, err := l.store.Get(key(eventID, subject), &rec)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim ledger")
	}
	if !found {
		return nil, false, nil
	}
	return &rec, true, nil
}

// ListBySubject returns every record held by one subject, across events.
func (l *Ledger) ListBySubject(subject string) ([]*Record, error) {
	keys, err := l.store.Keys(keyPrefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claim records")
	}
	var records []*Record
	for _, k := range keys {
		var rec Record
		if _, err := l.store.Get(k, &rec); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim record")
		}
		if rec.Subject == subject {
			records = append(records, &rec)
		}
	}
	return records, nil
}

// UniqueSubjects counts distinct subjects holding at least one record.
func (l *Ledger) UniqueSubjects() (int, error) {
	keys, err := l.store.Keys(keyPrefix)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claim records")
	}
	subjects := make(map[string]struct{})
	for _, k := range keys {
		var rec Record
		if _, err := l.store.Get(k, &rec); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim record")
		}
		subjects[rec.Subject] = struct{}{}
	}
	return len(subjects), nil
}
