package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahavirb22/EventLens/internal/kv"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
	"github.com/mahavirb22/EventLens/pkg/testutil"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(kv.NewMemoryStore())
}

func TestReserveCommitLifecycle(t *testing.T) {
	l := newLedger(t)

	claimed, err := l.HasClaimed("evt-1", "SUBJ")
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "SUBJ", Digest: "d", Confidence: 87}))

	claimed, err = l.HasClaimed("evt-1", "SUBJ")
	require.NoError(t, err)
	assert.True(t, claimed)

	rec, found, err := l.Get("evt-1", "SUBJ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 87, rec.Confidence)
	assert.False(t, rec.ClaimedAt.IsZero())
}

func TestReserveBlocksSecondCaller(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
	err := l.Reserve("evt-1", "SUBJ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestReserveAfterCommitConflicts(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "SUBJ"}))

	err := l.Reserve("evt-1", "SUBJ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestReleaseAllowsRetry(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
	l.Release("evt-1", "SUBJ")
	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
}

func TestCommitIsIdempotent(t *testing.T) {
	l := newLedger(t)

	first := Record{EventID: "evt-1", Subject: "SUBJ", Digest: "original", ClaimedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, l.Commit(first))

	// A retried commit must not overwrite the original record.
	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "SUBJ", Digest: "different"}))

	rec, found, err := l.Get("evt-1", "SUBJ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "original", rec.Digest)
	assert.Equal(t, first.ClaimedAt, rec.ClaimedAt)
}

func TestKeysAreScopedPerEventAndSubject(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Reserve("evt-1", "SUBJ"))
	// Different event or different subject is unaffected.
	require.NoError(t, l.Reserve("evt-2", "SUBJ"))
	require.NoError(t, l.Reserve("evt-1", "OTHER"))
}

func TestConcurrentReservationsExactlyOneWinner(t *testing.T) {
	l := newLedger(t)

	res := testutil.RunConcurrent(100, func(int) error {
		return l.Reserve("evt-1", "SUBJ")
	})

	assert.Equal(t, int32(1), res.Successes)
	assert.Equal(t, int32(99), res.Conflicts)
}

func TestListBySubject(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "A"}))
	require.NoError(t, l.Commit(Record{EventID: "evt-2", Subject: "A"}))
	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "B"}))

	records, err := l.ListBySubject("A")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestUniqueSubjects(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "A"}))
	require.NoError(t, l.Commit(Record{EventID: "evt-2", Subject: "A"}))
	require.NoError(t, l.Commit(Record{EventID: "evt-1", Subject: "B"}))

	n, err := l.UniqueSubjects()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
