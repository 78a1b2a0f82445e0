package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	judgment *Judgment
	err      error
	calls    int
}

func (s *stubProvider) Evaluate(_ context.Context, _ []byte, _, _ string) (*Judgment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.judgment, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseJudgmentPlainJSON(t *testing.T) {
	j, err := parseJudgment(`{"confidence": 85, "reason": "crowd and stage visible", "indicators": ["stage", "crowd"]}`)
	require.NoError(t, err)
	assert.Equal(t, 85, j.Confidence)
	assert.Equal(t, "crowd and stage visible", j.Reason)
	assert.Equal(t, []string{"stage", "crowd"}, j.Indicators)
}

func TestParseJudgmentMarkdownFenced(t *testing.T) {
	j, err := parseJudgment("```json\n{\"confidence\": 42, \"reason\": \"ambiguous\", \"indicators\": []}\n```")
	require.NoError(t, err)
	assert.Equal(t, 42, j.Confidence)
}

func TestParseJudgmentClampsConfidence(t *testing.T) {
	j, err := parseJudgment(`{"confidence": 180, "reason": "x", "indicators": []}`)
	require.NoError(t, err)
	assert.Equal(t, 100, j.Confidence)

	j, err = parseJudgment(`{"confidence": -5, "reason": "x", "indicators": []}`)
	require.NoError(t, err)
	assert.Equal(t, 0, j.Confidence)
}

func TestParseJudgmentTruncatesIndicators(t *testing.T) {
	j, err := parseJudgment(`{"confidence": 50, "reason": "x", "indicators": ["a","b","c","d","e","f"]}`)
	require.NoError(t, err)
	assert.Len(t, j.Indicators, 4)
}

func TestParseJudgmentDefaults(t *testing.T) {
	j, err := parseJudgment(`{"confidence": 70}`)
	require.NoError(t, err)
	assert.Equal(t, "no reason provided", j.Reason)
	assert.NotNil(t, j.Indicators)
}

func TestParseJudgmentMalformed(t *testing.T) {
	_, err := parseJudgment("the image looks fine to me")
	assert.Error(t, err)
}

func TestJudgeFailsClosedOnProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("deadline exceeded")}
	judge := NewJudge(provider, time.Minute, discardLogger())

	j := judge.Judge(context.Background(), []byte("img"), "abc123", "GopherCon", "")

	assert.Equal(t, 0, j.Confidence)
	assert.Contains(t, j.Reason, "vision verification failed")
	assert.Contains(t, j.Reason, "deadline exceeded")
}

func TestJudgeCachesByDigestAndEvent(t *testing.T) {
	provider := &stubProvider{judgment: &Judgment{Confidence: 88, Reason: "ok", Indicators: []string{"stage"}}}
	judge := NewJudge(provider, time.Minute, discardLogger())

	first := judge.Judge(context.Background(), []byte("img"), "digest-1", "GopherCon", "")
	second := judge.Judge(context.Background(), []byte("img"), "digest-1", "GopherCon", "")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls)

	// A different event name is a different cache entry.
	judge.Judge(context.Background(), []byte("img"), "digest-1", "FOSDEM", "")
	assert.Equal(t, 2, provider.calls)
}

func TestJudgeDoesNotCacheFailures(t *testing.T) {
	provider := &stubProvider{err: errors.New("503")}
	judge := NewJudge(provider, time.Minute, discardLogger())

	judge.Judge(context.Background(), []byte("img"), "digest-2", "GopherCon", "")
	provider.err = nil
	provider.judgment = &Judgment{Confidence: 90, Reason: "recovered", Indicators: []string{}}

	j := judge.Judge(context.Background(), []byte("img"), "digest-2", "GopherCon", "")
	assert.Equal(t, 90, j.Confidence)
	assert.Equal(t, 2, provider.calls)
}

func TestFailedVerdictShape(t *testing.T) {
	j := Failed("timeout")
	assert.Equal(t, 0, j.Confidence)
	assert.Equal(t, "vision verification failed: timeout", j.Reason)
	assert.Empty(t, j.Indicators)
}
