package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotAuthorized, "token rejected")
	require.Error(t, err)
	assert.Equal(t, "token rejected", err.Error())
	assert.True(t, HasCode(err, CodeNotAuthorized))
}

func TestErrorMessageFallsBackToCode(t *testing.T) {
	err := &Error{Code: CodeRateLimited}
	assert.Equal(t, "rate_limited", err.Error())
}

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(CodeNotAuthorized, "signature mismatch")
	outer := Wrap(inner, CodeInternal, "mint rejected")

	// The outer wrap must not mask the original authorization code.
	assert.True(t, HasCode(outer, CodeNotAuthorized))
	assert.False(t, HasCode(outer, CodeInternal))
	assert.Equal(t, "mint rejected", outer.Error())
}

func TestWrapPlainError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	outer := Wrap(inner, CodeIssuanceFailed, "ledger unreachable")

	assert.True(t, HasCode(outer, CodeIssuanceFailed))
	assert.True(t, errors.Is(outer, inner) || errors.Unwrap(outer) == inner)
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeConflict, "already claimed")
	b := New(CodeConflict, "different message")
	assert.True(t, errors.Is(a, b))

	c := New(CodeNotFound, "missing event")
	assert.False(t, errors.Is(a, c))
}

func TestHasCodeOnNonDomainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
