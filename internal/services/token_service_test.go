package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", time.Hour, zap.NewNop())

	token, err := ts.Issue("AB123456")
	require.NoError(t, err)

	passport, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "AB123456", passport)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	ts := NewTokenService("secret", -time.Minute, zap.NewNop())

	token, err := ts.Issue("AB123456")
	require.NoError(t, err)

	_, err = ts.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenSignedWithDifferentSecretIsRejected(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour, zap.NewNop())
	verifier := NewTokenService("secret-b", time.Hour, zap.NewNop())

	token, err := issuer.Issue("AB123456")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(err))
}

func TestGarbageTokenIsRejected(t *testing.T) {
	ts := NewTokenService("secret", time.Hour, zap.NewNop())

	_, err := ts.Verify("not-a-token")
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(err))
}
