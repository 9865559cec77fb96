package auth_test

import (
	"testing"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerifyToken(t *testing.T) {
	manager, err := auth.NewSessionManager(testSessionSecret, time.Hour)
	require.NoError(t, err)

	token, err := manager.Issue("participant-1", time.Now().UTC())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	participantID, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "participant-1", participantID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager, err := auth.NewSessionManager(testSessionSecret, time.Hour)
	require.NoError(t, err)

	token, err := manager.Issue("participant-1", time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, auth.TokenError)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer, err := auth.NewSessionManager(testSessionSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := auth.NewSessionManager("another-secret-another-secret-ok", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("participant-1", time.Now().UTC())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.TokenError)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager, err := auth.NewSessionManager(testSessionSecret, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := manager.Verify(token)
		assert.ErrorIs(t, err, auth.TokenError)
	}
}

func TestNewSessionManagerValidatesInput(t *testing.T) {
	_, err := auth.NewSessionManager("", time.Hour)
	assert.Error(t, err)
	_, err = auth.NewSessionManager(testSessionSecret, 0)
	assert.Error(t, err)
}
