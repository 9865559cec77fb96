package auth_test

import (
	"testing"

	"github.com/ctfops-io/scoring-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentBasedAuthentication(t *testing.T) {
	t.Setenv("CTF_ADMIN_USERNAME", "admin")
	t.Setenv("CTF_ADMIN_PASSWORD", "hunter22")

	authenticator, err := auth.NewEnvironmentBasedAuthentication()
	require.NoError(t, err)

	assert.True(t, authenticator.CheckAuthentication("admin", "hunter22"))
	assert.False(t, authenticator.CheckAuthentication("admin", "wrong"))
	assert.False(t, authenticator.CheckAuthentication("root", "hunter22"))
}

func TestEnvironmentBasedAuthenticationRequiresBothVariables(t *testing.T) {
	t.Setenv("CTF_ADMIN_USERNAME", "admin")
	t.Setenv("CTF_ADMIN_PASSWORD", "")
	_, err := auth.NewEnvironmentBasedAuthentication()
	assert.Error(t, err)

	t.Setenv("CTF_ADMIN_USERNAME", "")
	t.Setenv("CTF_ADMIN_PASSWORD", "hunter22")
	_, err = auth.NewEnvironmentBasedAuthentication()
	assert.Error(t, err)
}
