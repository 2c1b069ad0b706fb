// ABOUTME: Tests for OAuth config construction
// ABOUTME: Verifies env-driven client credentials and redirect defaults
package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOAuthConfigRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := NewOAuthConfig()
	assert.Error(t, err)
}

func TestNewOAuthConfigFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("FOCAL_OAUTH_REDIRECT_URL", "")

	config, err := NewOAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "client-id", config.ClientID)
	assert.Equal(t, defaultRedirectURL, config.RedirectURL)
	assert.NotEmpty(t, config.Scopes)
}

func TestNewOAuthConfigCustomRedirect(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("FOCAL_OAUTH_REDIRECT_URL", "https://focal.example/oauth/callback")

	config, err := NewOAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://focal.example/oauth/callback", config.RedirectURL)
}
