package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmccall/focal/models"
)

func TestCredentialLifecycle(t *testing.T) {
	database := setupTestDB(t)

	// No credential yet
	cred, err := GetCredential(database, "u1")
	require.NoError(t, err)
	assert.Nil(t, cred)

	// First connect
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, UpsertCredential(database, &models.CalendarCredential{
		UserID:       "u1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    expiresAt,
		Scope:        "calendar",
	}))

	cred, err = GetCredential(database, "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.WithinDuration(t, expiresAt, cred.ExpiresAt, time.Second)
	assert.Equal(t, "calendar", cred.Scope)

	// Reconnect overwrites in place
	require.NoError(t, UpsertCredential(database, &models.CalendarCredential{
		UserID:       "u1",
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresAt:    expiresAt,
	}))

	cred, err = GetCredential(database, "u1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", cred.RefreshToken)

	// Disconnect
	require.NoError(t, DeleteCredential(database, "u1"))
	cred, err = GetCredential(database, "u1")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestUpdateAccessTokenLeavesRefreshToken(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, UpsertCredential(database, &models.CalendarCredential{
		UserID:       "u1",
		AccessToken:  "old-access",
		RefreshToken: "keep-me",
		ExpiresAt:    time.Now().Add(-time.Minute).UTC(),
	}))

	newExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, UpdateAccessToken(database, "u1", "new-access", newExpiry))

	cred, err := GetCredential(database, "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "keep-me", cred.RefreshToken, "refresh must not touch the refresh token")
	assert.WithinDuration(t, newExpiry, cred.ExpiresAt, time.Second)
}

func TestUpdateAccessTokenNoCredential(t *testing.T) {
	database := setupTestDB(t)

	err := UpdateAccessToken(database, "nobody", "access", time.Now().Add(time.Hour))
	assert.Error(t, err)
}

func TestCredentialExpired(t *testing.T) {
	now := time.Now()

	fresh := &models.CalendarCredential{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, fresh.Expired(now))

	stale := &models.CalendarCredential{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, stale.Expired(now))
}
