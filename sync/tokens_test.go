// ABOUTME: Tests for token store and refresh handling
// ABOUTME: Verifies refresh-iff-expired policy and refresh persistence
package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmccall/focal/db"
)

func TestAccessTokenNotConnected(t *testing.T) {
	database := setupTestDB(t)
	refresher := &fakeRefresher{}
	manager := NewTokenManager(NewDBTokenStore(database), refresher)

	_, err := manager.AccessToken(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, refresher.calls)
}

func TestAccessTokenValidSkipsRefresh(t *testing.T) {
	database := setupTestDB(t)
	seedCredential(t, database, "u1", time.Now().Add(time.Hour))

	refresher := &fakeRefresher{token: freshToken("new-access")}
	manager := NewTokenManager(NewDBTokenStore(database), refresher)

	token, err := manager.AccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "access-u1", token)
	assert.Equal(t, 0, refresher.calls, "refresh must not run for a valid token")
}

func TestAccessTokenExpiredRefreshesOnceAndPersists(t *testing.T) {
	database := setupTestDB(t)
	seedCredential(t, database, "u1", time.Now().Add(-time.Minute))

	newExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	refresher := &fakeRefresher{token: freshToken("new-access")}
	refresher.token.Expiry = newExpiry

	manager := NewTokenManager(NewDBTokenStore(database), refresher)

	token, err := manager.AccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, refresher.calls)

	// New access token and expiry persisted; refresh token untouched.
	cred, err := db.GetCredential(database, "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "refresh-u1", cred.RefreshToken)
	assert.WithinDuration(t, newExpiry, cred.ExpiresAt, time.Second)

	// Next call uses the stored token without another exchange.
	token, err = manager.AccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, refresher.calls)
}

func TestAccessTokenRefreshRejected(t *testing.T) {
	database := setupTestDB(t)
	seedCredential(t, database, "u1", time.Now().Add(-time.Minute))

	// OAuthRefresher tags rejected exchanges with ErrRefreshFailed;
	// the fake mirrors that wrapping.
	refresher := &fakeRefresher{err: fmt.Errorf("%w: invalid_grant", ErrRefreshFailed)}
	manager := NewTokenManager(NewDBTokenStore(database), refresher)

	_, err := manager.AccessToken(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrRefreshFailed)

	// The stale credential stays in place for a later reconnect.
	cred, getErr := db.GetCredential(database, "u1")
	require.NoError(t, getErr)
	require.NotNil(t, cred)
	assert.Equal(t, "access-u1", cred.AccessToken)
}
