// ABOUTME: Token store and refresh handling for calendar credentials
// ABOUTME: Refreshes expired access tokens exactly once and persists the result
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
)

// TokenStore persists per-user calendar credentials.
type TokenStore interface {
	Get(userID string) (*models.CalendarCredential, error)
	// SaveRefreshed overwrites only the access token and expiry. The
	// refresh token stays as stored since the provider does not always
	// rotate it.
	SaveRefreshed(userID, accessToken string, expiresAt time.Time) error
	Delete(userID string) error
}

// DBTokenStore backs TokenStore with the calendar_credentials table.
type DBTokenStore struct {
	db *sql.DB
}

func NewDBTokenStore(database *sql.DB) *DBTokenStore {
	return &DBTokenStore{db: database}
}

func (s *DBTokenStore) Get(userID string) (*models.CalendarCredential, error) {
	return db.GetCredential(s.db, userID)
}

func (s *DBTokenStore) SaveRefreshed(userID, accessToken string, expiresAt time.Time) error {
	return db.UpdateAccessToken(s.db, userID, accessToken, expiresAt)
}

func (s *DBTokenStore) Delete(userID string) error {
	return db.DeleteCredential(s.db, userID)
}

// Refresher exchanges a refresh token for a new access token. Stateless.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthRefresher implements Refresher against the provider's OAuth
// token endpoint.
type OAuthRefresher struct {
	config *oauth2.Config
}

func NewOAuthRefresher(config *oauth2.Config) *OAuthRefresher {
	return &OAuthRefresher{config: config}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return token, nil
}

// TokenManager is the single path every consumer takes to obtain a valid
// access token: look up the credential, refresh iff expired, persist the
// refreshed token, hand back the one to use.
type TokenManager struct {
	store     TokenStore
	refresher Refresher
	now       func() time.Time
}

func NewTokenManager(store TokenStore, refresher Refresher) *TokenManager {
	return &TokenManager{
		store:     store,
		refresher: refresher,
		now:       time.Now,
	}
}

// AccessToken returns a currently valid access token for the user,
// refreshing and persisting first when the stored one is past expiry.
// Returns ErrNotConnected when no credential exists and ErrRefreshFailed
// when the exchange is rejected. At most one refresh per call.
func (m *TokenManager) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.store.Get(userID)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return "", ErrNotConnected
	}

	if !cred.Expired(m.now()) {
		return cred.AccessToken, nil
	}

	token, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	if err := m.store.SaveRefreshed(userID, token.AccessToken, token.Expiry.UTC()); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return token.AccessToken, nil
}
