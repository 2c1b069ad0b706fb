// ABOUTME: OAuth configuration and authorization-code exchange for Google Calendar
// ABOUTME: Builds oauth2.Config from environment and converts tokens to credentials
package sync

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/tmccall/focal/models"
)

const defaultRedirectURL = "http://localhost:8080/oauth/callback"

// NewOAuthConfig creates the OAuth2 config for the Google Calendar API.
// Users must create their own OAuth app in Google Cloud Console; client
// credentials come from the environment.
func NewOAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}

	redirectURL := os.Getenv("FOCAL_OAUTH_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = defaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarScope,
			calendar.CalendarEventsScope,
		},
		Endpoint: google.Endpoint,
	}, nil
}

// ExchangeCode trades an authorization code for a full credential. Used
// by the OAuth callback on first connect.
func ExchangeCode(ctx context.Context, config *oauth2.Config, userID, code string) (*models.CalendarCredential, error) {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if token.RefreshToken == "" {
		return nil, fmt.Errorf("authorization response contained no refresh token")
	}

	cred := &models.CalendarCredential{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.UTC(),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	if cred.ExpiresAt.IsZero() {
		// Providers that omit expires_in get a short validity window so
		// the next use goes through a refresh.
		cred.ExpiresAt = time.Now().UTC().Add(time.Minute)
	}

	return cred, nil
}
