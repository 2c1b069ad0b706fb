// ABOUTME: Database operations for calendar OAuth credentials
// ABOUTME: Manages per-user access/refresh token storage and refresh persistence
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tmccall/focal/models"
)

// GetCredential retrieves the calendar credential for a user.
// Returns nil if the user has never connected a calendar.
func GetCredential(db *sql.DB, userID string) (*models.CalendarCredential, error) {
	var cred models.CalendarCredential
	var scope sql.NullString

	err := db.QueryRow(`
		SELECT user_id, access_token, refresh_token, expires_at, scope, created_at, updated_at
		FROM calendar_credentials
		WHERE user_id = ?
	`, userID).Scan(&cred.UserID, &cred.AccessToken, &cred.RefreshToken,
		&cred.ExpiresAt, &scope, &cred.CreatedAt, &cred.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	if scope.Valid {
		cred.Scope = scope.String
	}

	return &cred, nil
}

// UpsertCredential stores a full credential, replacing any existing row
// for the user. Used on first connect and reconnect.
func UpsertCredential(db *sql.DB, cred *models.CalendarCredential) error {
	_, err := db.Exec(`
		INSERT INTO calendar_credentials (user_id, access_token, refresh_token, expires_at, scope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			updated_at = CURRENT_TIMESTAMP
	`, cred.UserID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt.UTC(), cred.Scope)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// UpdateAccessToken overwrites only the access token and expiry after a
// refresh. The refresh token is left untouched since the provider does
// not always rotate it.
func UpdateAccessToken(db *sql.DB, userID, accessToken string, expiresAt time.Time) error {
	result, err := db.Exec(`
		UPDATE calendar_credentials
		SET access_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, accessToken, expiresAt.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no credential for user %s", userID)
	}

	return nil
}

// DeleteCredential removes a user's credential on disconnect.
func DeleteCredential(db *sql.DB, userID string) error {
	_, err := db.Exec(`DELETE FROM calendar_credentials WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
