// ABOUTME: Error taxonomy for the calendar sync subsystem
// ABOUTME: Sentinel errors matched with errors.Is by callers and handlers
package sync

import "errors"

var (
	// ErrNotConnected means the user has no calendar credential on file.
	// A normal state, not a failure to surface to the end user.
	ErrNotConnected = errors.New("calendar not connected")

	// ErrInvalidRange means the caller supplied a malformed or inverted
	// time window.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrCalendarUnavailable means a transport or auth failure after one
	// refresh attempt.
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrRefreshFailed means the refresh-token exchange was rejected,
	// typically because the user revoked access and must reconnect.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrSyncFailed means the provider rejected an otherwise-valid
	// reconciliation attempt for a reason other than "not found".
	ErrSyncFailed = errors.New("calendar sync failed")

	// ErrEventNotFound is reported by the provider API when the target
	// event no longer exists on the remote side.
	ErrEventNotFound = errors.New("remote event not found")
)
