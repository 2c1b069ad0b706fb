// ABOUTME: Credential-aware read operations against one calendar
// ABOUTME: Lists calendars, lists events in a window, and queries free/busy
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmccall/focal/models"
)

// PrimaryCalendarID is the provider alias for the account's primary
// calendar.
const PrimaryCalendarID = "primary"

// Reader performs read operations for one user's calendar account. Every
// operation goes through the token manager first, so an expired access
// token is refreshed and persisted before the data call — visible to the
// token store but transparent to the caller.
type Reader struct {
	tokens *TokenManager
	api    CalendarAPI
}

func NewReader(tokens *TokenManager, api CalendarAPI) *Reader {
	return &Reader{tokens: tokens, api: api}
}

// ListCalendars returns all calendars owned by or shared with the user.
func (r *Reader) ListCalendars(ctx context.Context, userID string) ([]models.RemoteCalendar, error) {
	token, err := r.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	calendars, err := r.api.ListCalendars(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	return calendars, nil
}

// ListEvents returns the events of one calendar inside [start, end).
func (r *Reader) ListEvents(ctx context.Context, userID, calendarID string, start, end time.Time) ([]models.RemoteEvent, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	token, err := r.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	events, err := r.api.ListEvents(ctx, token, calendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	return events, nil
}

// FreeBusy returns the busy intervals of one calendar inside [start, end).
func (r *Reader) FreeBusy(ctx context.Context, userID, calendarID string, start, end time.Time) ([]models.BusyInterval, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	token, err := r.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	intervals, err := r.api.FreeBusy(ctx, token, calendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	return intervals, nil
}

// accessToken resolves a valid token, mapping a rejected refresh to
// ErrCalendarUnavailable for read callers. ErrNotConnected passes
// through untouched.
func (r *Reader) accessToken(ctx context.Context, userID string) (string, error) {
	token, err := r.tokens.AccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRefreshFailed) {
			return "", fmt.Errorf("%w: %w", ErrCalendarUnavailable, err)
		}
		return "", err
	}
	return token, nil
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidRange)
	}
	return nil
}
