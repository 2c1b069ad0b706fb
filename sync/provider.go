// ABOUTME: Provider-facing calendar API interface
// ABOUTME: The six remote data operations the sync core depends on
package sync

import (
	"context"
	"time"

	"github.com/tmccall/focal/models"
)

// EventPayload is the writable content of a remote event.
type EventPayload struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarAPI is the complete provider surface the core depends on.
// Implementations must report a missing target event as ErrEventNotFound
// so callers can distinguish it from other failures.
type CalendarAPI interface {
	ListCalendars(ctx context.Context, accessToken string) ([]models.RemoteCalendar, error)
	ListEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]models.RemoteEvent, error)
	FreeBusy(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]models.BusyInterval, error)
	InsertEvent(ctx context.Context, accessToken, calendarID string, payload EventPayload) (string, error)
	UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, payload EventPayload) error
	DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error
}
