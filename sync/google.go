// ABOUTME: Google Calendar implementation of the CalendarAPI interface
// ABOUTME: Builds a request-scoped calendar.Service per call from a static token
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tmccall/focal/models"
)

// GoogleCalendarAPI talks to the Google Calendar v3 API. Credentials are
// per-user, so the service is constructed per call rather than held as a
// process-wide client.
type GoogleCalendarAPI struct{}

var _ CalendarAPI = (*GoogleCalendarAPI)(nil)

func NewGoogleCalendarAPI() *GoogleCalendarAPI {
	return &GoogleCalendarAPI{}
}

func (g *GoogleCalendarAPI) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := calendar.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}

func (g *GoogleCalendarAPI) ListCalendars(ctx context.Context, accessToken string) ([]models.RemoteCalendar, error) {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	list, err := service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]models.RemoteCalendar, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, models.RemoteCalendar{
			ID:      item.Id,
			Summary: item.Summary,
			Primary: item.Primary,
		})
	}

	return calendars, nil
}

func (g *GoogleCalendarAPI) ListEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]models.RemoteEvent, error) {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	list, err := service.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", calendarID, err)
	}

	events := make([]models.RemoteEvent, 0, len(list.Items))
	for _, item := range list.Items {
		event, ok := convertEvent(item, calendarID)
		if ok {
			events = append(events, event)
		}
	}

	return events, nil
}

// convertEvent maps a provider event to a RemoteEvent. All-day and
// cancelled events are skipped.
func convertEvent(item *calendar.Event, calendarID string) (models.RemoteEvent, bool) {
	if item == nil || item.Status == "cancelled" {
		return models.RemoteEvent{}, false
	}
	if item.Start == nil || item.Start.DateTime == "" || item.End == nil || item.End.DateTime == "" {
		return models.RemoteEvent{}, false
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return models.RemoteEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return models.RemoteEvent{}, false
	}

	return models.RemoteEvent{
		ID:          item.Id,
		CalendarID:  calendarID,
		Start:       start,
		End:         end,
		Title:       item.Summary,
		Description: item.Description,
	}, true
}

func (g *GoogleCalendarAPI) FreeBusy(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]models.BusyInterval, error) {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	response, err := service.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy for %s: %w", calendarID, err)
	}

	entry, ok := response.Calendars[calendarID]
	if !ok {
		return nil, nil
	}

	intervals := make([]models.BusyInterval, 0, len(entry.Busy))
	for _, period := range entry.Busy {
		busyStart, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		busyEnd, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		intervals = append(intervals, models.BusyInterval{Start: busyStart, End: busyEnd})
	}

	return intervals, nil
}

func (g *GoogleCalendarAPI) InsertEvent(ctx context.Context, accessToken, calendarID string, payload EventPayload) (string, error) {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	created, err := service.Events.Insert(calendarID, toProviderEvent(payload)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	return created.Id, nil
}

func (g *GoogleCalendarAPI) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, payload EventPayload) error {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return err
	}

	_, err = service.Events.Update(calendarID, eventID, toProviderEvent(payload)).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	return nil
}

func (g *GoogleCalendarAPI) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	service, err := g.service(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		if isGone(err) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}

	return nil
}

func toProviderEvent(payload EventPayload) *calendar.Event {
	return &calendar.Event{
		Summary:     payload.Title,
		Description: payload.Description,
		Start:       &calendar.EventDateTime{DateTime: payload.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: payload.End.Format(time.RFC3339)},
	}
}

// isGone reports whether the provider says the target resource no longer
// exists. Google returns 404 for unknown event ids and 410 for deleted
// ones.
func isGone(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}
