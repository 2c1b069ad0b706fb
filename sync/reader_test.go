// ABOUTME: Tests for credential-aware calendar read operations
// ABOUTME: Verifies range validation, refresh side effects, and error mapping
package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmccall/focal/models"
)

func newTestReader(t *testing.T, api *fakeAPI, refresher *fakeRefresher, expiresAt time.Time) *Reader {
	t.Helper()

	database := setupTestDB(t)
	seedCredential(t, database, "u1", expiresAt)

	return NewReader(NewTokenManager(NewDBTokenStore(database), refresher), api)
}

func TestListEventsRejectsInvertedRange(t *testing.T) {
	api := newFakeAPI()
	reader := newTestReader(t, api, &fakeRefresher{}, time.Now().Add(time.Hour))

	now := time.Now()
	_, err := reader.ListEvents(context.Background(), "u1", "primary", now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = reader.ListEvents(context.Background(), "u1", "primary", now, now)
	assert.ErrorIs(t, err, ErrInvalidRange)

	assert.Equal(t, 0, api.listEventCalls, "provider must not be called for a bad range")
}

func TestFreeBusyRejectsInvertedRange(t *testing.T) {
	api := newFakeAPI()
	reader := newTestReader(t, api, &fakeRefresher{}, time.Now().Add(time.Hour))

	now := time.Now()
	_, err := reader.FreeBusy(context.Background(), "u1", "primary", now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, 0, api.freeBusyCalls)
}

func TestListEventsRefreshesExpiredTokenFirst(t *testing.T) {
	api := newFakeAPI()
	api.events["primary"] = []models.RemoteEvent{{ID: "a", CalendarID: "primary"}}

	refresher := &fakeRefresher{token: freshToken("refreshed")}
	reader := newTestReader(t, api, refresher, time.Now().Add(-time.Minute))

	now := time.Now()
	events, err := reader.ListEvents(context.Background(), "u1", "primary", now, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, "refreshed", api.lastToken, "data call must use the refreshed token")
}

func TestListCalendarsValidTokenNoRefresh(t *testing.T) {
	api := newFakeAPI()
	api.calendars = []models.RemoteCalendar{{ID: "primary", Summary: "Main", Primary: true}}

	refresher := &fakeRefresher{token: freshToken("unused")}
	reader := newTestReader(t, api, refresher, time.Now().Add(time.Hour))

	calendars, err := reader.ListCalendars(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, calendars, 1)
	assert.Equal(t, 0, refresher.calls)
	assert.Equal(t, "access-u1", api.lastToken)
}

func TestReaderMapsRefreshFailureToUnavailable(t *testing.T) {
	api := newFakeAPI()
	refresher := &fakeRefresher{err: fmt.Errorf("%w: revoked", ErrRefreshFailed)}
	reader := newTestReader(t, api, refresher, time.Now().Add(-time.Minute))

	_, err := reader.ListCalendars(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCalendarUnavailable)
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestReaderMapsTransportFailureToUnavailable(t *testing.T) {
	api := newFakeAPI()
	api.failList["primary"] = fmt.Errorf("connection reset")
	reader := newTestReader(t, api, &fakeRefresher{}, time.Now().Add(time.Hour))

	now := time.Now()
	_, err := reader.ListEvents(context.Background(), "u1", "primary", now, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrCalendarUnavailable)
}

func TestReaderNotConnectedPassesThrough(t *testing.T) {
	database := setupTestDB(t)
	reader := NewReader(NewTokenManager(NewDBTokenStore(database), &fakeRefresher{}), newFakeAPI())

	_, err := reader.ListCalendars(context.Background(), "stranger")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NotErrorIs(t, err, ErrCalendarUnavailable)
}

func TestFreeBusyReturnsBusyIntervals(t *testing.T) {
	api := newFakeAPI()
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	api.busy["primary"] = []models.BusyInterval{{Start: start, End: start.Add(time.Hour)}}

	reader := newTestReader(t, api, &fakeRefresher{}, time.Now().Add(time.Hour))

	intervals, err := reader.FreeBusy(context.Background(), "u1", "primary", start, start.Add(8*time.Hour))
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, start, intervals[0].Start)
}
