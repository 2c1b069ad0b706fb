// ABOUTME: Tests for the HTTP JSON API
// ABOUTME: Verifies status codes, calendar endpoints, and OAuth callback redirects
package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

// stubAPI implements sync.CalendarAPI in memory.
type stubAPI struct {
	calendars []models.RemoteCalendar
	events    map[string][]models.RemoteEvent
	busy      map[string][]models.BusyInterval
	failList  map[string]error
	lastToken string
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		events:   make(map[string][]models.RemoteEvent),
		busy:     make(map[string][]models.BusyInterval),
		failList: make(map[string]error),
	}
}

func (s *stubAPI) ListCalendars(_ context.Context, token string) ([]models.RemoteCalendar, error) {
	s.lastToken = token
	return s.calendars, nil
}

func (s *stubAPI) ListEvents(_ context.Context, token, calendarID string, _, _ time.Time) ([]models.RemoteEvent, error) {
	s.lastToken = token
	if err := s.failList[calendarID]; err != nil {
		return nil, err
	}
	return s.events[calendarID], nil
}

func (s *stubAPI) FreeBusy(_ context.Context, token, calendarID string, _, _ time.Time) ([]models.BusyInterval, error) {
	s.lastToken = token
	return s.busy[calendarID], nil
}

func (s *stubAPI) InsertEvent(_ context.Context, _, _ string, _ sync.EventPayload) (string, error) {
	return "evt-1", nil
}

func (s *stubAPI) UpdateEvent(_ context.Context, _, _, _ string, _ sync.EventPayload) error {
	return nil
}

func (s *stubAPI) DeleteEvent(_ context.Context, _, _, _ string) error {
	return nil
}

// stubRefresher implements sync.Refresher with a canned token.
type stubRefresher struct {
	calls int
	token *oauth2.Token
}

func (s *stubRefresher) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	s.calls++
	return s.token, nil
}

type testServer struct {
	server    *Server
	database  *sql.DB
	api       *stubAPI
	refresher *stubRefresher
	trigger   *sync.Trigger
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	api := newStubAPI()
	refresher := &stubRefresher{token: &oauth2.Token{AccessToken: "refreshed", Expiry: time.Now().Add(time.Hour)}}

	tokens := sync.NewTokenManager(sync.NewDBTokenStore(database), refresher)
	reader := sync.NewReader(tokens, api)
	aggregator := sync.NewAggregator(reader)
	trigger := sync.NewTrigger(sync.NewReconciler(database, tokens, api))

	server := NewServer(database, reader, aggregator, trigger, &oauth2.Config{}, "/settings")

	return &testServer{server: server, database: database, api: api, refresher: refresher, trigger: trigger}
}

func (ts *testServer) connect(t *testing.T, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, db.UpsertCredential(ts.database, &models.CalendarCredential{
		UserID:       "u1",
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    expiresAt,
	}))
}

func (ts *testServer) request(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(userHeader, "u1")

	recorder := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestCalendarsRequiresUser(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest("GET", "/calendar/calendars", nil)
	recorder := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCalendarsNotConnectedIs404(t *testing.T) {
	ts := setupServer(t)

	recorder := ts.request("GET", "/calendar/calendars", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCalendarsListed(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))
	ts.api.calendars = []models.RemoteCalendar{{ID: "primary", Summary: "Main", Primary: true}}

	recorder := ts.request("GET", "/calendar/calendars", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload struct {
		Calendars []models.RemoteCalendar `json:"calendars"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Len(t, payload.Calendars, 1)
	assert.True(t, payload.Calendars[0].Primary)
}

func TestEventsRequireWindow(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))

	recorder := ts.request("GET", "/calendar/events", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = ts.request("GET", "/calendar/events?timeMin=2025-05-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// Inverted window
	recorder = ts.request("GET", "/calendar/events?timeMin=2025-05-02T00:00:00Z&timeMax=2025-05-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestEventsAggregatedAndDeduplicated(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))
	ts.api.events["work"] = []models.RemoteEvent{{ID: "a"}, {ID: "b"}}
	ts.api.events["shared"] = []models.RemoteEvent{{ID: "a"}}
	ts.api.failList["broken"] = fmt.Errorf("down")

	recorder := ts.request("GET", "/calendar/events?timeMin=2025-05-01T00:00:00Z&timeMax=2025-05-02T00:00:00Z&calendarIds=work,shared,broken", "")
	require.Equal(t, http.StatusOK, recorder.Code, "a failing calendar must not fail the response")

	var payload struct {
		Events []models.RemoteEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Len(t, payload.Events, 2)
}

func TestFreeBusyDefaultsToPrimaryAndRefreshesInline(t *testing.T) {
	ts := setupServer(t)
	// Expired credential: the endpoint must refresh and persist before
	// answering.
	ts.connect(t, time.Now().Add(-time.Minute))

	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	ts.api.busy[sync.PrimaryCalendarID] = []models.BusyInterval{{Start: start, End: start.Add(time.Hour)}}

	body := `{"timeMin":"2025-05-01T00:00:00Z","timeMax":"2025-05-02T00:00:00Z"}`
	recorder := ts.request("POST", "/calendar/freebusy", body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload struct {
		CalendarID string                `json:"calendarId"`
		Busy       []models.BusyInterval `json:"busy"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, sync.PrimaryCalendarID, payload.CalendarID)
	assert.Len(t, payload.Busy, 1)

	assert.Equal(t, 1, ts.refresher.calls)
	assert.Equal(t, "refreshed", ts.api.lastToken)

	cred, err := db.GetCredential(ts.database, "u1")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", cred.AccessToken, "refreshed token persisted before answering")
}

func TestFreeBusyRequiresWindow(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))

	recorder := ts.request("POST", "/calendar/freebusy", `{"timeMin":"2025-05-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestOAuthCallbackErrorVariants(t *testing.T) {
	ts := setupServer(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing user", "/oauth/callback?code=abc", "calendar_error=missing_user"},
		{"missing code", "/oauth/callback?state=u1", "calendar_error=missing_code"},
		{"provider denied", "/oauth/callback?state=u1&error=access_denied", "calendar_error=denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			recorder := httptest.NewRecorder()
			ts.server.Handler().ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusFound, recorder.Code)
			assert.Contains(t, recorder.Header().Get("Location"), tt.want)
		})
	}
}

func TestDisconnectDeletesCredential(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))

	recorder := ts.request("DELETE", "/calendar/connection", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	cred, err := db.GetCredential(ts.database, "u1")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts := setupServer(t)
	ts.connect(t, time.Now().Add(time.Hour))

	// Create with a due date: sync inserts a remote event and links it.
	recorder := ts.request("POST", "/tasks", `{"title":"write report","due_date":"2025-05-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &task))
	ts.trigger.Flush()

	link, err := db.GetLink(ts.database, task.ID)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "evt-1", link.RemoteEventID)

	// Clear the due date: the link goes away.
	recorder = ts.request("PATCH", "/tasks/"+task.ID.String(), `{"clear_due_date":true}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	ts.trigger.Flush()

	link, err = db.GetLink(ts.database, task.ID)
	require.NoError(t, err)
	assert.Nil(t, link)

	// Delete the task entirely.
	recorder = ts.request("DELETE", "/tasks/"+task.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	ts.trigger.Flush()

	recorder = ts.request("GET", "/tasks/"+task.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	ts := setupServer(t)

	recorder := ts.request("POST", "/tasks", `{}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
