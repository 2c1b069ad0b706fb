// ABOUTME: Shared test fixtures for the sync package
// ABOUTME: In-memory database setup plus fake provider API and refresher
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func seedCredential(t *testing.T, database *sql.DB, userID string, expiresAt time.Time) {
	t.Helper()

	err := db.UpsertCredential(database, &models.CalendarCredential{
		UserID:       userID,
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
}

// fakeRefresher counts refresh-token exchanges and returns a canned
// token or error.
type fakeRefresher struct {
	calls int
	token *oauth2.Token
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

// fakeAPI is an in-memory stand-in for the provider's calendar API.
type fakeAPI struct {
	mu stdsync.Mutex

	calendars []models.RemoteCalendar
	events    map[string][]models.RemoteEvent
	busy      map[string][]models.BusyInterval
	failList  map[string]error

	// Writable event store keyed by event id.
	store  map[string]EventPayload
	nextID int

	insertErr error
	updateErr error
	deleteErr error

	listCalendarCalls int
	listEventCalls    int
	freeBusyCalls     int
	insertCalls       int
	updateCalls       int
	deleteCalls       int

	lastToken string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		events:   make(map[string][]models.RemoteEvent),
		busy:     make(map[string][]models.BusyInterval),
		failList: make(map[string]error),
		store:    make(map[string]EventPayload),
	}
}

func (f *fakeAPI) ListCalendars(_ context.Context, token string) ([]models.RemoteCalendar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalendarCalls++
	f.lastToken = token
	return f.calendars, nil
}

func (f *fakeAPI) ListEvents(_ context.Context, token, calendarID string, _, _ time.Time) ([]models.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listEventCalls++
	f.lastToken = token
	if err := f.failList[calendarID]; err != nil {
		return nil, err
	}
	return f.events[calendarID], nil
}

func (f *fakeAPI) FreeBusy(_ context.Context, token, calendarID string, _, _ time.Time) ([]models.BusyInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freeBusyCalls++
	f.lastToken = token
	return f.busy[calendarID], nil
}

func (f *fakeAPI) InsertEvent(_ context.Context, token, _ string, payload EventPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	f.lastToken = token
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	id := fmt.Sprintf("evt-%d", f.nextID)
	f.store[id] = payload
	return id, nil
}

func (f *fakeAPI) UpdateEvent(_ context.Context, token, _, eventID string, payload EventPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastToken = token
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.store[eventID]; !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	f.store[eventID] = payload
	return nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, token, _, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	f.lastToken = token
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.store[eventID]; !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	delete(f.store, eventID)
	return nil
}

// freshToken is a refresher result that stays valid for the whole test.
func freshToken(access string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: access,
		Expiry:      time.Now().Add(time.Hour),
	}
}
