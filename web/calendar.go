// ABOUTME: Calendar read endpoints and the OAuth callback
// ABOUTME: Aggregated events, free/busy queries, and connect/disconnect flows
package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmccall/focal/db"
	"github.com/tmccall/focal/models"
	"github.com/tmccall/focal/sync"
)

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	calendars, err := s.reader.ListCalendars(r.Context(), userID)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	if calendars == nil {
		calendars = []models.RemoteCalendar{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"calendars": calendars})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	timeMin, timeMax, ok := parseWindow(w, r.URL.Query().Get("timeMin"), r.URL.Query().Get("timeMax"))
	if !ok {
		return
	}

	var calendarIDs []string
	if raw := r.URL.Query().Get("calendarIds"); raw != "" {
		calendarIDs = strings.Split(raw, ",")
	}

	events, err := s.aggregator.ListEventsAcrossCalendars(r.Context(), userID, calendarIDs, timeMin, timeMax)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	if events == nil {
		events = []models.RemoteEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

type freeBusyRequest struct {
	TimeMin    string `json:"timeMin"`
	TimeMax    string `json:"timeMax"`
	CalendarID string `json:"calendarId"`
}

func (s *Server) handleFreeBusy(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req freeBusyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	timeMin, timeMax, ok := parseWindow(w, req.TimeMin, req.TimeMax)
	if !ok {
		return
	}

	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = sync.PrimaryCalendarID
	}

	intervals, err := s.reader.FreeBusy(r.Context(), userID, calendarID, timeMin, timeMax)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	if intervals == nil {
		intervals = []models.BusyInterval{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calendarId": calendarID,
		"busy":       intervals,
	})
}

// parseWindow validates the query window. Both bounds are required and
// timeMin must precede timeMax.
func parseWindow(w http.ResponseWriter, minRaw, maxRaw string) (time.Time, time.Time, bool) {
	if minRaw == "" || maxRaw == "" {
		writeError(w, http.StatusBadRequest, "timeMin and timeMax are required")
		return time.Time{}, time.Time{}, false
	}

	timeMin, err := time.Parse(time.RFC3339, minRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timeMin must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	timeMax, err := time.Parse(time.RFC3339, maxRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timeMax must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	if !timeMin.Before(timeMax) {
		writeError(w, http.StatusBadRequest, "timeMin must be before timeMax")
		return time.Time{}, time.Time{}, false
	}

	return timeMin, timeMax, true
}

// OAuth callback error variants, each rendered distinctly by the
// continuation page.
const (
	oauthErrMissingCode    = "missing_code"
	oauthErrMissingUser    = "missing_user"
	oauthErrExchangeFailed = "exchange_failed"
	oauthErrDenied         = "denied"
)

// handleOAuthCallback receives the provider's authorization redirect.
// The state parameter carries the local user id bound when the flow
// started.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID := query.Get("state")
	if userID == "" {
		s.redirectContinue(w, r, oauthErrMissingUser)
		return
	}

	if query.Get("error") != "" {
		s.redirectContinue(w, r, oauthErrDenied)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.redirectContinue(w, r, oauthErrMissingCode)
		return
	}

	cred, err := sync.ExchangeCode(r.Context(), s.oauthConfig, userID, code)
	if err != nil {
		s.redirectContinue(w, r, oauthErrExchangeFailed)
		return
	}

	if err := db.UpsertCredential(s.db, cred); err != nil {
		s.redirectContinue(w, r, oauthErrExchangeFailed)
		return
	}

	s.redirectContinue(w, r, "")
}

func (s *Server) redirectContinue(w http.ResponseWriter, r *http.Request, oauthErr string) {
	target := s.continueURL
	if target == "" {
		target = "/"
	}

	params := url.Values{}
	if oauthErr == "" {
		params.Set("calendar", "connected")
	} else {
		params.Set("calendar_error", oauthErr)
	}

	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}

	http.Redirect(w, r, target+separator+params.Encode(), http.StatusFound)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	if err := db.DeleteCredential(s.db, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
