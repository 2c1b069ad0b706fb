// ABOUTME: Concurrent multi-calendar event aggregation
// ABOUTME: Fans out per-calendar queries, keeps successes, dedups by event id
package sync

import (
	"context"
	"log"
	stdsync "sync"
	"time"

	"github.com/tmccall/focal/models"
)

// Aggregator merges per-calendar event queries into one deduplicated
// view. A failing calendar never aborts its siblings; only calendars
// that succeed contribute events.
type Aggregator struct {
	reader *Reader
}

func NewAggregator(reader *Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// ListEventsAcrossCalendars queries every calendar in calendarIDs
// concurrently and returns the union of their events with each event id
// appearing once. An empty calendarIDs means the whole account: the id
// set is resolved via ListCalendars first. Output order is unspecified.
func (a *Aggregator) ListEventsAcrossCalendars(ctx context.Context, userID string, calendarIDs []string, start, end time.Time) ([]models.RemoteEvent, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	if len(calendarIDs) == 0 {
		calendars, err := a.reader.ListCalendars(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, cal := range calendars {
			calendarIDs = append(calendarIDs, cal.ID)
		}
	}

	// Warm the token once before fanning out so the concurrent fetches
	// don't each race into a refresh. A race is still tolerated; the
	// provider treats refresh exchanges as idempotent per call.
	if _, err := a.reader.accessToken(ctx, userID); err != nil {
		return nil, err
	}

	results := make([][]models.RemoteEvent, len(calendarIDs))
	errs := make([]error, len(calendarIDs))

	var wg stdsync.WaitGroup
	for i, calendarID := range calendarIDs {
		wg.Add(1)
		go func(i int, calendarID string) {
			defer wg.Done()
			results[i], errs[i] = a.reader.ListEvents(ctx, userID, calendarID, start, end)
		}(i, calendarID)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var merged []models.RemoteEvent
	for i := range results {
		if errs[i] != nil {
			// Partial-success policy: log and move on.
			log.Printf("calendar %s fetch failed: %v", calendarIDs[i], errs[i])
			continue
		}
		for _, event := range results[i] {
			if seen[event.ID] {
				continue
			}
			seen[event.ID] = true
			merged = append(merged, event)
		}
	}

	return merged, nil
}
