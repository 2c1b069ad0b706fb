// ABOUTME: Calendar read CLI commands
// ABOUTME: Lists calendars, shows an aggregated agenda, and queries free/busy windows
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tmccall/focal/sync"
)

// newReader wires the read side of the calendar pipeline.
func newReader(database *sql.DB) *sync.Reader {
	tokens := sync.NewTokenManager(sync.NewDBTokenStore(database), sync.NewOAuthRefresher(oauthConfigOrEmpty()))
	return sync.NewReader(tokens, sync.NewGoogleCalendarAPI())
}

// CalendarsCommand lists the calendars visible to the connected account.
func CalendarsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("calendars", flag.ExitOnError)
	_ = fs.Parse(args)

	calendars, err := newReader(database).ListCalendars(context.Background(), currentUser())
	if err != nil {
		return describeSyncError(err)
	}

	if len(calendars) == 0 {
		fmt.Println("No calendars found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tID\tPRIMARY")
	_, _ = fmt.Fprintln(w, "----\t--\t-------")

	for _, calendar := range calendars {
		primary := ""
		if calendar.Primary {
			primary = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", calendar.Summary, calendar.ID, primary)
	}

	return w.Flush()
}

// AgendaCommand shows events aggregated across calendars for a window.
func AgendaCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("agenda", flag.ExitOnError)
	days := fs.Int("days", 1, "Window length in days, starting now")
	calendars := fs.String("calendars", "", "Comma-separated calendar IDs (default: all)")
	_ = fs.Parse(args)

	if *days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	start := time.Now()
	end := start.AddDate(0, 0, *days)

	var calendarIDs []string
	if *calendars != "" {
		calendarIDs = strings.Split(*calendars, ",")
	}

	aggregator := sync.NewAggregator(newReader(database))
	events, err := aggregator.ListEventsAcrossCalendars(context.Background(), currentUser(), calendarIDs, start, end)
	if err != nil {
		return describeSyncError(err)
	}

	if len(events) == 0 {
		fmt.Println("No events in window")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "START\tEND\tTITLE\tCALENDAR")
	_, _ = fmt.Fprintln(w, "-----\t---\t-----\t--------")

	for _, event := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			event.Start.Local().Format("Mon 15:04"),
			event.End.Local().Format("15:04"),
			event.Title,
			event.CalendarID,
		)
	}

	return w.Flush()
}

// FreeBusyCommand shows busy intervals for one calendar over a window.
func FreeBusyCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("freebusy", flag.ExitOnError)
	calendar := fs.String("calendar", sync.PrimaryCalendarID, "Calendar ID")
	days := fs.Int("days", 1, "Window length in days, starting now")
	_ = fs.Parse(args)

	if *days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	start := time.Now()
	end := start.AddDate(0, 0, *days)

	intervals, err := newReader(database).FreeBusy(context.Background(), currentUser(), *calendar, start, end)
	if err != nil {
		return describeSyncError(err)
	}

	if len(intervals) == 0 {
		fmt.Printf("No busy intervals on %s\n", *calendar)
		return nil
	}

	fmt.Printf("Busy on %s:\n", *calendar)
	for _, interval := range intervals {
		fmt.Printf("  %s — %s\n",
			interval.Start.Local().Format("Mon 15:04"),
			interval.End.Local().Format("Mon 15:04"),
		)
	}

	return nil
}

// describeSyncError turns sync-core errors into actionable CLI messages.
func describeSyncError(err error) error {
	switch {
	case errors.Is(err, sync.ErrNotConnected):
		return fmt.Errorf("no calendar connected. Run 'focal connect' first")
	case errors.Is(err, sync.ErrCalendarUnavailable):
		return fmt.Errorf("calendar unavailable: %w", err)
	default:
		return err
	}
}
