// Package calendar lists upcoming events from a Google calendar or an ICS
// subscription.
package calendar

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/metrics"
	"github.com/bilgisen/signage/internal/models"
)

const (
	// DefaultHorizon is how far ahead events are listed
	DefaultHorizon = 60 * 24 * time.Hour

	// DefaultBaseURL is the Google Calendar API v3 root
	DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

	dateLayout = "2006-01-02"
)

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	APIKey   string
	BaseURL  string
	Horizon  time.Duration
	Timeout  time.Duration
	Location *time.Location
}

type Fetcher struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	horizon time.Duration
	loc     *time.Location
	log     zerolog.Logger
}

func NewFetcher(opts Options, log zerolog.Logger) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Fetcher{
		client: resty.New().
			SetTimeout(opts.Timeout).
			SetRetryCount(0),
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		horizon: opts.Horizon,
		loc:     opts.Location,
		log:     log.With().Str("component", "calendar").Logger(),
	}
}

// Upcoming returns the event instances in [now, now+horizon] ordered by
// start. Every failure is logged and yields an empty list.
func (f *Fetcher) Upcoming(ctx context.Context, calendarID string, now time.Time) []models.CalendarEvent {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return []models.CalendarEvent{}
	}

	start := time.Now()
	window := Window{Start: now, End: now.Add(f.horizon)}

	var (
		events []models.CalendarEvent
		err    error
		source = "google_calendar"
	)
	if IsSubscriptionURL(calendarID) {
		source = "ics"
		events, err = f.fetchICS(ctx, calendarID, window)
	} else {
		events, err = f.fetchGoogle(ctx, calendarID, window)
	}
	if err != nil {
		f.log.Error().
			Err(err).
			Str("calendar_id", calendarID).
			Msg("Error fetching calendar events")
		metrics.ObserveSource(source, start, false, 0)
		return []models.CalendarEvent{}
	}

	metrics.ObserveSource(source, start, true, len(events))
	return events
}

// Window is the closed interval events must overlap
type Window struct {
	Start time.Time
	End   time.Time
}

// IsSubscriptionURL reports whether the calendar id points at an ICS feed
func IsSubscriptionURL(calendarID string) bool {
	lower := strings.ToLower(calendarID)
	for _, prefix := range []string{"http://", "https://", "webcal://"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

type instance struct {
	summary     string
	description string
	start       time.Time
	end         time.Time
	allDay      bool
}

func (i instance) event(loc *time.Location) models.CalendarEvent {
	ev := models.CalendarEvent{
		Summary:     i.summary,
		Description: i.description,
		AllDay:      i.allDay,
	}
	if i.allDay {
		ev.Start = i.start.Format(dateLayout)
		ev.End = i.end.Format(dateLayout)
	} else {
		ev.Start = i.start.In(loc).Format(time.RFC3339)
		ev.End = i.end.In(loc).Format(time.RFC3339)
	}
	return ev
}

func sortInstances(instances []instance) {
	slices.SortStableFunc(instances, func(a, b instance) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return strings.Compare(a.summary, b.summary)
	})
}
