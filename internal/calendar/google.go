package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bilgisen/signage/internal/models"
)

// ErrMissingAPIKey is returned when a Google calendar is configured without
// an API key
var ErrMissingAPIKey = errors.New("google calendar api key is not configured")

const (
	// googlePageSize is the largest page the events endpoint serves
	googlePageSize = 2500
	// googleMaxPages bounds pagination for a single fetch
	googleMaxPages = 10
)

type googleEvents struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type googleEvent struct {
	Status      string          `json:"status"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

// googleEventTime carries either a date-time for timed events or a date for
// all-day events
type googleEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

func (t googleEventTime) value() (string, bool) {
	if t.DateTime != "" {
		return t.DateTime, false
	}
	return t.Date, true
}

type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (f *Fetcher) fetchGoogle(ctx context.Context, calendarID string, window Window) ([]models.CalendarEvent, error) {
	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var all []googleEvent
	pageToken := ""
	for page := 0; ; page++ {
		if page == googleMaxPages {
			f.log.Warn().
				Str("calendar_id", calendarID).
				Int("events", len(all)).
				Msg("Calendar has more pages than fetched, later events are dropped")
			break
		}

		result, err := f.fetchGooglePage(ctx, calendarID, window, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Items...)

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	items := lo.Filter(all, func(item googleEvent, _ int) bool {
		return item.Status != "cancelled"
	})

	return lo.Map(items, func(item googleEvent, _ int) models.CalendarEvent {
		start, allDay := item.Start.value()
		end, _ := item.End.value()
		return models.CalendarEvent{
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
			AllDay:      allDay,
		}
	}), nil
}

func (f *Fetcher) fetchGooglePage(ctx context.Context, calendarID string, window Window, pageToken string) (*googleEvents, error) {
	params := map[string]string{
		"singleEvents": "true",
		"orderBy":      "startTime",
		"maxResults":   strconv.Itoa(googlePageSize),
		"timeMin":      window.Start.UTC().Format(time.RFC3339),
		"timeMax":      window.End.UTC().Format(time.RFC3339),
		"key":          f.apiKey,
	}
	if pageToken != "" {
		params["pageToken"] = pageToken
	}

	var result googleEvents
	var apiErr googleError
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("calendarId", calendarID).
		SetQueryParams(params).
		SetHeader("Accept", "application/json").
		SetResult(&result).
		SetError(&apiErr).
		Get(f.baseURL + "/calendars/{calendarId}/events")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar %s: %w", calendarID, err)
	}

	if resp.IsError() {
		detail := strings.TrimSpace(apiErr.Error.Message)
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("unexpected status code %d from calendar api: %s", resp.StatusCode(), detail)
	}
	return &result, nil
}
