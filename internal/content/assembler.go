// Package content aggregates a screen's sources into the slide list shown by
// its display.
package content

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/metrics"
	"github.com/bilgisen/signage/internal/models"
)

// CalendarSlideTitle is the title of the slide grouping upcoming events
const CalendarSlideTitle = "Upcoming Events"

// ErrNilScreen is returned when Aggregate is called without a screen
var ErrNilScreen = errors.New("content: screen is nil")

// NoticeSource lists the notices active for a screen
type NoticeSource interface {
	Active(ctx context.Context, screenID string, now time.Time) []models.Slide
}

// FeedSource lists the latest items of a syndication feed
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string, maxItems int) []models.Slide
}

// CalendarSource lists upcoming calendar events
type CalendarSource interface {
	Upcoming(ctx context.Context, calendarID string, now time.Time) []models.CalendarEvent
}

// Assembler fans a screen's enabled sources out concurrently and composes
// their results. Sources fail soft, so an unavailable source only leaves its
// part of the carousel empty.
type Assembler struct {
	notices  NoticeSource
	feed     FeedSource
	calendar CalendarSource
	now      func() time.Time
	log      zerolog.Logger
}

// Option customises an Assembler
type Option func(*Assembler)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(notices NoticeSource, feed FeedSource, calendar CalendarSource, log zerolog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		notices:  notices,
		feed:     feed,
		calendar: calendar,
		now:      time.Now,
		log:      log.With().Str("component", "content").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds the display envelope for screen: active notices, then
// feed items, then a single calendar group slide when there are events.
func (a *Assembler) Aggregate(ctx context.Context, screen *models.Screen) (*models.AggregatedContent, error) {
	if screen == nil {
		return nil, ErrNilScreen
	}

	start := time.Now()
	now := a.now()
	cfg := screen.Config

	var (
		wg      sync.WaitGroup
		notices []models.Slide
		items   []models.Slide
		events  []models.CalendarEvent
	)

	if cfg.NoticesEnabled() && a.notices != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notices = a.notices.Active(ctx, screen.ID, now)
		}()
	}

	if cfg.FeedEnabled() && a.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items = a.feed.Fetch(ctx, cfg.FeedURL, cfg.MaxItems)
		}()
	}

	if cfg.CalendarEnabled() && a.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events = a.calendar.Upcoming(ctx, cfg.CalendarID, now)
		}()
	}

	wg.Wait()

	if events == nil {
		events = []models.CalendarEvent{}
	}

	slides := make([]models.Slide, 0, len(notices)+len(items)+1)
	slides = append(slides, notices...)
	slides = append(slides, items...)
	if len(events) > 0 {
		slides = append(slides, models.Slide{
			Kind:   models.SlideCalendarGroup,
			Title:  CalendarSlideTitle,
			Events: events,
		})
	}

	metrics.AggregationsTotal.Inc()
	a.log.Debug().
		Str("screen_id", screen.ID).
		Int("notices", len(notices)).
		Int("feed_items", len(items)).
		Int("events", len(events)).
		Dur("duration", time.Since(start)).
		Msg("Aggregated screen content")

	return &models.AggregatedContent{
		ScreenID:       screen.ID,
		ScreenName:     screen.Name,
		Content:        slides,
		CalendarEvents: events,
		Config: models.DisplayConfig{
			CarouselIntervalMs:    cfg.CarouselIntervalMs,
			ContentPollIntervalMs: models.ContentPollIntervalMs,
		},
	}, nil
}
