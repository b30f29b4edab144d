package content

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/signage/internal/models"
)

type stubNotices struct {
	slides []models.Slide
	calls  atomic.Int32
	gotNow time.Time
}

func (s *stubNotices) Active(_ context.Context, _ string, now time.Time) []models.Slide {
	s.calls.Add(1)
	s.gotNow = now
	return s.slides
}

type stubFeed struct {
	slides []models.Slide
	calls  atomic.Int32
	gotURL string
	gotMax int
}

func (s *stubFeed) Fetch(_ context.Context, feedURL string, maxItems int) []models.Slide {
	s.calls.Add(1)
	s.gotURL = feedURL
	s.gotMax = maxItems
	return s.slides
}

type stubCalendar struct {
	events []models.CalendarEvent
	calls  atomic.Int32
}

func (s *stubCalendar) Upcoming(context.Context, string, time.Time) []models.CalendarEvent {
	s.calls.Add(1)
	return s.events
}

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func slides(kind models.SlideKind, titles ...string) []models.Slide {
	out := make([]models.Slide, 0, len(titles))
	for _, title := range titles {
		out = append(out, models.Slide{Kind: kind, Title: title})
	}
	return out
}

func newTestAssembler(n NoticeSource, f FeedSource, c CalendarSource) *Assembler {
	return NewAssembler(n, f, c, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
}

func TestAggregateComposesInOrder(t *testing.T) {
	notices := &stubNotices{slides: slides(models.SlideNotice, "n1", "n2")}
	feed := &stubFeed{slides: slides(models.SlideFeedItem, "f1", "f2", "f3")}
	cal := &stubCalendar{events: []models.CalendarEvent{
		{Summary: "e1", Start: "2024-01-05", End: "2024-01-06", AllDay: true},
		{Summary: "e2", Start: "2024-01-07T10:00:00Z", End: "2024-01-07T11:00:00Z"},
	}}

	screen := &models.Screen{ID: "001", Name: "Lobby", Config: models.ScreenConfig{
		FeedURL:            "https://example.org/rss",
		MaxItems:           3,
		CalendarID:         "team@example.org",
		CarouselIntervalMs: 15000,
	}}

	got, err := newTestAssembler(notices, feed, cal).Aggregate(context.Background(), screen)
	require.NoError(t, err)

	require.Len(t, got.Content, 6)
	titles := make([]string, 0, len(got.Content))
	for _, s := range got.Content {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"n1", "n2", "f1", "f2", "f3", CalendarSlideTitle}, titles)

	group := got.Content[5]
	assert.Equal(t, models.SlideCalendarGroup, group.Kind)
	assert.Equal(t, cal.events, group.Events)
	assert.Equal(t, cal.events, got.CalendarEvents)

	assert.Equal(t, "001", got.ScreenID)
	assert.Equal(t, "Lobby", got.ScreenName)
	assert.Equal(t, 15000, got.Config.CarouselIntervalMs)
	assert.Equal(t, 1800*1000, got.Config.ContentPollIntervalMs)

	assert.Equal(t, "https://example.org/rss", feed.gotURL)
	assert.Equal(t, 3, feed.gotMax)
	assert.Equal(t, fixedNow, notices.gotNow)
}

func TestAggregateWithoutEventsHasNoCalendarSlide(t *testing.T) {
	notices := &stubNotices{slides: slides(models.SlideNotice, "n1")}
	screen := &models.Screen{ID: "001"}

	got, err := newTestAssembler(notices, &stubFeed{}, &stubCalendar{}).Aggregate(context.Background(), screen)
	require.NoError(t, err)

	require.Len(t, got.Content, 1)
	assert.Equal(t, models.SlideNotice, got.Content[0].Kind)
	assert.NotNil(t, got.CalendarEvents)
	assert.Empty(t, got.CalendarEvents)
}

func TestAggregateSkipsDisabledSources(t *testing.T) {
	notices := &stubNotices{slides: slides(models.SlideNotice, "n1")}
	feed := &stubFeed{slides: slides(models.SlideFeedItem, "f1")}
	cal := &stubCalendar{events: []models.CalendarEvent{{Summary: "e1"}}}

	screen := &models.Screen{ID: "001", Config: models.ScreenConfig{
		IncludeFeed:     models.Bool(false),
		IncludeCalendar: models.Bool(false),
		FeedURL:         "https://example.org/rss",
	}}

	got, err := newTestAssembler(notices, feed, cal).Aggregate(context.Background(), screen)
	require.NoError(t, err)

	assert.Equal(t, int32(0), feed.calls.Load())
	assert.Equal(t, int32(0), cal.calls.Load())
	assert.Equal(t, int32(1), notices.calls.Load())
	require.Len(t, got.Content, 1)
	assert.Empty(t, got.CalendarEvents)
}

func TestAggregateIsolatesFailedSource(t *testing.T) {
	notices := &stubNotices{slides: slides(models.SlideNotice, "n1", "n2")}
	failingFeed := &stubFeed{slides: []models.Slide{}}
	cal := &stubCalendar{events: []models.CalendarEvent{{Summary: "e1"}}}

	got, err := newTestAssembler(notices, failingFeed, cal).Aggregate(context.Background(), &models.Screen{ID: "002"})
	require.NoError(t, err)

	require.Len(t, got.Content, 3)
	assert.Equal(t, "n1", got.Content[0].Title)
	assert.Equal(t, "n2", got.Content[1].Title)
	assert.Equal(t, models.SlideCalendarGroup, got.Content[2].Kind)
}

func TestAggregateIsDeterministic(t *testing.T) {
	notices := &stubNotices{slides: slides(models.SlideNotice, "n1")}
	feed := &stubFeed{slides: slides(models.SlideFeedItem, "f1", "f2")}
	cal := &stubCalendar{events: []models.CalendarEvent{{Summary: "e1"}}}
	a := newTestAssembler(notices, feed, cal)
	screen := &models.Screen{ID: "001", Name: "Lobby"}

	first, err := a.Aggregate(context.Background(), screen)
	require.NoError(t, err)
	second, err := a.Aggregate(context.Background(), screen)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateNilScreen(t *testing.T) {
	got, err := newTestAssembler(nil, nil, nil).Aggregate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilScreen)
	assert.Nil(t, got)
}
