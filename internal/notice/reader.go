// Package notice selects the admin notices that are currently active for a
// screen and maps them to carousel slides.
package notice

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/metrics"
	"github.com/bilgisen/signage/internal/models"
)

// CaptionLayout formats the end of the validity window on notice slides
const CaptionLayout = "02/01/2006 at 15:04"

// Layouts accepted for StartsAt/EndsAt besides RFC 3339. Values without a
// zone are read in the display timezone.
var layouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Lister is the read side of the notice store
type Lister interface {
	ListNotices(ctx context.Context) ([]models.Notice, error)
}

type Reader struct {
	store Lister
	loc   *time.Location
	log   zerolog.Logger
}

func NewReader(store Lister, loc *time.Location, log zerolog.Logger) *Reader {
	if loc == nil {
		loc = time.UTC
	}
	return &Reader{
		store: store,
		loc:   loc,
		log:   log.With().Str("component", "notice").Logger(),
	}
}

// Active returns the notices active for screenID at now, in stored order.
// Store failures are logged and produce an empty list.
func (r *Reader) Active(ctx context.Context, screenID string, now time.Time) []models.Slide {
	start := time.Now()

	notices, err := r.store.ListNotices(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("notice store unavailable, no notices will be shown")
		metrics.ObserveSource("notices", start, false, 0)
		return []models.Slide{}
	}

	slides := make([]models.Slide, 0, len(notices))
	for _, n := range notices {
		end, ok := r.activeUntil(n, screenID, now)
		if !ok {
			continue
		}
		slides = append(slides, models.Slide{
			Kind:     models.SlideNotice,
			Title:    n.Title,
			Body:     n.Body,
			Link:     n.Link,
			ImageURL: n.ImageURL,
			Caption:  "Valid until " + end.In(r.loc).Format(CaptionLayout),
		})
	}

	metrics.ObserveSource("notices", start, true, len(slides))
	return slides
}

func (r *Reader) activeUntil(n models.Notice, screenID string, now time.Time) (time.Time, bool) {
	startsAt, ok := ParseTime(n.StartsAt, r.loc)
	if !ok {
		return time.Time{}, false
	}
	endsAt, ok := ParseTime(n.EndsAt, r.loc)
	if !ok {
		return time.Time{}, false
	}
	if now.Before(startsAt) || now.After(endsAt) {
		return time.Time{}, false
	}
	if !n.Targets(screenID) {
		return time.Time{}, false
	}
	return endsAt, true
}

// IsActive reports whether n is shown on screenID at now. A notice with an
// unparsable start or end is never active.
func IsActive(n models.Notice, screenID string, now time.Time, loc *time.Location) bool {
	r := Reader{loc: loc}
	if r.loc == nil {
		r.loc = time.UTC
	}
	_, ok := r.activeUntil(n, screenID, now)
	return ok
}

// ParseTime parses a stored notice timestamp
func ParseTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
