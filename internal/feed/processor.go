package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/bilgisen/signage/internal/models"
)

const (
	// DateLayout formats a feed item's publication date on its slide
	DateLayout = "02/01/2006 - 15:04"

	// DateUnavailable is the caption for items without a publication date
	DateUnavailable = "Date unavailable"
)

// DefaultRepairPatterns identify image URLs known to be broken by a source
// that prefixes the real address with its own host.
var DefaultRepairPatterns = []string{"fct.ufg.brhttp", "ufg.brhttp"}

// ImageRepairer recovers image URLs that carry a bogus prefix before the
// real http(s) address.
type ImageRepairer struct {
	patterns []string
}

func NewImageRepairer(patterns []string) *ImageRepairer {
	cleaned := lo.FilterMap(patterns, func(p string, _ int) (string, bool) {
		p = strings.ToLower(strings.TrimSpace(p))
		return p, p != ""
	})
	return &ImageRepairer{patterns: cleaned}
}

// Repair returns the embedded address when url matches a corruption pattern
// and url unchanged otherwise.
func (r *ImageRepairer) Repair(url string) string {
	if url == "" {
		return url
	}

	lower := strings.ToLower(url)
	if !lo.SomeBy(r.patterns, func(p string) bool { return strings.Contains(lower, p) }) {
		return url
	}

	for i := 1; i+4 <= len(url); i++ {
		if strings.EqualFold(url[i:i+4], "http") {
			return url[i:]
		}
	}
	return url
}

// Normalizer maps parsed feed items to carousel slides
type Normalizer struct {
	repairer *ImageRepairer
	loc      *time.Location
}

func NewNormalizer(repairer *ImageRepairer, loc *time.Location) *Normalizer {
	if repairer == nil {
		repairer = NewImageRepairer(DefaultRepairPatterns)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{repairer: repairer, loc: loc}
}

// Normalize converts at most maxItems items, in feed order. Items are kept
// even when they have no link or share one with another item.
func (n *Normalizer) Normalize(items []*gofeed.Item, maxItems int) []models.Slide {
	items = lo.Filter(items, func(item *gofeed.Item, _ int) bool { return item != nil })
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return lo.Map(items, func(item *gofeed.Item, _ int) models.Slide {
		return n.NormalizeItem(item)
	})
}

// NormalizeItem builds the slide for a single feed item
func (n *Normalizer) NormalizeItem(item *gofeed.Item) models.Slide {
	raw := itemHTML(item)

	return models.Slide{
		Kind:     models.SlideFeedItem,
		Title:    strings.TrimSpace(item.Title),
		Body:     Truncate(ToPlainText(raw)),
		Link:     strings.TrimSpace(item.Link),
		ImageURL: n.repairer.Repair(ExtractFirstImageURL(raw)),
		Caption:  n.dateCaption(itemDate(item)),
	}
}

func (n *Normalizer) dateCaption(date *time.Time) string {
	if date == nil || date.IsZero() {
		return DateUnavailable
	}
	return date.In(n.loc).Format(DateLayout)
}

// itemDate is the parsed publication date, falling back to the update date.
// Dates the parser could not read are nil.
func itemDate(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// itemHTML returns the full content when present and the summary otherwise
func itemHTML(item *gofeed.Item) string {
	if c := strings.TrimSpace(item.Content); c != "" {
		return c
	}
	return strings.TrimSpace(item.Description)
}
