// Package feed fetches a syndication feed and turns its items into slides.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/metrics"
	"github.com/bilgisen/signage/internal/models"
)

// DefaultMaxItems is used when a screen does not set a positive item limit
const DefaultMaxItems = 5

type Fetcher struct {
	client     *resty.Client
	normalizer *Normalizer
	log        zerolog.Logger
}

// NewFetcher creates a fetcher that makes a single attempt per request,
// bounded by timeout.
func NewFetcher(timeout time.Duration, normalizer *Normalizer, log zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if normalizer == nil {
		normalizer = NewNormalizer(nil, nil)
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("User-Agent", "signage/1.0").
			SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8"),
		normalizer: normalizer,
		log:        log.With().Str("component", "feed").Logger(),
	}
}

// Fetch retrieves feedURL and returns up to maxItems slides. Any failure of
// the whole feed is logged and yields an empty list.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, maxItems int) []models.Slide {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return []models.Slide{}
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	start := time.Now()
	feed, err := f.fetchFeed(ctx, feedURL)
	if err != nil {
		f.log.Error().
			Err(err).
			Str("feed_url", feedURL).
			Msg("Error fetching feed")
		metrics.ObserveSource("feed", start, false, 0)
		return []models.Slide{}
	}

	slides := f.normalizer.Normalize(feed.Items, maxItems)

	f.log.Debug().
		Str("feed_url", feedURL).
		Int("total_items", len(feed.Items)).
		Int("slides", len(slides)).
		Dur("duration", time.Since(start)).
		Msg("Fetched feed")
	metrics.ObserveSource("feed", start, true, len(slides))

	return slides
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	// gofeed parsers keep per-document state, one per fetch
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed response: %w", err)
	}
	return feed, nil
}
