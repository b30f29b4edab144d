package models

// Screen is a display endpoint with its own content configuration
type Screen struct {
	ID     string       `json:"id"`
	Name   string       `json:"name" validate:"required,max=120"`
	Layout string       `json:"layout,omitempty"`
	Config ScreenConfig `json:"config"`
}

// ScreenConfig controls which sources feed a screen's carousel.
//
// The Include* toggles are tri-state: nil means "not set" and is treated as
// enabled, only an explicit false disables a source.
type ScreenConfig struct {
	IncludeNotices  *bool `json:"includeNotices,omitempty"`
	IncludeFeed     *bool `json:"includeFeed,omitempty"`
	IncludeCalendar *bool `json:"includeCalendar,omitempty"`

	FeedURL  string `json:"feedUrl,omitempty" validate:"omitempty,url"`
	MaxItems int    `json:"maxItems,omitempty" validate:"gte=0,lte=50"`

	CalendarID string `json:"calendarId,omitempty"`

	CarouselIntervalMs int `json:"carouselIntervalMs" validate:"gte=0"`
}

// NoticesEnabled reports whether the notice source is enabled
func (c ScreenConfig) NoticesEnabled() bool { return enabled(c.IncludeNotices) }

// FeedEnabled reports whether the feed source is enabled
func (c ScreenConfig) FeedEnabled() bool { return enabled(c.IncludeFeed) }

// CalendarEnabled reports whether the calendar source is enabled
func (c ScreenConfig) CalendarEnabled() bool { return enabled(c.IncludeCalendar) }

func enabled(toggle *bool) bool {
	return toggle == nil || *toggle
}

// Bool returns a pointer to b, handy for building ScreenConfig toggles
func Bool(b bool) *bool {
	return &b
}
