package models

// ContentPollIntervalMs tells displays how often to re-poll for content (30 minutes)
const ContentPollIntervalMs = 1800 * 1000

// AggregatedContent is the envelope returned to displays
type AggregatedContent struct {
	ScreenID       string          `json:"screenId"`
	ScreenName     string          `json:"screenName"`
	Content        []Slide         `json:"content"`
	CalendarEvents []CalendarEvent `json:"calendarEvents"`
	Config         DisplayConfig   `json:"config"`
}

// DisplayConfig carries the timing values the display loop needs
type DisplayConfig struct {
	CarouselIntervalMs    int `json:"carouselIntervalMs"`
	ContentPollIntervalMs int `json:"contentPollIntervalMs"`
}
