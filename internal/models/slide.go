package models

// SlideKind discriminates the slides a display can render
type SlideKind string

const (
	SlideNotice        SlideKind = "notice"
	SlideFeedItem      SlideKind = "feedItem"
	SlideCalendarGroup SlideKind = "calendarGroup"
)

// Slide is one unit of carousel content.
//
// Caption carries the human readable date line: the "valid until" text for
// notices and the publication date for feed items. Events is only populated
// for calendar group slides.
type Slide struct {
	Kind     SlideKind       `json:"kind"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Link     string          `json:"link"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Caption  string          `json:"caption"`
	Events   []CalendarEvent `json:"events,omitempty"`
}

// CalendarEvent is a single upcoming event instance.
//
// Start and End hold a date ("2006-01-02") for all-day events and an RFC 3339
// date-time for timed events. AllDay mirrors that distinction.
type CalendarEvent struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"allDay"`
}
