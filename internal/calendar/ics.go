package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/bilgisen/signage/internal/models"
)

const maxOccurrencesPerEvent = 500

// vevent is a VEVENT with its recurrence data, before expansion
type vevent struct {
	uid         string
	summary     string
	description string
	start       time.Time
	end         time.Time
	allDay      bool
	rrule       string
	exDates     []time.Time
	recurrence  *time.Time
}

func (f *Fetcher) fetchICS(ctx context.Context, calendarURL string, window Window) ([]models.CalendarEvent, error) {
	url := calendarURL
	if strings.HasPrefix(strings.ToLower(url), "webcal://") {
		url = "https://" + url[len("webcal://"):]
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/calendar").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	events, err := parseICS(resp.Body(), f.loc)
	if err != nil {
		return nil, err
	}

	instances := expand(events, window)
	out := make([]models.CalendarEvent, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.event(f.loc))
	}
	return out, nil
}

// parseICS reads the VEVENTs of an iCalendar payload. Date-only and floating
// values are read in loc. Events without a usable DTSTART are skipped.
func parseICS(body []byte, loc *time.Location) ([]vevent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS: %w", err)
	}

	events := make([]vevent, 0)
	for _, ve := range cal.Events() {
		ev, ok := parseVEvent(ve, loc)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, bool) {
	var out vevent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.description = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, false
	}
	out.allDay = isDateValue(dtStart)

	if out.allDay {
		start, err := parseICSTime(dtStart.Value, loc)
		if err != nil {
			return out, false
		}
		out.start = start
		out.end = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseICSTime(dtEnd.Value, loc); err == nil && end.After(start) {
				out.end = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, false
		}
		out.start = floating(start, dtStart, loc)
		out.end = out.start
		if end, err := ve.GetEndAt(); err == nil {
			if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
				end = floating(end, dtEnd, loc)
			}
			if end.After(out.start) {
				out.end = end
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, paramLocation(p, loc)); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, paramLocation(p, loc)); err == nil {
			out.recurrence = &t
		}
	}

	return out, true
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// floating reads a DATE-TIME without zone as wall clock time in loc
func floating(t time.Time, p *ical.IANAProperty, loc *time.Location) time.Time {
	if strings.HasSuffix(p.Value, "Z") {
		return t
	}
	if _, ok := p.ICalParameters["TZID"]; ok {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func paramLocation(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return fallback
}

// parseICSTime parses DATE and DATE-TIME values, UTC when suffixed with Z
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

// expand turns parsed events into the instances overlapping window, ordered
// by start. Recurring events are expanded with their EXDATEs removed and
// RECURRENCE-ID overrides applied.
func expand(events []vevent, window Window) []instance {
	overrides := make(map[string][]vevent)
	for _, ev := range events {
		if ev.recurrence != nil && ev.uid != "" {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
		}
	}

	out := make([]instance, 0)
	for _, ev := range events {
		if ev.recurrence != nil && ev.uid != "" {
			continue
		}
		if ev.rrule == "" {
			if overlaps(ev.start, ev.end, window) {
				out = append(out, newInstance(ev, ev.start, ev.end))
			}
			continue
		}
		out = append(out, expandRecurring(ev, overrides[ev.uid], window)...)
	}

	sortInstances(out)
	return out
}

func expandRecurring(ev vevent, overrides []vevent, window Window) []instance {
	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	duration := ev.end.Sub(ev.start)
	from := window.Start.Add(-duration).In(ev.start.Location())
	to := window.End.In(ev.start.Location())

	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]instance, 0, len(starts))
	for _, start := range starts {
		inst := newInstance(ev, start, start.Add(duration))
		for _, ov := range overrides {
			if ov.recurrence.Equal(start) {
				inst = newInstance(ov, ov.start, ov.end)
				break
			}
		}
		if overlaps(inst.start, inst.end, window) {
			out = append(out, inst)
		}
	}
	return out
}

func newInstance(ev vevent, start, end time.Time) instance {
	return instance{
		summary:     ev.summary,
		description: ev.description,
		start:       start,
		end:         end,
		allDay:      ev.allDay,
	}
}

func overlaps(start, end time.Time, window Window) bool {
	if start.After(window.End) {
		return false
	}
	return end.After(window.Start) || !start.Before(window.Start)
}
