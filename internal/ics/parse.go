// Package ics reads iCalendar files and expands their events into
// occurrences.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/verte-zerg/dozycal/internal/log"
)

// Event is a VEVENT before recurrence expansion.
type Event struct {
	SourceID string

	UID      string
	Seq      int
	Summary  string
	Location string

	Start     time.Time
	End       time.Time
	AllDay    bool
	Cancelled bool

	RawRRule string
	RDates   []time.Time
	ExDates  []time.Time
	// RecurrenceID is set on overrides of a single recurring instance.
	RecurrenceID *time.Time
}

// IsOverride reports whether ev replaces one instance of a recurring event.
func (ev Event) IsOverride() bool { return ev.RecurrenceID != nil }

// Parse reads one iCalendar payload. Floating and all-day values are
// interpreted in loc. Events that cannot be parsed are logged and skipped.
func Parse(sourceID string, r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	events := make([]Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "source", sourceID)
			continue
		}
		ev.SourceID = sourceID
		events = append(events, ev)
	}
	appLog.Info("ics parse completed", "source", sourceID, "events", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var out Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Seq = n
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentProperty("STATUS")); p != nil {
		out.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, fmt.Errorf("event %s has no DTSTART", out.UID)
	}
	out.AllDay = isDateValue(startProp)

	start, err := propTime(startProp, loc)
	if err != nil {
		return out, fmt.Errorf("event %s: %w", out.UID, err)
	}
	out.Start = start

	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, err := propTime(endProp, loc)
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		out.End = end
	} else if p := ve.GetProperty(ical.ComponentProperty("DURATION")); p != nil {
		d, err := parseDuration(p.Value)
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		if out.AllDay {
			out.End = out.Start.AddDate(0, 0, int(d/(24*time.Hour)))
		} else {
			out.End = out.Start.Add(d)
		}
	} else if out.AllDay {
		out.End = out.Start.AddDate(0, 0, 1)
	} else {
		out.End = out.Start
	}
	if out.End.Before(out.Start) {
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	out.RDates = propTimes(ve.GetProperties(ical.ComponentProperty("RDATE")), loc)
	out.ExDates = propTimes(ve.GetProperties(ical.ComponentPropertyExdate), loc)

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := propTime(p, loc); err == nil {
			out.RecurrenceID = &t
		}
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// propTime resolves a DATE or DATE-TIME property, honouring TZID.
func propTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	if vs, ok := p.ICalParameters["TZID"]; ok && len(vs) > 0 {
		if tz, err := time.LoadLocation(vs[0]); err == nil {
			loc = tz
		} else {
			appLog.Debug("unknown TZID, using calendar location", "tzid", vs[0])
		}
	}
	return parseICSTime(p.Value, loc)
}

func propTimes(props []*ical.IANAProperty, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range props {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			single := *p
			single.Value = part
			t, err := propTime(&single, loc)
			if err != nil {
				appLog.Debug("ignoring unparsable date list entry", "value", part)
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// parseICSTime parses the basic UTC, local and date-only forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// parseDuration reads an RFC 5545 duration such as "PT1H30M" or "P1W".
func parseDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(strings.ToUpper(v))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		num = ""
		unit := time.Duration(0)
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		total += time.Duration(n) * unit
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return sign * total, nil
}
