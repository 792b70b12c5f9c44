package ics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "github.com/verte-zerg/dozycal/internal/log"
	"github.com/verte-zerg/dozycal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location is where occurrences are expressed. Nil means time.Local.
	Location *time.Location

	// RangeStart and RangeEnd are inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps unbounded rules. Zero selects the default.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the occurrences and the UIDs that hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedEvents []string
}

// Expand turns parsed events into concrete occurrences inside the range.
// RRULE, RDATE, EXDATE and RECURRENCE-ID overrides are honoured; cancelled
// events and cancelled instances produce nothing.
// Occurrences are ordered by start time.
func Expand(events []Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: range end is before range start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	base := map[string][]Event{}
	overrides := map[string][]Event{}
	var uids []string
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, ok := base[ev.UID]; !ok {
			uids = append(uids, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	for _, uid := range uids {
		truncated := false
		for _, ev := range base[uid] {
			occs, hitCap := expandEvent(ev, overrides[uid], cfg)
			truncated = truncated || hitCap
			result.Occurrences = append(result.Occurrences, occs...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand truncated", errors.New("max occurrences reached"), "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandEvent(ev Event, overrides []Event, cfg ExpandConfig) ([]model.Occurrence, bool) {
	if ev.Cancelled {
		return nil, false
	}
	if ev.RawRRule == "" && len(ev.RDates) == 0 {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		if o, ok := findOverride(overrides, ev.Start); ok {
			if o.Cancelled {
				return nil, false
			}
			return []model.Occurrence{makeOccurrence(o, o.Start, o.End, cfg.Location)}, false
		}
		return []model.Occurrence{makeOccurrence(ev, ev.Start, ev.End, cfg.Location)}, false
	}

	set, err := recurrenceSet(ev)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}

	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	// Instances that started before the range may still overlap it.
	starts := set.Between(cfg.RangeStart.In(loc).Add(-dur), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		end := start.Add(dur)
		if ev.AllDay {
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
			days := int(dur.Hours()/24 + 0.5)
			if days < 1 {
				days = 1
			}
			end = start.AddDate(0, 0, days)
		}
		if o, ok := findOverride(overrides, start); ok {
			if !o.Cancelled {
				out = append(out, makeOccurrence(o, o.Start, o.End, cfg.Location))
			}
			continue
		}
		out = append(out, makeOccurrence(ev, start, end, cfg.Location))
	}
	return out, hitCap
}

func recurrenceSet(ev Event) (*rrule.Set, error) {
	set := &rrule.Set{}
	if ev.RawRRule != "" {
		opt, err := rrule.StrToROptionInLocation(ev.RawRRule, ev.Start.Location())
		if err != nil {
			return nil, err
		}
		opt.Dtstart = ev.Start
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("invalid rule: %w", err)
		}
		set.RRule(r)
	} else {
		set.RDate(ev.Start)
	}
	for _, rd := range ev.RDates {
		set.RDate(rd.In(ev.Start.Location()))
	}
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	return set, nil
}

func findOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

func makeOccurrence(ev Event, start, end time.Time, loc *time.Location) model.Occurrence {
	occ := model.Occurrence{
		SourceID: ev.SourceID,
		UID:      ev.UID,
		Summary:  ev.Summary,
		Location: ev.Location,
		AllDay:   ev.AllDay,
		Start:    start,
		End:      end,
	}
	if !ev.AllDay {
		occ.Start = start.In(loc)
		occ.End = end.In(loc)
	}
	occ.InstanceKey = occ.Start.Format(time.RFC3339Nano)
	return occ
}

// overlaps treats both ranges as closed.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
