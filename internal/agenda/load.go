package agenda

import (
	"sort"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/model"
)

// DayLoad is how full one day is.
type DayLoad struct {
	Date calendar.Date
	// Count is the number of occurrences touching the day, all-day ones included.
	Count int
	// Busy is the union of timed occurrences clipped to the day.
	Busy time.Duration
}

type interval struct {
	start time.Time
	end   time.Time
}

// DailyLoads returns one entry per day in [from, to].
func DailyLoads(occs []model.Occurrence, loc *time.Location, from, to calendar.Date) []DayLoad {
	if to.Before(from) {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	n := from.DaysUntil(to) + 1
	loads := make([]DayLoad, n)
	spans := make([][]interval, n)
	for i := range loads {
		loads[i].Date = from.AddDays(i)
	}

	for _, occ := range occs {
		first, last := occ.Days(loc)
		if first.Before(from) {
			first = from
		}
		if last.After(to) {
			last = to
		}
		for d := first; !d.After(last); d = d.AddDays(1) {
			i := from.DaysUntil(d)
			loads[i].Count++
			if occ.AllDay || !occ.End.After(occ.Start) {
				continue
			}
			dayStart := d.Time(loc)
			dayEnd := d.AddDays(1).Time(loc)
			start, end := occ.Start, occ.End
			if start.Before(dayStart) {
				start = dayStart
			}
			if end.After(dayEnd) {
				end = dayEnd
			}
			if end.After(start) {
				spans[i] = append(spans[i], interval{start: start, end: end})
			}
		}
	}
	for i := range loads {
		loads[i].Busy = unionLength(spans[i])
	}
	return loads
}

func unionLength(spans []interval) time.Duration {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
	var total time.Duration
	cur := spans[0]
	for _, s := range spans[1:] {
		if !s.start.After(cur.end) {
			if s.end.After(cur.end) {
				cur.end = s.end
			}
			continue
		}
		total += cur.end.Sub(cur.start)
		cur = s
	}
	return total + cur.end.Sub(cur.start)
}

// TopDays returns up to n days with occurrences, busiest first. Ties go to
// the day with more occurrences, then the earlier day.
func TopDays(loads []DayLoad, n int) []DayLoad {
	if n <= 0 || len(loads) == 0 {
		return nil
	}
	items := make([]DayLoad, 0, len(loads))
	for _, l := range loads {
		if l.Count > 0 {
			items = append(items, l)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Busy != items[j].Busy {
			return items[i].Busy > items[j].Busy
		}
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Date.Before(items[j].Date)
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
