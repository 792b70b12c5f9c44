package calendar

import (
	"fmt"
	"time"
)

// Calendar carries the rules used for every section computation. It is a
// plain value; callers pass it explicitly instead of sharing global state.
type Calendar struct {
	// Location converts instants such as "now" to civil dates. Nil means time.Local.
	Location *time.Location
	// FirstWeekday is the weekday shown in the first grid column.
	FirstWeekday time.Weekday
	// MinDaysInFirstWeek is how many days of a new year the first week of
	// that year must contain (1..7). Zero is treated as 1.
	MinDaysInFirstWeek int
}

// New returns a calendar starting weeks on firstWeekday in the local zone.
func New(firstWeekday time.Weekday) Calendar {
	return Calendar{Location: time.Local, FirstWeekday: firstWeekday, MinDaysInFirstWeek: 1}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Calendar) minDays() int {
	switch {
	case c.MinDaysInFirstWeek < 1:
		return 1
	case c.MinDaysInFirstWeek > 7:
		return 7
	default:
		return c.MinDaysInFirstWeek
	}
}

// Today returns the civil date of now in the calendar's location.
func (c Calendar) Today(now time.Time) Date {
	return DateOf(now.In(c.location()))
}

// ColumnOf returns the zero-based grid column of d.
func (c Calendar) ColumnOf(d Date) int {
	return (int(d.Weekday()) - int(c.FirstWeekday) + 7) % 7
}

// StartOfWeek returns the first day of the week containing d.
func (c Calendar) StartOfWeek(d Date) Date {
	return d.AddDays(-c.ColumnOf(d))
}

// LastWeekday returns the weekday shown in the last grid column.
func (c Calendar) LastWeekday() time.Weekday {
	return (c.FirstWeekday + 6) % 7
}

// firstWeekStart returns the first day of week 1 of the week-numbering year.
func (c Calendar) firstWeekStart(year int) Date {
	jan1 := Date{Year: year, Month: time.January, Day: 1}
	offset := c.ColumnOf(jan1)
	start := jan1.AddDays(-offset)
	if 7-offset < c.minDays() {
		start = start.AddDays(7)
	}
	return start
}

// WeeksIn returns the number of weeks in the week-numbering year.
func (c Calendar) WeeksIn(year int) int {
	return c.firstWeekStart(year).DaysUntil(c.firstWeekStart(year+1)) / 7
}

// WeekOfYear returns the week-numbering year and week number of d.
func (c Calendar) WeekOfYear(d Date) (year, week int) {
	year = d.Year
	if d.Before(c.firstWeekStart(year)) {
		year--
	} else if !d.Before(c.firstWeekStart(year + 1)) {
		year++
	}
	week = c.firstWeekStart(year).DaysUntil(c.StartOfWeek(d))/7 + 1
	return year, week
}

// SectionID returns the identifier of the section of the given style that
// contains d.
func (c Calendar) SectionID(d Date, style Style) Identifier {
	switch {
	case style.IsWeek():
		year, week := c.WeekOfYear(d)
		return Identifier{Style: style, Year: year, Section: week}
	case style.IsMonth():
		return Identifier{Style: style, Year: d.Year, Section: int(d.Month)}
	default:
		panic(fmt.Sprintf("calendar: invalid section style %v", style))
	}
}

// FirstDate returns the first day of the week or month named by id.
func (c Calendar) FirstDate(id Identifier) Date {
	c.mustValidate(id)
	if id.Style.IsWeek() {
		return c.firstWeekStart(id.Year).AddDays(7 * (id.Section - 1))
	}
	return Date{Year: id.Year, Month: time.Month(id.Section), Day: 1}
}

// Advance moves id by n sections of its own granularity.
func (c Calendar) Advance(id Identifier, n int) Identifier {
	c.mustValidate(id)
	if n == 0 {
		return id
	}
	if id.Style.IsWeek() {
		return c.SectionID(c.FirstDate(id).AddDays(7*n), id.Style)
	}
	t := time.Date(id.Year, time.Month(id.Section)+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Identifier{Style: id.Style, Year: t.Year(), Section: int(t.Month())}
}

// Next returns the section after id.
func (c Calendar) Next(id Identifier) Identifier { return c.Advance(id, 1) }

// Previous returns the section before id.
func (c Calendar) Previous(id Identifier) Identifier { return c.Advance(id, -1) }

// Distance returns how many sections lie between a and b, negative when b is earlier.
func (c Calendar) Distance(a, b Identifier) int {
	if a.Style != b.Style {
		panic(fmt.Sprintf("calendar: cannot measure distance between %s and %s with different styles", a, b))
	}
	if a.Style.IsWeek() {
		return c.FirstDate(a).DaysUntil(c.FirstDate(b)) / 7
	}
	return (b.Year-a.Year)*12 + (b.Section - a.Section)
}

func (c Calendar) mustValidate(id Identifier) {
	switch {
	case id.Style.IsWeek():
		if id.Section < 1 || id.Section > c.WeeksIn(id.Year) {
			panic(fmt.Sprintf("calendar: week %d out of range for %d", id.Section, id.Year))
		}
	case id.Style.IsMonth():
		if id.Section < 1 || id.Section > 12 {
			panic(fmt.Sprintf("calendar: month %d out of range", id.Section))
		}
	default:
		panic(fmt.Sprintf("calendar: identifier %+v has no style", id))
	}
}
