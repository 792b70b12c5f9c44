package calendar

import "fmt"

type styleKind uint8

const (
	weekKind styleKind = iota + 1
	monthKind
)

// Style selects whether sections are weeks or months.
type Style struct {
	kind        styleKind
	dynamicRows bool
}

// Week returns the week section style.
func Week() Style {
	return Style{kind: weekKind}
}

// Month returns the month section style. With dynamicRows the trailing
// padding stops at the end of the last week instead of filling six rows.
func Month(dynamicRows bool) Style {
	return Style{kind: monthKind, dynamicRows: dynamicRows}
}

// IsWeek reports whether s is the week style.
func (s Style) IsWeek() bool { return s.kind == weekKind }

// IsMonth reports whether s is a month style.
func (s Style) IsMonth() bool { return s.kind == monthKind }

// DynamicRows reports whether a month style uses a variable row count.
func (s Style) DynamicRows() bool { return s.kind == monthKind && s.dynamicRows }

func (s Style) String() string {
	switch s.kind {
	case weekKind:
		return "Week"
	case monthKind:
		return "Month"
	default:
		return "Invalid"
	}
}

// Identifier names a single section: a week of a week-numbering year or a
// month of a year.
type Identifier struct {
	Style   Style
	Year    int
	Section int
}

func (id Identifier) String() string {
	if id.Style.IsWeek() {
		return fmt.Sprintf("%04d-W%02d", id.Year, id.Section)
	}
	return fmt.Sprintf("%04d-%02d", id.Year, id.Section)
}

// Compare orders identifiers by year, then section. It panics when the
// identifiers have different styles.
func Compare(a, b Identifier) int {
	if a.Style != b.Style {
		panic(fmt.Sprintf("calendar: cannot compare identifiers with different styles (%s %v, %s %v)",
			a, a.Style, b, b.Style))
	}
	if a.Year != b.Year {
		return cmpInt(a.Year, b.Year)
	}
	return cmpInt(a.Section, b.Section)
}

// Before reports whether id sorts before o.
func (id Identifier) Before(o Identifier) bool { return Compare(id, o) < 0 }

// After reports whether id sorts after o.
func (id Identifier) After(o Identifier) bool { return Compare(id, o) > 0 }

// Between reports whether lo <= id <= hi.
func (id Identifier) Between(lo, hi Identifier) bool {
	return Compare(lo, id) <= 0 && Compare(id, hi) <= 0
}

// DayKind tells whether a grid cell belongs to the section or is padding.
type DayKind uint8

const (
	PreMonth DayKind = iota + 1
	InSection
	PostMonth
)

func (k DayKind) String() string {
	switch k {
	case PreMonth:
		return "pre"
	case InSection:
		return "in"
	case PostMonth:
		return "post"
	default:
		return "unknown"
	}
}

// Day is one cell of a section grid.
type Day struct {
	Kind DayKind
	Date Date
}

// IsInSection reports whether the day belongs to its section rather than padding.
func (d Day) IsInSection() bool { return d.Kind == InSection }

// Section is an immutable day grid for one identifier.
type Section struct {
	ID   Identifier
	Days []Day
}

// Rows returns the number of 7-day rows in the grid.
func (s Section) Rows() int {
	return (len(s.Days) + 6) / 7
}

// Contains reports whether date is one of the section's own days.
func (s Section) Contains(date Date) bool {
	for _, d := range s.Days {
		if d.Kind == InSection && d.Date == date {
			return true
		}
	}
	return false
}

// Span returns the first and last dates shown in the grid, padding included.
func (s Section) Span() (Date, Date) {
	if len(s.Days) == 0 {
		return Date{}, Date{}
	}
	return s.Days[0].Date, s.Days[len(s.Days)-1].Date
}

// Focus returns the first in-section day.
func (s Section) Focus() Date {
	for _, d := range s.Days {
		if d.Kind == InSection {
			return d.Date
		}
	}
	return Date{}
}
