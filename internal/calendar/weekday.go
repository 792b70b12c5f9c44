package calendar

import (
	"strings"
	"time"
)

// WeekdayHeader describes one column header of the day grid.
type WeekdayHeader struct {
	Weekday time.Weekday
	// Index is the zero-based grid column.
	Index  int
	Short  string
	Narrow string
}

// WeekdayHeaders returns the seven column headers starting at FirstWeekday.
func (c Calendar) WeekdayHeaders() []WeekdayHeader {
	headers := make([]WeekdayHeader, 0, daysPerWeek)
	for i := 0; i < daysPerWeek; i++ {
		wd := (c.FirstWeekday + time.Weekday(i)) % 7
		name := wd.String()
		headers = append(headers, WeekdayHeader{
			Weekday: wd,
			Index:   i,
			Short:   name[:3],
			Narrow:  name[:2],
		})
	}
	return headers
}

// ParseWeekday accepts English weekday names or their two/three letter
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if len(lower) < 2 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if len(lower) <= len(name) && name[:len(lower)] == lower {
			return wd, true
		}
	}
	return 0, false
}
