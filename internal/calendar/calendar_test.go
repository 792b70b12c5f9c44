package calendar

import (
	"reflect"
	"testing"
	"time"
)

func sundayCalendar() Calendar {
	return Calendar{Location: time.UTC, FirstWeekday: time.Sunday, MinDaysInFirstWeek: 1}
}

func isoCalendar() Calendar {
	return Calendar{Location: time.UTC, FirstWeekday: time.Monday, MinDaysInFirstWeek: 4}
}

func TestBuildMonthFebruary2024SundayStart(t *testing.T) {
	cal := sundayCalendar()
	section := cal.Build(Identifier{Style: Month(false), Year: 2024, Section: 2})

	if len(section.Days) != 42 {
		t.Fatalf("expected 42 days, got %d", len(section.Days))
	}
	pre, in, post := countKinds(section.Days)
	if pre != 4 || in != 29 || post != 9 {
		t.Fatalf("expected 4/29/9 pre/in/post days, got %d/%d/%d", pre, in, post)
	}
	if section.Days[0] != (Day{Kind: PreMonth, Date: NewDate(2024, time.January, 28)}) {
		t.Fatalf("unexpected first day %+v", section.Days[0])
	}
	if section.Days[4] != (Day{Kind: InSection, Date: NewDate(2024, time.February, 1)}) {
		t.Fatalf("unexpected first in-month day %+v", section.Days[4])
	}
	if section.Days[41] != (Day{Kind: PostMonth, Date: NewDate(2024, time.March, 9)}) {
		t.Fatalf("unexpected last day %+v", section.Days[41])
	}
}

func TestBuildMonthGridSizes(t *testing.T) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		cal := Calendar{Location: time.UTC, FirstWeekday: wd}
		for year := 2019; year <= 2031; year++ {
			for month := 1; month <= 12; month++ {
				fixed := cal.Build(Identifier{Style: Month(false), Year: year, Section: month})
				if len(fixed.Days) != 42 {
					t.Fatalf("%v %d-%02d: expected 42 days, got %d", wd, year, month, len(fixed.Days))
				}
				if fixed.Days[0].Date.Weekday() != wd {
					t.Fatalf("%v %d-%02d: grid starts on %v", wd, year, month, fixed.Days[0].Date.Weekday())
				}

				dynamic := cal.Build(Identifier{Style: Month(true), Year: year, Section: month})
				n := len(dynamic.Days)
				if n < 28 || n > 42 || n%7 != 0 {
					t.Fatalf("%v %d-%02d: unexpected dynamic size %d", wd, year, month, n)
				}
				if last := dynamic.Days[n-1].Date.Weekday(); last != cal.LastWeekday() {
					t.Fatalf("%v %d-%02d: last weekday %v, expected %v", wd, year, month, last, cal.LastWeekday())
				}
				assertConsecutive(t, dynamic.Days)
				assertConsecutive(t, fixed.Days)
			}
		}
	}
}

func TestBuildDynamicRowsFebruary2015(t *testing.T) {
	cal := sundayCalendar()
	section := cal.Build(Identifier{Style: Month(true), Year: 2015, Section: 2})
	if len(section.Days) != 28 {
		t.Fatalf("expected 28 days for February 2015, got %d", len(section.Days))
	}
	if section.Rows() != 4 {
		t.Fatalf("expected 4 rows, got %d", section.Rows())
	}
}

func TestBuildWeek(t *testing.T) {
	cal := Calendar{Location: time.UTC, FirstWeekday: time.Wednesday}
	id := cal.SectionID(NewDate(2024, time.March, 15), Week())
	section := cal.Build(id)
	if len(section.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(section.Days))
	}
	if section.Days[0].Date != NewDate(2024, time.March, 13) {
		t.Fatalf("expected week to start on 2024-03-13, got %s", section.Days[0].Date)
	}
	for _, d := range section.Days {
		if d.Kind != InSection {
			t.Fatalf("week sections only contain in-section days, got %v", d.Kind)
		}
	}
	assertConsecutive(t, section.Days)
}

func TestBuildIsIdempotent(t *testing.T) {
	cal := sundayCalendar()
	for _, style := range []Style{Week(), Month(false), Month(true)} {
		id := cal.SectionID(NewDate(2025, time.August, 9), style)
		if !reflect.DeepEqual(cal.Build(id), cal.Build(id)) {
			t.Fatalf("build of %s is not reproducible", id)
		}
	}
}

func TestSectionIDMonotonic(t *testing.T) {
	cal := sundayCalendar()
	start := NewDate(2022, time.December, 20)
	for _, style := range []Style{Week(), Month(false)} {
		prev := start
		prevID := cal.SectionID(prev, style)
		for i := 1; i < 900; i++ {
			d := start.AddDays(i)
			id := cal.SectionID(d, style)
			cmp := Compare(prevID, id)
			if cmp > 0 {
				t.Fatalf("%v: %s (%s) sorts after %s (%s)", style, prev, prevID, d, id)
			}
			same := prev.Year == d.Year && prev.Month == d.Month
			if style.IsWeek() {
				same = cal.StartOfWeek(prev) == cal.StartOfWeek(d)
			}
			if (cmp == 0) != same {
				t.Fatalf("%v: %s and %s equality mismatch (ids %s, %s)", style, prev, d, prevID, id)
			}
			prev, prevID = d, id
		}
	}
}

func TestWeekIdentifierRoundTrip(t *testing.T) {
	for _, cal := range []Calendar{sundayCalendar(), isoCalendar()} {
		d := NewDate(2019, time.November, 1)
		for i := 0; i < 1500; i++ {
			id := cal.SectionID(d, Week())
			first := cal.FirstDate(id)
			if first != cal.StartOfWeek(d) {
				t.Fatalf("first date of %s is %s, expected %s", id, first, cal.StartOfWeek(d))
			}
			if cal.SectionID(first, Week()) != id {
				t.Fatalf("first date %s does not map back to %s", first, id)
			}
			d = d.AddDays(1)
		}
	}
}

func TestWeekOfYearMatchesISO(t *testing.T) {
	cal := isoCalendar()
	d := NewDate(2015, time.January, 1)
	for i := 0; i < 4000; i++ {
		year, week := cal.WeekOfYear(d)
		isoYear, isoWeek := d.Time(time.UTC).ISOWeek()
		if year != isoYear || week != isoWeek {
			t.Fatalf("%s: got %d-W%02d, expected %d-W%02d", d, year, week, isoYear, isoWeek)
		}
		d = d.AddDays(1)
	}
}

func TestWeekYearBoundary(t *testing.T) {
	cal := sundayCalendar()
	id := cal.SectionID(NewDate(2023, time.December, 31), Week())
	if id.Year != 2024 || id.Section != 1 {
		t.Fatalf("expected 2024-W01, got %s", id)
	}
	if cal.WeeksIn(2023) != 52 {
		t.Fatalf("expected 52 weeks in 2023, got %d", cal.WeeksIn(2023))
	}
	prev := cal.Previous(id)
	if prev.Year != 2023 || prev.Section != 52 {
		t.Fatalf("expected 2023-W52 before 2024-W01, got %s", prev)
	}
}

func TestAdvanceRoundTrip(t *testing.T) {
	cal := isoCalendar()
	for _, style := range []Style{Week(), Month(true)} {
		base := cal.SectionID(NewDate(2024, time.March, 15), style)
		for n := -120; n <= 120; n++ {
			moved := cal.Advance(base, n)
			if back := cal.Advance(moved, -n); back != base {
				t.Fatalf("%v: advance %d then %d gave %s, expected %s", style, n, -n, back, base)
			}
			if got := cal.Distance(base, moved); got != n {
				t.Fatalf("%v: distance to %s is %d, expected %d", style, moved, got, n)
			}
		}
	}
}

func TestAdvanceMonthNormalizes(t *testing.T) {
	cal := sundayCalendar()
	dec := Identifier{Style: Month(false), Year: 2023, Section: 12}
	next := cal.Next(dec)
	if next.Year != 2024 || next.Section != 1 {
		t.Fatalf("expected 2024-01 after 2023-12, got %s", next)
	}
	back := cal.Advance(next, -13)
	if back.Year != 2022 || back.Section != 12 {
		t.Fatalf("expected 2022-12, got %s", back)
	}
}

func TestCompareDifferentStylesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic comparing week and month identifiers")
		}
	}()
	Compare(Identifier{Style: Week(), Year: 2024, Section: 1}, Identifier{Style: Month(false), Year: 2024, Section: 1})
}

func TestInvalidIdentifierPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for month 0")
		}
	}()
	sundayCalendar().FirstDate(Identifier{Style: Month(false), Year: 2024, Section: 0})
}

func TestWeekdayHeaders(t *testing.T) {
	cal := Calendar{FirstWeekday: time.Monday}
	headers := cal.WeekdayHeaders()
	if len(headers) != 7 {
		t.Fatalf("expected 7 headers, got %d", len(headers))
	}
	if headers[0].Weekday != time.Monday || headers[0].Short != "Mon" || headers[0].Narrow != "Mo" {
		t.Fatalf("unexpected first header %+v", headers[0])
	}
	if headers[6].Weekday != time.Sunday || headers[6].Index != 6 {
		t.Fatalf("unexpected last header %+v", headers[6])
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"sun":      time.Sunday,
		"Monday":   time.Monday,
		"tu":       time.Tuesday,
		"th":       time.Thursday,
		" SAT ":    time.Saturday,
		"wednes":   time.Wednesday,
		"friday":   time.Friday,
		"sunday  ": time.Sunday,
	}
	for in, want := range cases {
		got, ok := ParseWeekday(in)
		if !ok || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v; expected %v", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "s", "xyz", "mondays"} {
		if _, ok := ParseWeekday(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func countKinds(days []Day) (pre, in, post int) {
	for _, d := range days {
		switch d.Kind {
		case PreMonth:
			pre++
		case InSection:
			in++
		case PostMonth:
			post++
		}
	}
	return pre, in, post
}

func assertConsecutive(t *testing.T, days []Day) {
	t.Helper()
	for i := 1; i < len(days); i++ {
		if days[i-1].Date.AddDays(1) != days[i].Date {
			t.Fatalf("days %s and %s are not consecutive", days[i-1].Date, days[i].Date)
		}
	}
}

func TestDaysUntilAcrossCenturies(t *testing.T) {
	from := NewDate(1700, time.January, 1)
	to := NewDate(2100, time.January, 1)
	if got := from.DaysUntil(to); got != 146097 {
		t.Fatalf("expected 146097 days, got %d", got)
	}
	if got := to.DaysUntil(from); got != -146097 {
		t.Fatalf("expected -146097 days, got %d", got)
	}
	if got := from.AddDays(146097); got != to {
		t.Fatalf("expected %s, got %s", to, got)
	}
}

func TestWeekDistanceAcrossCenturies(t *testing.T) {
	cal := isoCalendar()
	a := cal.SectionID(NewDate(1700, time.January, 4), Week())
	b := cal.SectionID(NewDate(2050, time.June, 1), Week())
	n := cal.Distance(a, b)
	if got := cal.Advance(a, n); got != b {
		t.Fatalf("expected %s after %d weeks, got %s", b, n, got)
	}
	if got := cal.Distance(b, a); got != -n {
		t.Fatalf("expected distance %d back, got %d", -n, got)
	}
}
