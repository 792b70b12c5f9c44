package calendar

const (
	daysPerWeek    = 7
	fixedGridCells = 42
)

// Build generates the day grid for id. It has no side effects; callers
// memoize the result.
func (c Calendar) Build(id Identifier) Section {
	first := c.FirstDate(id)
	if id.Style.IsWeek() {
		days := make([]Day, 0, daysPerWeek)
		for i := 0; i < daysPerWeek; i++ {
			days = append(days, Day{Kind: InSection, Date: first.AddDays(i)})
		}
		return Section{ID: id, Days: days}
	}

	days := make([]Day, 0, fixedGridCells)
	for back := c.ColumnOf(first); back > 0; back-- {
		days = append(days, Day{Kind: PreMonth, Date: first.AddDays(-back)})
	}

	count := DaysIn(first.Year, first.Month)
	for i := 0; i < count; i++ {
		days = append(days, Day{Kind: InSection, Date: first.AddDays(i)})
	}

	last := first.AddDays(count - 1)
	padding := fixedGridCells - len(days)
	if id.Style.DynamicRows() {
		padding = daysPerWeek - 1 - c.ColumnOf(last)
	}
	for i := 1; i <= padding; i++ {
		days = append(days, Day{Kind: PostMonth, Date: last.AddDays(i)})
	}
	return Section{ID: id, Days: days}
}
