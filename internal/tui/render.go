package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/engine"
)

const (
	minCellWidth = 2
	marker       = "•"
)

// GridOptions controls how a section grid is drawn.
type GridOptions struct {
	// Width is the total width in columns.
	Width int
	// Height is the total height in lines; zero draws one line per row.
	Height int

	Today    calendar.Date
	Selected calendar.Date
	Counts   map[calendar.Date]int

	RowSpacing     int
	ColumnSpacing  int
	// SectionPadding is the number of blank lines above the title.
	SectionPadding int
}

type renderKey struct {
	id       calendar.Identifier
	width    int
	height   int
	today    calendar.Date
	selected calendar.Date
	counts   int
}

// RenderSection draws a titled day grid. Every returned line is exactly
// opts.Width columns wide.
func RenderSection(cal calendar.Calendar, s calendar.Section, opts GridOptions) []string {
	cs := maxInt(opts.ColumnSpacing, 0)
	cw := (opts.Width - 6*cs) / 7
	if cw < minCellWidth {
		cs = 0
		cw = maxInt(opts.Width/7, minCellWidth)
	}

	rows := s.Rows()
	rs := maxInt(opts.RowSpacing, 0)
	pad := maxInt(opts.SectionPadding, 0)
	if opts.Height > 0 && opts.Height-pad < 2+rows {
		pad = 0
	}
	cellHeight := 1
	if opts.Height > 0 && rows > 0 {
		available := opts.Height - 2 - pad
		cellHeight = (available - (rows-1)*rs) / rows
		if cellHeight < 1 {
			cellHeight = 1
			rs = 0
		}
	}

	lines := make([]string, pad, pad+2+rows*cellHeight)
	lines = append(lines,
		padLine(centerText(titleStyle, SectionTitle(cal, s.ID), opts.Width), opts.Width),
		padLine(renderWeekdayHeader(cal, opts.Today, cw, cs), opts.Width),
	)
	gap := strings.Repeat(" ", cs)
	for r := 0; r < rows; r++ {
		if r > 0 {
			for i := 0; i < rs; i++ {
				lines = append(lines, "")
			}
		}
		cells := make([][]string, 0, 7)
		for c := 0; c < 7 && r*7+c < len(s.Days); c++ {
			cells = append(cells, renderCell(s.Days[r*7+c], opts, cw, cellHeight))
		}
		for l := 0; l < cellHeight; l++ {
			parts := make([]string, len(cells))
			for i, cell := range cells {
				parts[i] = cell[l]
			}
			lines = append(lines, strings.Join(parts, gap))
		}
	}

	height := opts.Height
	if height <= 0 {
		height = len(lines)
	}
	return fitLines(strings.Join(lines, "\n"), opts.Width, height)
}

func renderWeekdayHeader(cal calendar.Calendar, today calendar.Date, cw, cs int) string {
	headers := cal.WeekdayHeaders()
	parts := make([]string, len(headers))
	for i, h := range headers {
		label := h.Short
		if cw < runewidth.StringWidth(label) {
			label = h.Narrow
		}
		style := headerStyle
		if !today.IsZero() && today.Weekday() == h.Weekday {
			style = todayHdrStyle
		}
		parts[i] = centerText(style, label, cw)
	}
	return strings.Join(parts, strings.Repeat(" ", cs))
}

func renderCell(day calendar.Day, opts GridOptions, cw, height int) []string {
	style := dayStyle
	switch {
	case day.Date == opts.Selected && day.IsInSection():
		style = selectedStyle
	case day.Date == opts.Today && day.IsInSection():
		style = todayStyle
	case !day.IsInSection():
		style = paddingStyle
	}

	count := 0
	if day.IsInSection() {
		count = opts.Counts[day.Date]
	}
	label := fmt.Sprintf("%2d", day.Date.Day)
	inline := count > 0 && height == 1 && cw > runewidth.StringWidth(label)

	lines := make([]string, height)
	lines[0] = renderCellLine(style, label, inline, cw)
	if height > 1 {
		second := ""
		if count > 0 {
			second = fmt.Sprintf("%s%d", marker, count)
			if runewidth.StringWidth(second) > cw {
				second = marker
			}
		}
		lines[1] = renderCellLine(style, second, false, cw)
		for i := 2; i < height; i++ {
			lines[i] = style.Render(strings.Repeat(" ", cw))
		}
	}
	return lines
}

// renderCellLine centers text in a cell, optionally followed by an event marker.
func renderCellLine(style lipgloss.Style, text string, withMarker bool, cw int) string {
	width := runewidth.StringWidth(text)
	if withMarker {
		width += runewidth.StringWidth(marker)
	}
	if width > cw {
		text = runewidth.Truncate(text, cw, "")
		width = runewidth.StringWidth(text)
		withMarker = false
	}
	left := (cw - width) / 2
	right := cw - width - left
	var b strings.Builder
	b.WriteString(style.Render(strings.Repeat(" ", left) + text))
	if withMarker {
		markStyle := markerStyle
		if style.GetBackground() != (lipgloss.NoColor{}) {
			markStyle = style
		}
		b.WriteString(markStyle.Render(marker))
	}
	b.WriteString(style.Render(strings.Repeat(" ", right)))
	return b.String()
}

// SectionTitle names a section, e.g. "March 2024" or "Week 10, 2024".
func SectionTitle(cal calendar.Calendar, id calendar.Identifier) string {
	if id.Style.IsWeek() {
		first := cal.FirstDate(id)
		last := first.AddDays(6)
		return fmt.Sprintf("Week %d, %d  %s - %s", id.Section, id.Year,
			first.Time(nil).Format("Jan 2"), last.Time(nil).Format("Jan 2"))
	}
	return fmt.Sprintf("%s %d", time.Month(id.Section), id.Year)
}

func sectionTitleOfDays(cal calendar.Calendar, style calendar.Style, days []calendar.Day) string {
	for _, d := range days {
		if d.IsInSection() {
			return SectionTitle(cal, cal.SectionID(d.Date, style))
		}
	}
	return ""
}

// visibleLines returns the part of the window under the viewport. While
// scrolling it straddles two sections.
func (m *Model) visibleLines(height int) []string {
	ext := m.engine.Extent()
	n := m.engine.Len()
	if ext <= 0 || n == 0 {
		return fitLines("", m.width, height)
	}
	idx := clampIndex(int(math.Floor(m.offset/ext)), n)
	frac := int(math.Round(m.offset - float64(idx)*ext))
	if frac < 0 {
		frac = 0
	}

	current := m.sectionLines(idx, m.width, height)
	if frac == 0 || idx+1 >= n {
		return current
	}
	next := m.sectionLines(idx+1, m.width, height)

	if m.cfg.Axis == engine.Horizontal {
		out := make([]string, height)
		for i := range out {
			out[i] = ansi.Cut(current[i]+next[i], frac, frac+m.width)
		}
		return out
	}
	joined := append(append([]string{}, current...), next...)
	if frac > len(joined)-height {
		frac = len(joined) - height
	}
	return joined[frac : frac+height]
}

func (m *Model) sectionLines(idx, width, height int) []string {
	s := m.engine.Section(idx)
	first, last := s.Span()
	key := renderKey{id: s.ID, width: width, height: height, counts: m.countsVer}
	today := m.engine.Today()
	if !today.Before(first) && !today.After(last) {
		key.today = today
	}
	if !m.selected.Before(first) && !m.selected.After(last) {
		key.selected = m.selected
	}
	if lines, ok := m.renderCache.Get(key); ok {
		return lines
	}
	lines := RenderSection(m.cfg.Calendar, s, GridOptions{
		Width:         width,
		Height:        height,
		Today:         key.today,
		Selected:      key.selected,
		Counts:        m.counts,
		RowSpacing:     int(m.cfg.RowSpacing),
		ColumnSpacing:  int(m.cfg.ColumnSpacing),
		SectionPadding: int(m.cfg.SectionPadding),
	})
	m.renderCache.Add(key, lines)
	return lines
}

func (m *Model) renderDetail() string {
	loc := m.location()
	title := titleStyle.Render(m.selected.Time(loc).Format("Mon, Jan 2 2006"))
	if len(m.dayEvents) == 0 {
		return title + "\n" + footerStyle.Render("No events")
	}
	limit := detailHeight - 1
	body := make([]string, 0, limit)
	for i, occ := range m.dayEvents {
		room := limit - len(body)
		if i < len(m.dayEvents)-1 {
			// Keep a line for the "+N more" note.
			room--
		}
		if room <= 0 {
			body = append(body, footerStyle.Render(fmt.Sprintf("+%d more", len(m.dayEvents)-i)))
			break
		}
		when := "all day"
		if !occ.AllDay {
			when = occ.Start.In(loc).Format("15:04")
		}
		runes := append(buildStyledRunes(when+" ", timeStyle), buildStyledRunes(occ.Summary, summaryStyle)...)
		if occ.Location != "" {
			runes = append(runes, buildStyledRunes(" @ "+occ.Location, footerStyle)...)
		}
		wrapped := strings.Split(wrapStyledRunes(runes, m.width), "\n")
		if len(wrapped) > room {
			wrapped = wrapped[:room]
		}
		body = append(body, wrapped...)
	}
	return title + "\n" + strings.Join(body, "\n")
}

func centerText(style lipgloss.Style, text string, width int) string {
	text = runewidth.Truncate(text, maxInt(width, 0), "")
	w := runewidth.StringWidth(text)
	left := (width - w) / 2
	if left < 0 {
		left = 0
	}
	return strings.Repeat(" ", left) + style.Render(text) + strings.Repeat(" ", maxInt(width-w-left, 0))
}

// padLine pads or truncates a styled line to exactly width columns.
func padLine(line string, width int) string {
	w := lipgloss.Width(line)
	if w > width {
		return ansi.Truncate(line, width, "")
	}
	return line + strings.Repeat(" ", width-w)
}

// fitLines splits content into exactly height lines of width columns.
func fitLines(content string, width, height int) []string {
	if height <= 0 {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padLine(lines[i], width)
	}
	return lines
}
