package agenda

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/dozycal/internal/model"
)

// FormatTable aligns rows under headers. Columns listed in rightAlignCols
// are right aligned; the last column is never padded.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		last := i == len(widths)-1
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i], last))
	}
	return b.String()
}

func padCell(value string, width int, rightAlign, last bool) string {
	padding := width - runewidth.StringWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	if last {
		return value
	}
	return value + strings.Repeat(" ", padding)
}

// OccurrenceRow renders the when/what/where/source columns of occ.
func OccurrenceRow(occ model.Occurrence, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	when := "all day"
	if !occ.AllDay {
		when = occ.Start.In(loc).Format("15:04")
		if occ.End.After(occ.Start) {
			when += "-" + occ.End.In(loc).Format("15:04")
		}
	}
	return []string{when, occ.Summary, occ.Location, occ.SourceID}
}
