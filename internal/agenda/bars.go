package agenda

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	defaultBarHeight = 6
	minBarWidth      = 7
	axisSeparator    = " │ "
)

var barLevels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLoadBars draws busy hours per day as a bar chart that fits in width
// columns. Days are averaged together when there are more days than columns.
func RenderLoadBars(loads []DayLoad, width, height int) []string {
	if len(loads) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultBarHeight
	}

	values := make([]float64, len(loads))
	peak := 0.0
	for i, l := range loads {
		values[i] = l.Busy.Hours()
		peak = math.Max(peak, values[i])
	}
	top := math.Max(1, math.Ceil(peak))
	topLabel := fmt.Sprintf("%gh", top)
	axisWidth := runewidth.StringWidth(topLabel)

	plotWidth := width - axisWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minBarWidth {
		plotWidth = minBarWidth
	}
	if plotWidth > len(values) {
		plotWidth = len(values)
	}
	columns := resample(values, plotWidth)

	lines := make([]string, 0, height+1)
	for row := 0; row < height; row++ {
		label := ""
		switch row {
		case 0:
			label = topLabel
		case height - 1:
			label = "0h"
		}
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%*s%s", axisWidth, label, axisSeparator))
		// Rows count down from the top; each row holds eight levels.
		floor := float64(height-1-row) * 8
		for _, v := range columns {
			level := int(math.Round(v/top*float64(height*8))) - int(floor)
			if level < 0 {
				level = 0
			}
			if level > 8 {
				level = 8
			}
			b.WriteRune(barLevels[level])
		}
		lines = append(lines, b.String())
	}

	first := loads[0].Date.String()
	last := loads[len(loads)-1].Date.String()
	footer := strings.Repeat(" ", axisWidth+runewidth.StringWidth(axisSeparator)) + first
	if gap := plotWidth - len(first) - len(last); gap > 0 && first != last {
		footer += strings.Repeat(" ", gap) + last
	}
	return append(lines, footer)
}

func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
