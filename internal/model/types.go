// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/engine"
	"github.com/verte-zerg/dozycal/internal/window"
)

// Config defines the resolved calendar view settings.
type Config struct {
	Calendar    calendar.Calendar
	Style       calendar.Style
	Range       window.Range
	Axis        engine.Axis
	InitialDate calendar.Date

	EdgeDistance       int
	MaxBoundedSections int
	RowSpacing         float64
	ColumnSpacing      float64
	SectionPadding     float64
}

// EngineConfig converts c into the engine's configuration.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		Calendar:           c.Calendar,
		Style:              c.Style,
		Range:              c.Range,
		Axis:               c.Axis,
		InitialDate:        c.InitialDate,
		EdgeDistance:       c.EdgeDistance,
		MaxBoundedSections: c.MaxBoundedSections,
		RowSpacing:         c.RowSpacing,
		ColumnSpacing:      c.ColumnSpacing,
		SectionPadding:     c.SectionPadding,
	}
}

// Occurrence is one concrete instance of an imported event.
type Occurrence struct {
	SourceID string
	UID      string
	// InstanceKey identifies one instance of a recurring event.
	InstanceKey string

	Summary  string
	Location string
	AllDay   bool

	// Start and End are in the calendar's location. End is exclusive.
	Start time.Time
	End   time.Time
}

// Days returns the first and last calendar dates the occurrence touches.
// All-day occurrences keep their own dates regardless of loc.
func (o Occurrence) Days(loc *time.Location) (calendar.Date, calendar.Date) {
	start, end := o.Start, o.End
	if !o.AllDay && loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	first := calendar.DateOf(start)
	last := first
	if end.After(start) {
		// End is exclusive, so an event ending at midnight stays on the day before.
		last = calendar.DateOf(end.Add(-time.Nanosecond))
	}
	if last.Before(first) {
		last = first
	}
	return first, last
}

// Source summarizes one imported calendar.
type Source struct {
	ID          string
	ImportedAt  time.Time
	Occurrences int
}

// AgendaConfig selects the occurrences shown by the agenda views.
type AgendaConfig struct {
	From calendar.Date
	Days int
	// Source limits the agenda to one imported calendar; empty means all.
	Source string
}

// To returns the last day covered by the agenda.
func (c AgendaConfig) To() calendar.Date {
	if c.Days <= 1 {
		return c.From
	}
	return c.From.AddDays(c.Days - 1)
}
