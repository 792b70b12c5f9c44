package window

import (
	"fmt"

	"github.com/verte-zerg/dozycal/internal/calendar"
	appLog "github.com/verte-zerg/dozycal/internal/log"
)

const (
	// DefaultEdgeDistance is how many sections are kept on each side of the
	// focal section.
	DefaultEdgeDistance = 6
	// DefaultMaxBoundedSections caps how many sections a bounded range
	// materializes at once. Longer ranges are windowed like infinite ones.
	DefaultMaxBoundedSections = 240
)

// Direction selects the window edge to grow.
type Direction int

const (
	Backward Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Options tunes window sizing. Zero values select the defaults.
type Options struct {
	EdgeDistance int
	// MaxBoundedSections below zero materializes any bounded range in full.
	MaxBoundedSections int
}

// Manager owns the section cache and the current window. It is not safe
// for concurrent use.
type Manager struct {
	cal   calendar.Calendar
	style calendar.Style
	rng   Range

	edge       int
	maxBounded int
	startID    calendar.Identifier
	endID      calendar.Identifier

	cache    map[calendar.Identifier]calendar.Section
	sections []calendar.Section
}

// New creates a manager with an empty window. It panics when a bounded
// range starts after it ends.
func New(cal calendar.Calendar, style calendar.Style, rng Range, opts Options) *Manager {
	m := &Manager{
		cal:        cal,
		style:      style,
		rng:        rng,
		edge:       opts.EdgeDistance,
		maxBounded: opts.MaxBoundedSections,
		cache:      map[calendar.Identifier]calendar.Section{},
	}
	if m.edge <= 0 {
		m.edge = DefaultEdgeDistance
	}
	if m.maxBounded == 0 {
		m.maxBounded = DefaultMaxBoundedSections
	}
	if rng.IsBounded() {
		start, end := rng.Bounds()
		m.startID = cal.SectionID(start, style)
		m.endID = cal.SectionID(end, style)
		if m.startID.After(m.endID) {
			panic(fmt.Sprintf("window: range start %s is after range end %s; check the calendar configuration", start, end))
		}
	}
	return m
}

// Calendar returns the calendar the manager builds sections with.
func (m *Manager) Calendar() calendar.Calendar { return m.cal }

// Style returns the section style.
func (m *Manager) Style() calendar.Style { return m.style }

// Range returns the configured date range.
func (m *Manager) Range() Range { return m.rng }

// EdgeDistance returns the number of sections kept on each side of the focus.
func (m *Manager) EdgeDistance() int { return m.edge }

// SectionID returns the identifier of the section containing d.
func (m *Manager) SectionID(d calendar.Date) calendar.Identifier {
	return m.cal.SectionID(d, m.style)
}

// GenerateAround regenerates the window around the section containing d.
func (m *Manager) GenerateAround(d calendar.Date) {
	m.Generate(m.SectionID(m.rng.Clamp(d)))
}

// Generate replaces the window. Infinite ranges get base±EdgeDistance;
// bounded ranges get every section between the bounds unless that exceeds
// the cap, in which case base±EdgeDistance is clamped to the bounds.
func (m *Manager) Generate(base calendar.Identifier) {
	if !m.rng.IsBounded() {
		m.generate(m.cal.Advance(base, -m.edge), m.cal.Advance(base, m.edge))
		return
	}

	total := m.cal.Distance(m.startID, m.endID) + 1
	if m.maxBounded < 0 || total <= m.maxBounded {
		m.generate(m.startID, m.endID)
		return
	}

	if base.Before(m.startID) {
		base = m.startID
	} else if base.After(m.endID) {
		base = m.endID
	}
	first := m.cal.Advance(base, -m.edge)
	last := m.cal.Advance(base, m.edge)
	if first.Before(m.startID) {
		last = m.cal.Advance(last, m.cal.Distance(first, m.startID))
		first = m.startID
	}
	if last.After(m.endID) {
		first = m.cal.Advance(first, -m.cal.Distance(m.endID, last))
		last = m.endID
	}
	if first.Before(m.startID) {
		first = m.startID
	}
	m.generate(first, last)
}

func (m *Manager) generate(first, last calendar.Identifier) {
	if first.After(last) {
		panic(fmt.Sprintf("window: starting section %s must not be after ending section %s", first, last))
	}
	sections := make([]calendar.Section, 0, m.cal.Distance(first, last)+1)
	for id := first; !id.After(last); id = m.cal.Next(id) {
		sections = append(sections, m.section(id))
	}
	m.sections = sections
	appLog.Debug("window generated", "first", first, "last", last, "sections", len(sections), "cached", len(m.cache))
}

// Expand grows the window by one section in dir. It returns false when a
// bound of the range has been reached or the window is empty.
func (m *Manager) Expand(dir Direction) bool {
	if len(m.sections) == 0 {
		return false
	}
	switch dir {
	case Backward:
		first := m.sections[0].ID
		if m.rng.IsBounded() && !first.After(m.startID) {
			return false
		}
		next := m.section(m.cal.Previous(first))
		m.sections = append([]calendar.Section{next}, m.sections...)
	case Forward:
		last := m.sections[len(m.sections)-1].ID
		if m.rng.IsBounded() && !last.Before(m.endID) {
			return false
		}
		m.sections = append(m.sections, m.section(m.cal.Next(last)))
	default:
		return false
	}
	appLog.Debug("window expanded", "direction", dir, "sections", len(m.sections))
	return true
}

// JumpTo makes sure the section containing d is in the window. Dates outside
// a bounded range are clamped first. It reports whether the window had to be
// regenerated.
func (m *Manager) JumpTo(d calendar.Date) bool {
	target := m.SectionID(m.rng.Clamp(d))
	if m.Contains(target) {
		return false
	}
	m.Generate(target)
	return true
}

// Contains reports whether id is part of the window.
func (m *Manager) Contains(id calendar.Identifier) bool {
	if len(m.sections) == 0 || id.Style != m.style {
		return false
	}
	return id.Between(m.sections[0].ID, m.sections[len(m.sections)-1].ID)
}

// IndexOf returns the window position of id.
func (m *Manager) IndexOf(id calendar.Identifier) (int, bool) {
	if !m.Contains(id) {
		return 0, false
	}
	return m.cal.Distance(m.sections[0].ID, id), true
}

// Len returns the number of sections in the window.
func (m *Manager) Len() int { return len(m.sections) }

// Section returns the section at window position i.
func (m *Manager) Section(i int) calendar.Section { return m.sections[i] }

// Sections returns a copy of the window.
func (m *Manager) Sections() []calendar.Section {
	return append([]calendar.Section(nil), m.sections...)
}

// First returns the first section of the window.
func (m *Manager) First() calendar.Section { return m.sections[0] }

// Last returns the last section of the window.
func (m *Manager) Last() calendar.Section { return m.sections[len(m.sections)-1] }

// CacheLen returns how many distinct sections have been built.
func (m *Manager) CacheLen() int { return len(m.cache) }

// DaySpan returns the first and last dates displayed anywhere in the window.
func (m *Manager) DaySpan() (calendar.Date, calendar.Date) {
	if len(m.sections) == 0 {
		return calendar.Date{}, calendar.Date{}
	}
	first, _ := m.sections[0].Span()
	_, last := m.sections[len(m.sections)-1].Span()
	return first, last
}

func (m *Manager) section(id calendar.Identifier) calendar.Section {
	if s, ok := m.cache[id]; ok {
		return s
	}
	s := m.cal.Build(id)
	m.cache[id] = s
	return s
}
