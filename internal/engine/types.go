package engine

import (
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/window"
)

// Axis is the direction sections are paged in.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Phase is the state of the current scroll gesture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseDecelerating
	// PhaseProgrammatic is entered by ScrollTo while an animated scroll is
	// in flight. Hosts never report it.
	PhaseProgrammatic
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseDecelerating:
		return "decelerating"
	case PhaseProgrammatic:
		return "programmatic"
	default:
		return "unknown"
	}
}

// Host is the view that owns the scroll offset.
type Host interface {
	SetOffset(offset float64, animated bool)
}

// Handler receives the engine's notifications.
type Handler interface {
	WindowChanged(sections []calendar.Section)
	WillScroll(days []calendar.Day)
	DidScroll(days []calendar.Day)
}

// HandlerFuncs adapts optional callbacks to Handler.
type HandlerFuncs struct {
	OnWindowChanged func(sections []calendar.Section)
	OnWillScroll    func(days []calendar.Day)
	OnDidScroll     func(days []calendar.Day)
}

func (h HandlerFuncs) WindowChanged(sections []calendar.Section) {
	if h.OnWindowChanged != nil {
		h.OnWindowChanged(sections)
	}
}

func (h HandlerFuncs) WillScroll(days []calendar.Day) {
	if h.OnWillScroll != nil {
		h.OnWillScroll(days)
	}
}

func (h HandlerFuncs) DidScroll(days []calendar.Day) {
	if h.OnDidScroll != nil {
		h.OnDidScroll(days)
	}
}

// Proxy lets consumers request programmatic scrolling.
type Proxy interface {
	ScrollTo(date calendar.Date, animated bool)
}

// Feed is what a host view reports to the engine.
type Feed interface {
	ReportViewportExtent(extent float64)
	ReportOffset(offset float64)
	ReportGesturePhase(phase Phase)
}

// Config describes a calendar component.
type Config struct {
	Calendar calendar.Calendar
	Style    calendar.Style
	Range    window.Range
	Axis     Axis

	// InitialDate is the focal date of the first window; zero means today.
	InitialDate calendar.Date
	// Now is used to find today; nil means time.Now.
	Now func() time.Time

	// EdgeDistance is the number of sections kept on each side of the focus.
	EdgeDistance int
	// ExpandMargin is how close to an edge the target index may get before
	// the window grows.
	ExpandMargin int
	// MaxBoundedSections caps full materialization of bounded ranges; below
	// zero disables the cap.
	MaxBoundedSections int

	// Layout values carried for hosts. The engine does not read them.
	RowSpacing     float64
	ColumnSpacing  float64
	SectionPadding float64
}

const defaultExpandMargin = 2

func (c Config) withDefaults() Config {
	if c.Style == (calendar.Style{}) {
		c.Style = calendar.Month(false)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.EdgeDistance <= 0 {
		c.EdgeDistance = window.DefaultEdgeDistance
	}
	if c.ExpandMargin <= 0 {
		c.ExpandMargin = defaultExpandMargin
	}
	return c
}
