// Package engine translates viewport geometry into calendar sections and
// drives scroll notifications.
package engine

import (
	"math"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	appLog "github.com/verte-zerg/dozycal/internal/log"
	"github.com/verte-zerg/dozycal/internal/window"
)

var (
	_ Proxy = (*Engine)(nil)
	_ Feed  = (*Engine)(nil)
)

type scrollRequest struct {
	date     calendar.Date
	animated bool
}

// Engine pages through a window of sections one section extent at a time.
// All methods must be called from the host's event loop.
type Engine struct {
	cfg     Config
	win     *window.Manager
	handler Handler
	host    Host

	extent float64
	offset float64
	phase  Phase

	lastWill    calendar.Identifier
	hasLastWill bool
	current     calendar.Identifier
	target      calendar.Identifier
	pending     *scrollRequest
}

// New builds the first window around cfg.InitialDate (or today) and reports
// it to handler. A nil handler discards notifications.
func New(cfg Config, handler Handler) *Engine {
	cfg = cfg.withDefaults()
	if handler == nil {
		handler = HandlerFuncs{}
	}
	e := &Engine{
		cfg:     cfg,
		handler: handler,
		win: window.New(cfg.Calendar, cfg.Style, cfg.Range, window.Options{
			EdgeDistance:       cfg.EdgeDistance,
			MaxBoundedSections: cfg.MaxBoundedSections,
		}),
	}
	focus := cfg.InitialDate
	if focus.IsZero() {
		focus = e.Today()
	}
	focus = cfg.Range.Clamp(focus)
	e.win.GenerateAround(focus)
	e.current = e.win.SectionID(focus)
	e.handler.WindowChanged(e.win.Sections())
	return e
}

// SetHost attaches the view whose offset the engine controls.
func (e *Engine) SetHost(h Host) { e.host = h }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Calendar returns the calendar used for all section arithmetic.
func (e *Engine) Calendar() calendar.Calendar { return e.cfg.Calendar }

// Today returns the current date in the calendar's location.
func (e *Engine) Today() calendar.Date { return e.cfg.Calendar.Today(e.cfg.Now()) }

// IsCurrentWeekday reports whether wd is today's weekday.
func (e *Engine) IsCurrentWeekday(wd time.Weekday) bool {
	return e.Today().Weekday() == wd
}

// Sections returns the current window.
func (e *Engine) Sections() []calendar.Section { return e.win.Sections() }

// Len returns the number of sections in the window.
func (e *Engine) Len() int { return e.win.Len() }

// Section returns the section at window position i.
func (e *Engine) Section(i int) calendar.Section { return e.win.Section(i) }

// Window exposes the underlying window manager.
func (e *Engine) Window() *window.Manager { return e.win }

// Extent returns the last reported page extent.
func (e *Engine) Extent() float64 { return e.extent }

// Offset returns the retained scroll offset.
func (e *Engine) Offset() float64 { return e.offset }

// Phase returns the gesture phase.
func (e *Engine) Phase() Phase { return e.phase }

// Current returns the section the viewport last settled on.
func (e *Engine) Current() (calendar.Section, bool) {
	idx, ok := e.win.IndexOf(e.current)
	if !ok {
		return calendar.Section{}, false
	}
	return e.win.Section(idx), true
}

// CurrentIndex returns the window position of the current section.
func (e *Engine) CurrentIndex() (int, bool) {
	return e.win.IndexOf(e.current)
}

// ReportViewportSize reports the viewport size and uses the dimension
// along the scroll axis as the page extent.
func (e *Engine) ReportViewportSize(width, height float64) {
	if e.cfg.Axis == Horizontal {
		e.ReportViewportExtent(width)
		return
	}
	e.ReportViewportExtent(height)
}

// ReportViewportExtent sets the extent of one page. The first positive
// extent replays a queued ScrollTo or positions the viewport on the focal
// section.
func (e *Engine) ReportViewportExtent(extent float64) {
	if extent <= 0 || extent == e.extent {
		return
	}
	if e.extent > 0 {
		idx := e.nearestIndex()
		e.extent = extent
		e.offset = float64(idx) * extent
		e.setHostOffset(false)
		return
	}

	e.extent = extent
	if req := e.pending; req != nil {
		e.pending = nil
		appLog.Debug("replaying queued scroll", "date", req.date, "animated", req.animated)
		e.ScrollTo(req.date, req.animated)
		return
	}
	idx, _ := e.win.IndexOf(e.current)
	e.offset = float64(idx) * extent
	e.lastWill = e.current
	e.hasLastWill = true
	e.setHostOffset(false)
}

// ReportContentOffset reports a two-dimensional offset and keeps the
// component along the scroll axis.
func (e *Engine) ReportContentOffset(x, y float64) {
	if e.cfg.Axis == Horizontal {
		e.ReportOffset(x)
		return
	}
	e.ReportOffset(y)
}

// ReportOffset records the scroll offset. While the user drags or the view
// decelerates, it fires WillScroll once per new target section and grows
// the window near its edges.
func (e *Engine) ReportOffset(offset float64) {
	e.offset = offset
	if e.extent <= 0 || e.win.Len() == 0 {
		return
	}
	if e.phase != PhaseDragging && e.phase != PhaseDecelerating {
		return
	}
	idx := e.indexAt(offset)
	e.notifyWill(idx)
	e.expandNear(idx)
}

// ReportGesturePhase moves the gesture state machine. Returning to idle
// fires DidScroll for the settled section.
func (e *Engine) ReportGesturePhase(phase Phase) {
	prev := e.phase
	if phase == prev || phase == PhaseProgrammatic {
		return
	}
	switch phase {
	case PhaseDragging:
		if prev == PhaseProgrammatic {
			appLog.Debug("programmatic scroll interrupted", "target", e.target)
		}
		e.phase = PhaseDragging
	case PhaseDecelerating:
		e.phase = PhaseDecelerating
		if e.extent > 0 && e.win.Len() > 0 {
			e.notifyWill(e.indexAt(e.offset))
		}
	case PhaseIdle:
		e.phase = PhaseIdle
		switch prev {
		case PhaseProgrammatic:
			e.finishProgrammatic()
		case PhaseDragging:
			// A drag released without momentum only settles when it
			// crossed into another section.
			if e.extent > 0 && e.win.Len() > 0 && e.win.Section(e.nearestIndex()).ID != e.current {
				e.settle()
			}
		default:
			e.settle()
		}
	}
}

// ScrollTo pages to the section containing date. Requests made before the
// first viewport measurement are queued; a newer request replaces an older
// one. Jumps that regenerate the window are never animated.
func (e *Engine) ScrollTo(date calendar.Date, animated bool) {
	if e.extent <= 0 {
		e.pending = &scrollRequest{date: date, animated: animated}
		return
	}
	e.pending = nil

	target := e.win.SectionID(e.cfg.Range.Clamp(date))
	idx, ok := e.win.IndexOf(target)
	if !ok {
		e.win.JumpTo(date)
		appLog.Debug("window regenerated for scroll", "date", date, "target", target)
		e.handler.WindowChanged(e.win.Sections())
		idx, _ = e.win.IndexOf(target)
		animated = false
	}

	section := e.win.Section(idx)
	e.phase = PhaseProgrammatic
	e.target = section.ID
	e.lastWill = section.ID
	e.hasLastWill = true
	e.handler.WillScroll(section.Days)

	e.offset = float64(idx) * e.extent
	e.setHostOffset(animated)
	if !animated {
		e.phase = PhaseIdle
		e.finishProgrammatic()
	}
}

func (e *Engine) finishProgrammatic() {
	idx, ok := e.win.IndexOf(e.target)
	if !ok {
		e.settle()
		return
	}
	e.settleAt(idx)
}

func (e *Engine) settle() {
	if e.extent <= 0 || e.win.Len() == 0 {
		return
	}
	e.settleAt(e.nearestIndex())
}

func (e *Engine) settleAt(idx int) {
	section := e.win.Section(idx)
	e.current = section.ID
	e.lastWill = section.ID
	e.hasLastWill = true
	e.handler.DidScroll(section.Days)
	e.expandNear(idx)
}

func (e *Engine) notifyWill(idx int) {
	section := e.win.Section(idx)
	if e.hasLastWill && e.lastWill == section.ID {
		return
	}
	e.lastWill = section.ID
	e.hasLastWill = true
	e.handler.WillScroll(section.Days)
}

// expandNear grows the window when idx is within the margin of an edge.
// A prepend shifts the retained offset by one extent so the visible
// section stays put.
func (e *Engine) expandNear(idx int) {
	n := e.win.Len()
	nearStart := idx <= e.cfg.ExpandMargin
	nearEnd := idx >= n-1-e.cfg.ExpandMargin

	changed := false
	if nearStart && e.win.Expand(window.Backward) {
		changed = true
		e.offset += e.extent
		e.setHostOffset(false)
	}
	if nearEnd && e.win.Expand(window.Forward) {
		changed = true
	}
	if changed {
		e.handler.WindowChanged(e.win.Sections())
	}
}

func (e *Engine) setHostOffset(animated bool) {
	if e.host != nil {
		e.host.SetOffset(e.offset, animated)
	}
}

func (e *Engine) indexAt(offset float64) int {
	return e.clampIndex(int(math.Floor(offset / e.extent)))
}

func (e *Engine) nearestIndex() int {
	if e.extent <= 0 {
		return 0
	}
	return e.clampIndex(int(math.Floor(e.offset/e.extent + 0.5)))
}

func (e *Engine) clampIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	if last := e.win.Len() - 1; idx > last {
		return last
	}
	return idx
}
