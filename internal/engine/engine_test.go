package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/window"
)

type offsetCall struct {
	offset   float64
	animated bool
}

type fakeHost struct {
	calls []offsetCall
}

func (h *fakeHost) SetOffset(offset float64, animated bool) {
	h.calls = append(h.calls, offsetCall{offset: offset, animated: animated})
}

func (h *fakeHost) last() offsetCall {
	if len(h.calls) == 0 {
		return offsetCall{offset: -1}
	}
	return h.calls[len(h.calls)-1]
}

type recorder struct {
	events   []string
	sections []calendar.Section
}

func (r *recorder) WindowChanged(sections []calendar.Section) {
	r.sections = sections
	r.events = append(r.events, fmt.Sprintf("window:%s..%s", sections[0].ID, sections[len(sections)-1].ID))
}

func (r *recorder) WillScroll(days []calendar.Day) {
	r.events = append(r.events, "will:"+label(days))
}

func (r *recorder) DidScroll(days []calendar.Day) {
	r.events = append(r.events, "did:"+label(days))
}

func (r *recorder) reset() { r.events = nil }

func (r *recorder) count(prefix string) int {
	n := 0
	for _, ev := range r.events {
		if strings.HasPrefix(ev, prefix) {
			n++
		}
	}
	return n
}

func label(days []calendar.Day) string {
	for _, d := range days {
		if d.IsInSection() {
			return fmt.Sprintf("%04d-%02d", d.Date.Year, int(d.Date.Month))
		}
	}
	return "empty"
}

func newTestEngine(t *testing.T, rng window.Range) (*Engine, *fakeHost, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New(Config{
		Calendar:    calendar.Calendar{Location: time.UTC, FirstWeekday: time.Sunday},
		Style:       calendar.Month(false),
		Range:       rng,
		InitialDate: calendar.NewDate(2024, time.March, 15),
	}, rec)
	host := &fakeHost{}
	e.SetHost(host)
	return e, host, rec
}

func assertEvents(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	if strings.Join(rec.events, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected events:\n got: %v\nwant: %v", rec.events, want)
	}
}

func TestNewGeneratesWindowAroundInitialDate(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())

	assertEvents(t, rec, "window:2023-09..2024-09")
	if e.Len() != 13 {
		t.Fatalf("expected 13 sections, got %d", e.Len())
	}
	cur, ok := e.Current()
	if !ok || cur.ID.Year != 2024 || cur.ID.Section != 3 {
		t.Fatalf("expected current March 2024, got %s %v", cur.ID, ok)
	}
}

func TestFirstExtentPositionsViewport(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	rec.reset()

	e.ReportViewportExtent(100)
	if host.last() != (offsetCall{offset: 600}) {
		t.Fatalf("expected offset 600, got %+v", host.last())
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no notifications, got %v", rec.events)
	}
}

func TestDragFiresWillScrollOncePerTarget(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(580)
	e.ReportOffset(550)
	e.ReportOffset(520)
	e.ReportGesturePhase(PhaseDecelerating)
	e.ReportOffset(510)
	e.ReportOffset(500)
	e.ReportGesturePhase(PhaseIdle)

	assertEvents(t, rec, "will:2024-02", "did:2024-02")
	cur, _ := e.Current()
	if cur.ID.Section != 2 {
		t.Fatalf("expected current February, got %s", cur.ID)
	}
}

func TestDecelerationAnnouncesTarget(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(600)
	rec.reset()

	e.ReportOffset(640)
	e.ReportGesturePhase(PhaseDecelerating)
	e.ReportOffset(700)
	e.ReportGesturePhase(PhaseIdle)

	assertEvents(t, rec, "will:2024-04", "did:2024-04")
}

func TestScrollToLeadingEdgePrependsAndAdjustsOffset(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(0)

	assertEvents(t, rec, "will:2023-09", "window:2023-08..2024-09")
	if e.Offset() != 100 {
		t.Fatalf("expected offset shifted by one extent to 100, got %v", e.Offset())
	}
	if host.last() != (offsetCall{offset: 100}) {
		t.Fatalf("expected host offset 100, got %+v", host.last())
	}
	if e.Section(0).ID.Section != 8 || e.Section(0).ID.Year != 2023 {
		t.Fatalf("expected August 2023 prepended, got %s", e.Section(0).ID)
	}

	e.ReportGesturePhase(PhaseIdle)
	if rec.events[len(rec.events)-1] != "did:2023-09" {
		t.Fatalf("expected did-scroll for September 2023, got %v", rec.events)
	}
}

func TestTrailingEdgeAppends(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(1150)

	assertEvents(t, rec, "will:2024-08", "window:2023-09..2024-10")
	if e.Offset() != 1150 {
		t.Fatalf("append must not move the offset, got %v", e.Offset())
	}
	for i := 1; i < e.Len(); i++ {
		if e.Calendar().Next(e.Section(i-1).ID) != e.Section(i).ID {
			t.Fatalf("window not contiguous at %d", i)
		}
	}
}

func TestBoundedRangeNeverExpands(t *testing.T) {
	rng := window.Bounded(calendar.NewDate(2024, time.January, 1), calendar.NewDate(2024, time.June, 30))
	e, _, rec := newTestEngine(t, rng)
	e.ReportViewportExtent(10)
	rec.reset()

	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(0)
	e.ReportOffset(55)
	e.ReportGesturePhase(PhaseIdle)

	assertEvents(t, rec, "will:2024-01", "will:2024-06", "did:2024-06")
	if e.Len() != 6 {
		t.Fatalf("expected bounded window of 6, got %d", e.Len())
	}
}

func TestScrollToInWindowWithoutAnimation(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ScrollTo(calendar.NewDate(2024, time.May, 20), false)

	assertEvents(t, rec, "will:2024-05", "did:2024-05")
	if host.last() != (offsetCall{offset: 800}) {
		t.Fatalf("expected offset 800, got %+v", host.last())
	}
	if e.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase, got %v", e.Phase())
	}
}

func TestAnimatedScrollToWaitsForHost(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ScrollTo(calendar.NewDate(2024, time.May, 20), true)
	assertEvents(t, rec, "will:2024-05")
	if host.last() != (offsetCall{offset: 800, animated: true}) {
		t.Fatalf("expected animated offset 800, got %+v", host.last())
	}
	if e.Phase() != PhaseProgrammatic {
		t.Fatalf("expected programmatic phase, got %v", e.Phase())
	}

	e.ReportOffset(700)
	e.ReportOffset(800)
	e.ReportGesturePhase(PhaseIdle)
	assertEvents(t, rec, "will:2024-05", "did:2024-05")
}

func TestNewerScrollToSupersedesAnimation(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ScrollTo(calendar.NewDate(2024, time.May, 1), true)
	e.ScrollTo(calendar.NewDate(2024, time.July, 1), true)
	e.ReportGesturePhase(PhaseIdle)

	assertEvents(t, rec, "will:2024-05", "will:2024-07", "did:2024-07")
}

func TestScrollToFarFutureRegeneratesOnce(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ScrollTo(calendar.NewDate(2029, time.March, 15), true)

	assertEvents(t, rec, "window:2028-09..2029-09", "will:2029-03", "did:2029-03")
	if rec.count("did:") != 1 || rec.count("window:") != 1 {
		t.Fatalf("expected one regeneration and one did-scroll, got %v", rec.events)
	}
	if host.last() != (offsetCall{offset: 600, animated: false}) {
		t.Fatalf("expected unanimated jump to the center, got %+v", host.last())
	}
	if e.Phase() != PhaseIdle {
		t.Fatalf("expected idle after jump, got %v", e.Phase())
	}
}

func TestScrollToBeforeGeometryIsQueued(t *testing.T) {
	e, host, rec := newTestEngine(t, window.Infinite())
	rec.reset()

	e.ScrollTo(calendar.NewDate(2024, time.January, 10), true)
	e.ScrollTo(calendar.NewDate(2024, time.April, 10), false)
	if len(rec.events) != 0 || len(host.calls) != 0 {
		t.Fatalf("expected nothing before geometry, got %v %v", rec.events, host.calls)
	}

	e.ReportViewportExtent(50)
	assertEvents(t, rec, "will:2024-04", "did:2024-04")
	if host.last() != (offsetCall{offset: 350}) {
		t.Fatalf("expected offset 350, got %+v", host.last())
	}
}

func TestScrollToClampsToBoundedRange(t *testing.T) {
	rng := window.Bounded(calendar.NewDate(2024, time.January, 1), calendar.NewDate(2024, time.June, 30))
	e, host, rec := newTestEngine(t, rng)
	e.ReportViewportExtent(10)
	rec.reset()

	e.ScrollTo(calendar.NewDate(2031, time.January, 1), false)
	assertEvents(t, rec, "will:2024-06", "did:2024-06")
	if host.last() != (offsetCall{offset: 50}) {
		t.Fatalf("expected offset 50, got %+v", host.last())
	}
}

func TestDragReleasedInPlaceDoesNotSettle(t *testing.T) {
	e, _, rec := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	rec.reset()

	e.ReportGesturePhase(PhaseDragging)
	e.ReportOffset(610)
	e.ReportGesturePhase(PhaseIdle)
	if len(rec.events) != 0 {
		t.Fatalf("expected no notifications, got %v", rec.events)
	}
}

func TestExtentChangeKeepsSection(t *testing.T) {
	e, host, _ := newTestEngine(t, window.Infinite())
	e.ReportViewportExtent(100)
	e.ScrollTo(calendar.NewDate(2024, time.May, 1), false)

	e.ReportViewportExtent(40)
	if host.last() != (offsetCall{offset: 320}) {
		t.Fatalf("expected rescaled offset 320, got %+v", host.last())
	}
}

func TestReportViewportSizeUsesAxis(t *testing.T) {
	e := New(Config{
		Calendar:    calendar.Calendar{Location: time.UTC, FirstWeekday: time.Monday},
		Style:       calendar.Week(),
		Axis:        Horizontal,
		InitialDate: calendar.NewDate(2024, time.March, 15),
	}, nil)
	e.ReportViewportSize(320, 80)
	if e.Extent() != 320 {
		t.Fatalf("expected horizontal extent 320, got %v", e.Extent())
	}
	e.ReportContentOffset(640, 5)
	if e.Offset() != 640 {
		t.Fatalf("expected horizontal offset 640, got %v", e.Offset())
	}
}

func TestIsCurrentWeekday(t *testing.T) {
	e := New(Config{
		Calendar: calendar.Calendar{Location: time.UTC, FirstWeekday: time.Sunday},
		Now:      func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) },
	}, nil)
	if !e.IsCurrentWeekday(time.Friday) || e.IsCurrentWeekday(time.Monday) {
		t.Fatalf("expected Friday to be the current weekday")
	}
	if e.Today() != calendar.NewDate(2024, time.March, 15) {
		t.Fatalf("unexpected today %s", e.Today())
	}
}
