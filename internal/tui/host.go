package tui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dozycal/internal/engine"
)

const (
	frameInterval  = 30 * time.Millisecond
	animationSteps = 6
)

var _ engine.Host = (*Model)(nil)
var _ engine.Handler = (*Model)(nil)

type frameMsg struct {
	seq int
}

// animation moves the view offset towards a page boundary. Gesture
// animations stand in for a user's drag; the others play a ScrollTo.
type animation struct {
	active  bool
	gesture bool
	from    float64
	to      float64
	step    int
}

// SetOffset implements engine.Host. Unanimated offsets that arrive during a
// gesture are window prepends and shift the running animation with them.
func (m *Model) SetOffset(offset float64, animated bool) {
	if animated {
		m.startAnimation(offset, false)
		return
	}
	if m.anim.active && m.anim.gesture {
		delta := offset - m.offset
		m.offset = offset
		m.anim.from += delta
		m.anim.to += delta
		return
	}
	m.cancelAnimation()
	m.offset = offset
}

// page simulates a swipe of dir sections: a short drag followed by a
// decelerating glide onto the neighbouring page.
func (m *Model) page(dir int) {
	ext := m.engine.Extent()
	n := m.engine.Len()
	if ext <= 0 || n == 0 {
		return
	}

	if m.anim.active && m.anim.gesture {
		to := m.anim.to + float64(dir)*ext
		m.startAnimation(clampOffset(to, ext, n), true)
		return
	}
	m.finishAnimation()

	idx := clampIndex(int(math.Round(m.offset/ext))+dir, n)
	if float64(idx)*ext == m.offset {
		return
	}
	targetID := m.engine.Section(idx).ID

	m.engine.ReportGesturePhase(engine.PhaseDragging)
	m.offset += float64(dir)
	m.engine.ReportOffset(m.offset)
	m.engine.ReportGesturePhase(engine.PhaseDecelerating)

	// The drag may have prepended sections, so look the target up again.
	if i, ok := m.engine.Window().IndexOf(targetID); ok {
		idx = i
	}
	m.startAnimation(float64(idx)*m.engine.Extent(), true)
}

func (m *Model) startAnimation(to float64, gesture bool) {
	m.animSeq++
	m.anim = animation{
		active:  true,
		gesture: gesture,
		from:    m.offset,
		to:      to,
	}
	m.needTick = true
}

func (m *Model) stepAnimation() {
	m.anim.step++
	if m.anim.step >= animationSteps {
		m.finishAnimation()
		return
	}
	t := float64(m.anim.step) / animationSteps
	eased := 1 - math.Pow(1-t, 3)
	m.offset = m.anim.from + (m.anim.to-m.anim.from)*eased
	m.engine.ReportOffset(m.offset)
	m.needTick = true
}

// finishAnimation jumps to the end of a running animation and tells the
// engine the view came to rest.
func (m *Model) finishAnimation() {
	if !m.anim.active {
		return
	}
	to := m.anim.to
	m.cancelAnimation()
	m.offset = to
	m.engine.ReportOffset(m.offset)
	m.engine.ReportGesturePhase(engine.PhaseIdle)
}

func (m *Model) cancelAnimation() {
	if m.anim.active {
		m.animSeq++
	}
	m.anim = animation{}
}

func (m *Model) takeCmd() tea.Cmd {
	if !m.needTick {
		return nil
	}
	m.needTick = false
	if !m.anim.active {
		return nil
	}
	seq := m.animSeq
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{seq: seq}
	})
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func clampOffset(offset, ext float64, n int) float64 {
	if offset < 0 {
		return 0
	}
	if limit := float64(n-1) * ext; offset > limit {
		return limit
	}
	return offset
}
