// Package tui provides the Bubble Tea calendar interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/engine"
	appLog "github.com/verte-zerg/dozycal/internal/log"
	"github.com/verte-zerg/dozycal/internal/model"
)

const (
	detailHeight     = 4
	renderCacheSize  = 64
	minSectionHeight = 3
)

// EventSource supplies day decorations. It is satisfied by *store.Store.
type EventSource interface {
	CountByDay(ctx context.Context, from, to calendar.Date) (map[calendar.Date]int, error)
	ListByDay(ctx context.Context, day calendar.Date) ([]model.Occurrence, error)
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	todayHdrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	dayStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	paddingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#141414")).Background(lipgloss.Color("#C89A3A")).Bold(true)
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6FA8DC"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea calendar UI. It hosts the scroll engine:
// the engine sets offsets on it and it reports geometry and gesture phases
// back.
type Model struct {
	engine *engine.Engine
	events EventSource
	cfg    engine.Config

	keys   keyMap
	help   help.Model
	prompt textinput.Model

	prompting bool

	width  int
	height int

	offset   float64
	anim     animation
	animSeq  int
	needTick bool

	selected     calendar.Date
	counts       map[calendar.Date]int
	countsVer    int
	dayEvents    []model.Occurrence
	upcoming     string
	errMsg       string
	renderCache  *lru.Cache[renderKey, []string]
	windowEvents int
}

// NewModel constructs a calendar TUI model. events may be nil.
func NewModel(cfg engine.Config, events EventSource) *Model {
	cache, err := lru.New[renderKey, []string](renderCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	m := &Model{
		events:      events,
		keys:        newKeyMap(),
		help:        help.New(),
		prompt:      newPromptInput(),
		counts:      map[calendar.Date]int{},
		renderCache: cache,
	}
	m.engine = engine.New(cfg, m)
	m.cfg = m.engine.Config()
	m.engine.SetHost(m)

	selected := m.cfg.InitialDate
	if selected.IsZero() {
		selected = m.engine.Today()
	}
	m.selected = m.cfg.Range.Clamp(selected)
	m.loadDayEvents()
	return m
}

func newPromptInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Go to: "
	input.Placeholder = "YYYY-MM-DD"
	input.CharLimit = 10
	return input
}

// Engine exposes the scroll engine driving the view.
func (m *Model) Engine() *engine.Engine { return m.engine }

// Selected returns the selected date.
func (m *Model) Selected() calendar.Date { return m.selected }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.prompt.Width = maxInt(10, msg.Width-lipgloss.Width(m.prompt.Prompt)-2)
		m.reportGeometry()
		return m, m.takeCmd()
	case frameMsg:
		if msg.seq != m.animSeq || !m.anim.active {
			return m, nil
		}
		m.stepAnimation()
		return m, m.takeCmd()
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Prev), key.Matches(msg, m.keys.PrevPage):
		m.page(-1)
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.NextPage):
		m.page(1)
	case key.Matches(msg, m.keys.PrevDay):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.NextDay):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Today):
		m.selectDate(m.engine.Today())
	case key.Matches(msg, m.keys.Goto):
		m.prompting = true
		m.prompt.SetValue("")
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.reportGeometry()
	}
	return m, m.takeCmd()
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		raw := strings.TrimSpace(m.prompt.Value())
		date, err := calendar.ParseDate(raw)
		if err != nil {
			m.errMsg = fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", raw)
			return m, nil
		}
		m.closePrompt()
		m.selectDate(date)
		return m, m.takeCmd()
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompting = false
	m.errMsg = ""
	m.prompt.Blur()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyHeight, helpView := m.layout()
	parts := []string{
		strings.Join(m.visibleLines(bodyHeight), "\n"),
		strings.Join(fitLines(m.renderDetail(), m.width, detailHeight), "\n"),
		padLine(m.renderStatus(), m.width),
		helpView,
	}
	return strings.Join(parts, "\n")
}

func (m *Model) layout() (bodyHeight int, helpView string) {
	helpView = m.help.View(m.keys)
	bodyHeight = m.height - detailHeight - 1 - lipgloss.Height(helpView)
	if bodyHeight < minSectionHeight {
		bodyHeight = minSectionHeight
	}
	return bodyHeight, helpView
}

func (m *Model) reportGeometry() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.finishAnimation()
	bodyHeight, _ := m.layout()
	m.engine.ReportViewportSize(float64(m.width), float64(bodyHeight))
}

// moveSelection shifts the selection by days and follows it into the
// neighbouring section when it leaves the current one.
func (m *Model) moveSelection(days int) {
	m.selectDate(m.selected.AddDays(days))
}

func (m *Model) selectDate(date calendar.Date) {
	date = m.cfg.Range.Clamp(date)
	m.selected = date
	m.loadDayEvents()
	if cur, ok := m.engine.Current(); ok && !m.anim.active && cur.Contains(date) {
		return
	}
	m.scrollTo(date, true)
}

func (m *Model) scrollTo(date calendar.Date, animated bool) {
	m.cancelAnimation()
	m.engine.ScrollTo(date, animated)
}

// WindowChanged implements engine.Handler.
func (m *Model) WindowChanged(sections []calendar.Section) {
	m.windowEvents++
	if len(sections) == 0 {
		return
	}
	first, _ := sections[0].Span()
	_, last := sections[len(sections)-1].Span()
	m.loadCounts(first, last)
}

// WillScroll implements engine.Handler.
func (m *Model) WillScroll(days []calendar.Day) {
	m.upcoming = sectionTitleOfDays(m.cfg.Calendar, m.cfg.Style, days)
}

// DidScroll implements engine.Handler. A selection outside the settled
// section moves to the section's first day.
func (m *Model) DidScroll(days []calendar.Day) {
	m.upcoming = ""
	for _, d := range days {
		if d.IsInSection() && d.Date == m.selected {
			return
		}
	}
	for _, d := range days {
		if d.IsInSection() && m.cfg.Range.Contains(d.Date) {
			m.selected = d.Date
			m.loadDayEvents()
			return
		}
	}
}

func (m *Model) loadCounts(first, last calendar.Date) {
	if m.events == nil {
		return
	}
	counts, err := m.events.CountByDay(context.Background(), first, last)
	if err != nil {
		appLog.Error("failed to load day counts", err, "from", first, "to", last)
		return
	}
	m.counts = counts
	m.countsVer++
}

func (m *Model) loadDayEvents() {
	m.dayEvents = nil
	if m.events == nil {
		return
	}
	occs, err := m.events.ListByDay(context.Background(), m.selected)
	if err != nil {
		appLog.Error("failed to load day events", err, "date", m.selected)
		return
	}
	m.dayEvents = occs
}

func (m *Model) renderStatus() string {
	switch {
	case m.prompting && m.errMsg != "":
		return m.prompt.View() + "  " + errorStyle.Render(m.errMsg)
	case m.prompting:
		return m.prompt.View()
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.upcoming != "":
		return footerStyle.Render("→ " + m.upcoming)
	default:
		return footerStyle.Render(m.selected.Time(m.location()).Format("Monday, January 2 2006"))
	}
}

func (m *Model) location() *time.Location {
	if m.cfg.Calendar.Location == nil {
		return time.Local
	}
	return m.cfg.Calendar.Location
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
