// Package agendaui provides the Bubble Tea agenda interface.
package agendaui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/verte-zerg/dozycal/internal/agenda"
	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/model"
)

const (
	tabAgenda = iota
	tabLoad
	tabSources
)

const (
	barHeight   = 6
	topDayCount = 5
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea agenda UI.
type Model struct {
	reader agenda.Reader
	cfg    model.AgendaConfig
	loc    *time.Location

	report agenda.Report
	errMsg string

	tabs      []string
	activeTab int
	tables    map[int]*table.Model
	loadView  viewport.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs an agenda UI model. A nil loc means time.Local.
func NewModel(r agenda.Reader, cfg model.AgendaConfig, loc *time.Location) *Model {
	if loc == nil {
		loc = time.Local
	}
	agendaTable := newTable(agendaColumns(0))
	sourcesTable := newTable(sourceColumns(0))
	m := &Model{
		reader: r,
		cfg:    cfg,
		loc:    loc,
		tabs:   []string{"Agenda", "Load", "Sources"},
		tables: map[int]*table.Model{
			tabAgenda:  &agendaTable,
			tabSources: &sourcesTable,
		},
		loadView: viewport.New(0, 0),
	}
	m.initInputs()
	m.tables[tabAgenda].Focus()
	m.refreshReport()
	return m
}

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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "]":
			m.shiftDays(m.cfg.Days)
			return m, nil
		case "[":
			m.shiftDays(-m.cfg.Days)
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.loadView.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.loadView.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t, ok := m.tables[m.activeTab]; ok {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			m.loadView, cmd = m.loadView.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Config returns the active agenda selection.
func (m *Model) Config() model.AgendaConfig { return m.cfg }

// Report returns the last loaded report.
func (m *Model) Report() agenda.Report { return m.report }

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("From (YYYY-MM-DD): "),
		newFilterInput("Days: "),
		newFilterInput("Source: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.cfg.From.String())
	m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Days))
	m.filterInputs[2].SetValue(m.cfg.Source)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.loadView.Width = m.width
	m.loadView.Height = bodyHeight
	m.tables[tabAgenda].SetColumns(agendaColumns(m.width))
	m.tables[tabSources].SetColumns(sourceColumns(m.width))
	for _, t := range m.tables {
		t.SetWidth(m.width)
		// One line for the header and one for its border.
		t.SetHeight(maxInt(1, bodyHeight-2))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	for tab, t := range m.tables {
		if tab == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

func (m *Model) shiftDays(days int) {
	m.cfg.From = m.cfg.From.AddDays(days)
	m.refreshReport()
	m.updateLayout()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return m.renderTabs() + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	source := m.cfg.Source
	if source == "" {
		source = "all"
	}
	summary := fmt.Sprintf("Showing %s .. %s  source=%s  events=%d",
		m.cfg.From, m.cfg.To(), source, len(m.report.Occurrences))
	return headerStyle.Render(ansi.Truncate(summary, maxInt(m.width, 0), "..."))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Period: [/]  Filter: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	switch m.activeTab {
	case tabAgenda:
		if len(m.report.Occurrences) == 0 {
			return "No events in this period."
		}
		return tableMutedStyle.Render(m.tables[tabAgenda].View())
	case tabSources:
		if len(m.report.Sources) == 0 {
			return "No calendars imported yet."
		}
		return tableMutedStyle.Render(m.tables[tabSources].View())
	default:
		return m.loadView.View()
	}
}

func (m *Model) refreshReport() {
	report, err := agenda.BuildReport(context.Background(), m.reader, m.cfg, m.loc)
	if err != nil {
		m.errMsg = err.Error()
		m.report = agenda.Report{}
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.tables[tabAgenda].SetRows(agendaRows(m.report.Occurrences, m.loc))
	m.tables[tabAgenda].GotoTop()
	m.tables[tabSources].SetRows(sourceRows(m.report.Sources))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		m.loadView.SetContent("Failed to load agenda.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.loadView.SetContent(renderLoad(m.report, width))
}

func renderLoad(report agenda.Report, width int) string {
	if len(report.Occurrences) == 0 {
		return "No events in this period."
	}
	busiest := "-"
	if day, ok := report.Busiest(); ok {
		busiest = fmt.Sprintf("%s (%s)", day.Date.Time(nil).Format("Mon Jan 2"), formatDuration(day.Busy))
	}
	cards := []string{
		metricCard("Events", strconv.Itoa(len(report.Occurrences))),
		metricCard("Busy", formatDuration(report.TotalBusy())),
		metricCard("Busiest", busiest),
	}
	summary := strings.Join(cards, "\n")
	if width >= 80 {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	lines := []string{summary, "", cardTitleStyle.Render("Busy hours per day")}
	lines = append(lines, agenda.RenderLoadBars(report.Loads, width, barHeight)...)

	top := agenda.TopDays(report.Loads, topDayCount)
	if len(top) > 0 {
		rows := make([][]string, 0, len(top))
		for _, day := range top {
			rows = append(rows, []string{day.Date.String(), strconv.Itoa(day.Count), formatDuration(day.Busy)})
		}
		lines = append(lines, "", cardTitleStyle.Render("Busiest days"))
		lines = append(lines, agenda.FormatTable([]string{"Day", "Events", "Busy"}, rows, map[int]bool{1: true, 2: true})...)
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02dm", h, mins)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func agendaColumns(width int) []table.Column {
	summary := maxInt(12, width-10-11-16-12-4)
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Time", Width: 11},
		{Title: "Event", Width: summary},
		{Title: "Location", Width: 16},
		{Title: "Source", Width: 12},
	}
}

func agendaRows(occs []model.Occurrence, loc *time.Location) []table.Row {
	rows := make([]table.Row, 0, len(occs))
	var prev calendar.Date
	for _, occ := range occs {
		first, _ := occ.Days(loc)
		date := ""
		if first != prev {
			date = first.String()
			prev = first
		}
		cols := agenda.OccurrenceRow(occ, loc)
		rows = append(rows, table.Row{date, cols[0], cols[1], cols[2], cols[3]})
	}
	return rows
}

func sourceColumns(width int) []table.Column {
	id := maxInt(12, width-8-16-2)
	return []table.Column{
		{Title: "Calendar", Width: id},
		{Title: "Events", Width: 8},
		{Title: "Imported", Width: 16},
	}
}

func sourceRows(sources []model.Source) []table.Row {
	rows := make([]table.Row, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, table.Row{
			src.ID,
			strconv.Itoa(src.Occurrences),
			src.ImportedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	from, err := calendar.ParseDate(strings.TrimSpace(m.filterInputs[0].Value()))
	if err != nil {
		return fmt.Errorf("invalid from date (expected YYYY-MM-DD)")
	}
	days, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[1].Value()))
	if err != nil || days < 1 {
		return fmt.Errorf("invalid days (use integer >= 1)")
	}
	m.cfg = model.AgendaConfig{
		From:   from,
		Days:   days,
		Source: strings.TrimSpace(m.filterInputs[2].Value()),
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth > width {
		return ansi.Truncate(line, width, "")
	}
	return line + strings.Repeat(" ", width-lineWidth)
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}
