package agendaui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/model"
)

type fakeReader struct {
	occs    []model.Occurrence
	sources []model.Source
	err     error
	calls   int
	lastTo  calendar.Date
}

func (f *fakeReader) ListRange(_ context.Context, from, to calendar.Date, sourceID string) ([]model.Occurrence, error) {
	f.calls++
	f.lastTo = to
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Occurrence
	for _, occ := range f.occs {
		d := calendar.DateOf(occ.Start.UTC())
		if d.Before(from) || d.After(to) {
			continue
		}
		if sourceID != "" && occ.SourceID != sourceID {
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}

func (f *fakeReader) ListSources(context.Context) ([]model.Source, error) {
	return f.sources, nil
}

func newTestModel(t *testing.T, r *fakeReader) *Model {
	t.Helper()
	cfg := model.AgendaConfig{From: calendar.NewDate(2024, time.April, 1), Days: 7}
	m := NewModel(r, cfg, time.UTC)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func testReader() *fakeReader {
	start := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)
	return &fakeReader{
		occs: []model.Occurrence{
			{SourceID: "work", Summary: "Planning", Location: "Room 4", Start: start, End: start.Add(90 * time.Minute)},
			{SourceID: "home", Summary: "Dentist", Start: start.Add(26 * time.Hour), End: start.Add(27 * time.Hour)},
		},
		sources: []model.Source{{ID: "work", Occurrences: 1}, {ID: "home", Occurrences: 1}},
	}
}

func TestAgendaTabListsEvents(t *testing.T) {
	m := newTestModel(t, testReader())
	view := m.View()
	for _, want := range []string{"Agenda", "2024-04-01 .. 2024-04-07", "Planning", "09:00-10:30", "Room 4", "Dentist"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Fatalf("expected 30 lines, got %d", len(lines))
	}
}

func TestLoadTabShowsSummary(t *testing.T) {
	m := newTestModel(t, testReader())
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	for _, want := range []string{"Busy hours per day", "2h30m", "Busiest days", "Tue Apr 2 (1h30m)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSourcesTab(t *testing.T) {
	m := newTestModel(t, testReader())
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabSources {
		t.Fatalf("expected tabs to wrap to sources, got %d", m.activeTab)
	}
	if view := m.View(); !strings.Contains(view, "Calendar") || !strings.Contains(view, "home") {
		t.Fatalf("unexpected sources view:\n%s", view)
	}
}

func TestPeriodShift(t *testing.T) {
	r := testReader()
	m := newTestModel(t, r)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	if m.Config().From != calendar.NewDate(2024, time.April, 8) {
		t.Fatalf("unexpected period start %s", m.Config().From)
	}
	if r.lastTo != calendar.NewDate(2024, time.April, 14) {
		t.Fatalf("expected reload through April 14, got %s", r.lastTo)
	}
	if len(m.Report().Occurrences) != 0 {
		t.Fatalf("expected empty next week")
	}
	if view := m.View(); !strings.Contains(view, "No events in this period.") {
		t.Fatalf("expected empty agenda:\n%s", view)
	}
}

func TestFilterForm(t *testing.T) {
	m := newTestModel(t, testReader())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	if m.filterInputs[0].Value() != "2024-04-01" || m.filterInputs[1].Value() != "7" {
		t.Fatalf("expected inputs prefilled from config")
	}

	m.filterInputs[1].SetValue("zero")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected invalid days to keep the form open")
	}

	m.filterInputs[1].SetValue("2")
	m.filterInputs[2].SetValue("home")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to apply")
	}
	cfg := m.Config()
	if cfg.Days != 2 || cfg.Source != "home" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(m.Report().Occurrences) != 0 {
		t.Fatalf("expected no home events on April 1-2, got %+v", m.Report().Occurrences)
	}
}

func TestReaderErrorShown(t *testing.T) {
	r := testReader()
	r.err = fmt.Errorf("db locked")
	m := newTestModel(t, r)
	if view := m.View(); !strings.Contains(view, "db locked") {
		t.Fatalf("expected error in footer:\n%s", view)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(45 * time.Minute); got != "45m" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatDuration(125 * time.Minute); got != "2h05m" {
		t.Fatalf("unexpected %q", got)
	}
}
