package agenda

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/model"
)

func timed(summary string, start time.Time, d time.Duration) model.Occurrence {
	return model.Occurrence{SourceID: "work", Summary: summary, Start: start, End: start.Add(d)}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.April, day, hour, minute, 0, 0, time.UTC)
}

type fakeReader struct {
	occs    []model.Occurrence
	sources []model.Source
	err     error

	gotFrom, gotTo calendar.Date
	gotSource      string
}

func (f *fakeReader) ListRange(_ context.Context, from, to calendar.Date, sourceID string) ([]model.Occurrence, error) {
	f.gotFrom, f.gotTo, f.gotSource = from, to, sourceID
	return f.occs, f.err
}

func (f *fakeReader) ListSources(context.Context) ([]model.Source, error) {
	return f.sources, nil
}

func TestDailyLoadsMergesOverlaps(t *testing.T) {
	occs := []model.Occurrence{
		timed("a", at(1, 9, 0), time.Hour),
		timed("b", at(1, 9, 30), time.Hour),
		timed("c", at(1, 14, 0), 30*time.Minute),
		timed("overnight", at(2, 23, 0), 2*time.Hour),
		{Summary: "holiday", AllDay: true, Start: at(3, 0, 0), End: at(4, 0, 0)},
	}
	loads := DailyLoads(occs, time.UTC, calendar.NewDate(2024, time.April, 1), calendar.NewDate(2024, time.April, 4))
	if len(loads) != 4 {
		t.Fatalf("expected 4 days, got %d", len(loads))
	}
	want := []struct {
		count int
		busy  time.Duration
	}{
		{3, 2 * time.Hour},
		{1, time.Hour},
		{2, time.Hour},
		{0, 0},
	}
	for i, w := range want {
		if loads[i].Count != w.count || loads[i].Busy != w.busy {
			t.Fatalf("day %s: expected %d/%s, got %d/%s", loads[i].Date, w.count, w.busy, loads[i].Count, loads[i].Busy)
		}
	}
}

func TestDailyLoadsClipsToRange(t *testing.T) {
	occs := []model.Occurrence{{Summary: "trip", AllDay: true, Start: at(1, 0, 0), End: at(10, 0, 0)}}
	loads := DailyLoads(occs, time.UTC, calendar.NewDate(2024, time.April, 5), calendar.NewDate(2024, time.April, 6))
	if len(loads) != 2 || loads[0].Count != 1 || loads[1].Count != 1 {
		t.Fatalf("unexpected loads %+v", loads)
	}
	if DailyLoads(occs, time.UTC, calendar.NewDate(2024, time.April, 6), calendar.NewDate(2024, time.April, 5)) != nil {
		t.Fatalf("expected nil loads for inverted range")
	}
}

func TestTopDaysOrdering(t *testing.T) {
	loads := []DayLoad{
		{Date: calendar.NewDate(2024, time.April, 1), Count: 1, Busy: time.Hour},
		{Date: calendar.NewDate(2024, time.April, 2), Count: 3, Busy: 2 * time.Hour},
		{Date: calendar.NewDate(2024, time.April, 3)},
		{Date: calendar.NewDate(2024, time.April, 4), Count: 2, Busy: time.Hour},
	}
	top := TopDays(loads, 5)
	if len(top) != 3 {
		t.Fatalf("expected empty days to be skipped, got %+v", top)
	}
	if top[0].Date.Day != 2 || top[1].Date.Day != 4 || top[2].Date.Day != 1 {
		t.Fatalf("unexpected order %+v", top)
	}
	if TopDays(loads, 0) != nil {
		t.Fatalf("expected nil for n=0")
	}
}

func TestBuildReport(t *testing.T) {
	r := &fakeReader{
		occs:    []model.Occurrence{timed("a", at(2, 9, 0), 90*time.Minute)},
		sources: []model.Source{{ID: "work", Occurrences: 1}},
	}
	cfg := model.AgendaConfig{From: calendar.NewDate(2024, time.April, 1), Days: 7, Source: "work"}
	report, err := BuildReport(context.Background(), r, cfg, time.UTC)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if r.gotTo != calendar.NewDate(2024, time.April, 7) || r.gotSource != "work" {
		t.Fatalf("unexpected query %s..%s %q", r.gotFrom, r.gotTo, r.gotSource)
	}
	if len(report.Loads) != 7 || report.TotalBusy() != 90*time.Minute {
		t.Fatalf("unexpected report %+v", report)
	}
	busiest, ok := report.Busiest()
	if !ok || busiest.Date.Day != 2 {
		t.Fatalf("unexpected busiest day %+v", busiest)
	}

	if _, err := BuildReport(context.Background(), r, model.AgendaConfig{Days: 0}, time.UTC); err == nil {
		t.Fatalf("expected error for empty agenda")
	}
	r.err = fmt.Errorf("boom")
	if _, err := BuildReport(context.Background(), r, cfg, time.UTC); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	lines := FormatTable([]string{"id", "n", "note"}, [][]string{
		{"work", "12", "x"},
		{"home", "3", "日本"},
	}, map[int]bool{1: true})
	want := []string{
		"id     n  note",
		"work  12  x",
		"home   3  日本",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected table:\n%s", strings.Join(lines, "\n"))
	}
	if FormatTable(nil, nil, nil) != nil {
		t.Fatalf("expected nil for empty table")
	}
}

func TestOccurrenceRow(t *testing.T) {
	row := OccurrenceRow(timed("sync", at(1, 9, 0), 30*time.Minute), time.UTC)
	if row[0] != "09:00-09:30" || row[1] != "sync" || row[3] != "work" {
		t.Fatalf("unexpected row %v", row)
	}
	allDay := OccurrenceRow(model.Occurrence{Summary: "off", AllDay: true}, time.UTC)
	if allDay[0] != "all day" {
		t.Fatalf("unexpected all-day row %v", allDay)
	}
}

func TestRenderLoadBars(t *testing.T) {
	loads := []DayLoad{
		{Date: calendar.NewDate(2024, time.April, 1), Busy: 4 * time.Hour},
		{Date: calendar.NewDate(2024, time.April, 2), Busy: 2 * time.Hour},
		{Date: calendar.NewDate(2024, time.April, 3)},
	}
	lines := RenderLoadBars(loads, 40, 2)
	if len(lines) != 3 {
		t.Fatalf("expected 2 bar rows and a footer, got %d", len(lines))
	}
	if lines[0] != "4h │ █  " || lines[1] != "0h │ ██ " {
		t.Fatalf("unexpected bars %q", lines[:2])
	}
	if !strings.Contains(lines[2], "2024-04-01") {
		t.Fatalf("expected first date in footer, got %q", lines[2])
	}
	if RenderLoadBars(nil, 40, 2) != nil {
		t.Fatalf("expected nil for no loads")
	}
}

func TestResampleAverages(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample %v", got)
	}
}
