// Package agenda summarizes stored occurrences over a span of days.
package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/model"
)

// Reader loads occurrences and sources. It is satisfied by *store.Store.
type Reader interface {
	ListRange(ctx context.Context, from, to calendar.Date, sourceID string) ([]model.Occurrence, error)
	ListSources(ctx context.Context) ([]model.Source, error)
}

// Report contains precomputed data for agenda rendering.
type Report struct {
	From        calendar.Date
	To          calendar.Date
	Occurrences []model.Occurrence
	Sources     []model.Source
	Loads       []DayLoad
}

// BuildReport loads and prepares data for agenda rendering.
func BuildReport(ctx context.Context, r Reader, cfg model.AgendaConfig, loc *time.Location) (Report, error) {
	if cfg.Days <= 0 {
		return Report{}, fmt.Errorf("agenda must cover at least one day")
	}
	from, to := cfg.From, cfg.To()
	occs, err := r.ListRange(ctx, from, to, cfg.Source)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list occurrences: %w", err)
	}
	sources, err := r.ListSources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sources: %w", err)
	}
	return Report{
		From:        from,
		To:          to,
		Occurrences: occs,
		Sources:     sources,
		Loads:       DailyLoads(occs, loc, from, to),
	}, nil
}

// Busiest returns the day with the most busy time, or false when no day
// has any occurrence.
func (r Report) Busiest() (DayLoad, bool) {
	top := TopDays(r.Loads, 1)
	if len(top) == 0 {
		return DayLoad{}, false
	}
	return top[0], true
}

// TotalBusy sums the busy time of every day.
func (r Report) TotalBusy() time.Duration {
	var total time.Duration
	for _, l := range r.Loads {
		total += l.Busy
	}
	return total
}
