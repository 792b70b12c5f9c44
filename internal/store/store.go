// Package store handles SQLite persistence of imported event occurrences.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/dozycal/internal/calendar"
	appLog "github.com/verte-zerg/dozycal/internal/log"
	"github.com/verte-zerg/dozycal/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for occurrence data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			imported_at TEXT NOT NULL,
			occurrence_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS occurrences (
			id INTEGER PRIMARY KEY,
			source_id TEXT NOT NULL,
			uid TEXT NOT NULL,
			instance_key TEXT NOT NULL,
			summary TEXT NOT NULL,
			location TEXT NOT NULL,
			all_day INTEGER NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			first_day TEXT NOT NULL,
			last_day TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_occurrences_days ON occurrences(first_day, last_day);`,
		`CREATE INDEX IF NOT EXISTS idx_occurrences_source ON occurrences(source_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceSource deletes every occurrence of sourceID and stores occs in its
// place. Day columns are computed in loc.
func (s *Store) ReplaceSource(ctx context.Context, sourceID string, occs []model.Occurrence, loc *time.Location) (err error) {
	if sourceID == "" {
		return fmt.Errorf("source id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM occurrences WHERE source_id = ?`, sourceID); err != nil {
		return err
	}

	if len(occs) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO occurrences (source_id, uid, instance_key, summary, location, all_day, start_at, end_at, first_day, last_day)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, occ := range occs {
			first, last := occ.Days(loc)
			if _, err = stmt.ExecContext(ctx,
				sourceID,
				occ.UID,
				occ.InstanceKey,
				occ.Summary,
				occ.Location,
				boolToInt(occ.AllDay),
				occ.Start.Format(time.RFC3339Nano),
				occ.End.Format(time.RFC3339Nano),
				first.String(),
				last.String(),
			); err != nil {
				return err
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sources (id, imported_at, occurrence_count) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET imported_at = excluded.imported_at, occurrence_count = excluded.occurrence_count`,
		sourceID, time.Now().UTC().Format(time.RFC3339Nano), len(occs),
	); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	appLog.Info("source replaced", "source", sourceID, "occurrences", len(occs))
	return nil
}

// CountByDay returns the number of occurrences touching each day in
// [from, to]. Days without occurrences are omitted.
func (s *Store) CountByDay(ctx context.Context, from, to calendar.Date) (map[calendar.Date]int, error) {
	counts := map[calendar.Date]int{}
	if to.Before(from) {
		return counts, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT first_day, last_day FROM occurrences WHERE first_day <= ? AND last_day >= ?`,
		to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var firstRaw, lastRaw string
		if err := rows.Scan(&firstRaw, &lastRaw); err != nil {
			return nil, err
		}
		first, err := calendar.ParseDate(firstRaw)
		if err != nil {
			return nil, err
		}
		last, err := calendar.ParseDate(lastRaw)
		if err != nil {
			return nil, err
		}
		if first.Before(from) {
			first = from
		}
		if last.After(to) {
			last = to
		}
		for d := first; !d.After(last); d = d.AddDays(1) {
			counts[d]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ListByDay returns the occurrences touching day ordered by start.
func (s *Store) ListByDay(ctx context.Context, day calendar.Date) ([]model.Occurrence, error) {
	return s.queryOccurrences(ctx,
		`SELECT source_id, uid, instance_key, summary, location, all_day, start_at, end_at
		 FROM occurrences
		 WHERE first_day <= ? AND last_day >= ?
		 ORDER BY all_day DESC, start_at ASC, summary ASC`,
		day.String(), day.String())
}

// ListRange returns the occurrences touching [from, to] ordered by their
// first day. A non-empty sourceID restricts the result to that source.
func (s *Store) ListRange(ctx context.Context, from, to calendar.Date, sourceID string) ([]model.Occurrence, error) {
	if to.Before(from) {
		return nil, nil
	}
	query := `SELECT source_id, uid, instance_key, summary, location, all_day, start_at, end_at
		 FROM occurrences
		 WHERE first_day <= ? AND last_day >= ?`
	args := []any{to.String(), from.String()}
	if sourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, sourceID)
	}
	query += ` ORDER BY first_day ASC, all_day DESC, start_at ASC, summary ASC`
	return s.queryOccurrences(ctx, query, args...)
}

func (s *Store) queryOccurrences(ctx context.Context, query string, args ...any) ([]model.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Occurrence
	for rows.Next() {
		var occ model.Occurrence
		var allDay int
		var startRaw, endRaw string
		if err := rows.Scan(&occ.SourceID, &occ.UID, &occ.InstanceKey, &occ.Summary, &occ.Location, &allDay, &startRaw, &endRaw); err != nil {
			return nil, err
		}
		if occ.Start, err = time.Parse(time.RFC3339Nano, startRaw); err != nil {
			return nil, err
		}
		if occ.End, err = time.Parse(time.RFC3339Nano, endRaw); err != nil {
			return nil, err
		}
		occ.AllDay = allDay != 0
		result = append(result, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSources returns the imported sources ordered by id.
func (s *Store) ListSources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, imported_at, occurrence_count FROM sources ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		var importedAt string
		if err := rows.Scan(&src.ID, &importedAt, &src.Occurrences); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		src.ImportedAt = parsed
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
