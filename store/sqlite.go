// Package store persists downloaded candles in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run describes one download.
type Run struct {
	ID        string
	Exchange  string
	Pair      string
	StartDate string
	EndDate   string
	CreatedAt time.Time

	// Intervals lists the downloaded intervals in request order, including
	// those that returned no candles.
	Intervals []string
}

// Row is one stored candle.
type Row struct {
	Interval string
	Date     string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun writes the run and its rows in a single transaction. Rows keep
// their order within each interval.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, rows []Row) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, exchange, pair, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Exchange, run.Pair, run.StartDate, run.EndDate, run.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	// Intervals only seen in rows are appended after the declared ones.
	intervals := append([]string{}, run.Intervals...)
	listed := map[string]bool{}
	for _, iv := range intervals {
		listed[iv] = true
	}
	for _, r := range rows {
		if !listed[r.Interval] {
			listed[r.Interval] = true
			intervals = append(intervals, r.Interval)
		}
	}
	for pos, iv := range intervals {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO run_intervals (run_id, pos, interval) VALUES (?, ?, ?)`,
			run.ID, pos, iv,
		); err != nil {
			return fmt.Errorf("insert interval: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (run_id, interval, seq, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seq := map[string]int{}
	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx,
			run.ID, r.Interval, seq[r.Interval], r.Date, r.Open, r.High, r.Low, r.Close, r.Volume,
		); err != nil {
			return fmt.Errorf("insert candle: %w", err)
		}
		seq[r.Interval]++
	}

	return tx.Commit()
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, exchange, pair, start_date, end_date, created_at
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.ID, &r.Exchange, &r.Pair, &r.StartDate, &r.EndDate, &r.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// Intervals lists the intervals of a run in request order, including empty
// ones.
func (s *SQLiteStore) Intervals(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT interval FROM run_intervals WHERE run_id = ?
		ORDER BY pos`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var iv string
		if err := rows.Scan(&iv); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Candles returns the stored rows of one interval of a run, in order.
func (s *SQLiteStore) Candles(ctx context.Context, runID, interval string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT interval, date, open, high, low, close, volume
		FROM candles WHERE run_id = ? AND interval = ?
		ORDER BY seq`, runID, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Interval, &r.Date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
