// Package cache keeps fetched schedules and the boarding log in a local SQLite
// file, with an in-memory LRU in front of schedule reads.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS schedule_cache (
			date TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS boarding_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			acquired_at TEXT NOT NULL,
			route_name TEXT NOT NULL,
			departure_time TEXT NOT NULL,
			past_departure INTEGER NOT NULL,
			code TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_boarding_log_acquired_at ON boarding_log(acquired_at DESC)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
	}
	return nil
}

// PutSchedule replaces the cached schedule for date.
func (s *Store) PutSchedule(ctx context.Context, date string, resources []reservation.Resource) error {
	payload, err := json.Marshal(resources)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedule_cache (date, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET payload=excluded.payload, fetched_at=excluded.fetched_at
	`, date, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSchedule returns internaltypes.ErrNotFound when date was never cached.
func (s *Store) GetSchedule(ctx context.Context, date string) ([]reservation.Resource, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM schedule_cache WHERE date=?`, date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule for %s: %w", date, internaltypes.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var resources []reservation.Resource
	if err := json.Unmarshal([]byte(payload), &resources); err != nil {
		return nil, fmt.Errorf("decode cached schedule: %w", err)
	}
	return resources, nil
}

// PruneSchedules drops cached schedules for dates before date.
func (s *Store) PruneSchedules(ctx context.Context, before string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedule_cache WHERE date < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Record(ctx context.Context, at time.Time, res reservation.BoardingResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boarding_log (acquired_at, route_name, departure_time, past_departure, code)
		VALUES (?, ?, ?, ?, ?)
	`, at.UTC().Format(time.RFC3339Nano), res.RouteName, res.DepartureTime, res.IsPastDeparture, res.Code)
	return err
}

// Recent returns the newest limit boarding log entries.
func (s *Store) Recent(ctx context.Context, limit int) ([]reservation.LoggedBoarding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acquired_at, route_name, departure_time, past_departure, code
		FROM boarding_log ORDER BY acquired_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []reservation.LoggedBoarding
	for rows.Next() {
		var (
			b  reservation.LoggedBoarding
			at string
		)
		if err := rows.Scan(&at, &b.RouteName, &b.DepartureTime, &b.IsPastDeparture, &b.Code); err != nil {
			return nil, err
		}
		if b.AcquiredAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse acquired_at %q: %w", at, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
