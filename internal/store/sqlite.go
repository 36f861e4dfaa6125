package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

const sqliteDateLayout = "2006-01-02"

// SQLite backs the store with a local database file via modernc.org/sqlite
// (pure Go, no cgo).
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite database")
	}

	// modernc's driver is not safe for concurrent writers on one connection
	// pool without WAL.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: apply %s", pragma)
		}
	}

	return &SQLite{
		db:     db,
		logger: zap.L().With(zap.String("component", "store.sqlite")),
	}, nil
}

// Migrate creates the profile tables and indexes if they do not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			city       TEXT NOT NULL,
			date       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE (city, date)
		)`,
		`CREATE TABLE IF NOT EXISTS tile_stats (
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			tile_id    TEXT NOT NULL,
			hour       INTEGER NOT NULL,
			feature    TEXT NOT NULL,
			mean       REAL NOT NULL,
			samples    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tile_stats_profile ON tile_stats (profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tile_stats_tile ON tile_stats (tile_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "store: migrate sqlite schema")
		}
	}
	return nil
}

// SaveProfile replaces the stored profile for (city, date) in one transaction.
func (s *SQLite) SaveProfile(ctx context.Context, profile mobility.DayProfile) error {
	date := dateOnly(profile.Date).Format(sqliteDateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM profiles WHERE city = ? AND date = ?`, profile.City, date); err != nil {
		return eris.Wrap(err, "store: delete existing profile")
	}

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, city, date) VALUES (?, ?, ?)`,
		id, profile.City, date); err != nil {
		return eris.Wrap(err, "store: insert profile")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tile_stats (profile_id, tile_id, hour, feature, mean, samples)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "store: prepare stat insert")
	}
	defer stmt.Close()

	for _, stat := range profile.Stats {
		if _, err := stmt.ExecContext(ctx,
			id, stat.TileID, stat.Hour, stat.Feature, stat.Mean, stat.Samples); err != nil {
			return eris.Wrapf(err, "store: insert stat for tile %s", stat.TileID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit profile")
	}

	s.logger.Debug("profile saved",
		zap.String("city", profile.City),
		zap.String("date", date),
		zap.Int("stats", len(profile.Stats)))
	return nil
}

// GetProfile returns the stored profile for a city and date, or nil when none
// exists.
func (s *SQLite) GetProfile(ctx context.Context, city string, date time.Time) (*mobility.DayProfile, error) {
	day := dateOnly(date).Format(sqliteDateLayout)

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE city = ? AND date = ?`, city, day).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: query profile")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tile_id, hour, feature, mean, samples
		 FROM tile_stats WHERE profile_id = ?
		 ORDER BY tile_id, hour, feature`, id)
	if err != nil {
		return nil, eris.Wrap(err, "store: query stats")
	}
	defer rows.Close()

	profile := &mobility.DayProfile{City: city, Date: dateOnly(date)}
	for rows.Next() {
		var stat mobility.HourlyStat
		if err := rows.Scan(&stat.TileID, &stat.Hour, &stat.Feature, &stat.Mean, &stat.Samples); err != nil {
			return nil, eris.Wrap(err, "store: scan stat")
		}
		profile.Stats = append(profile.Stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate stats")
	}
	return profile, nil
}

// ListDates returns stored profile dates for a city in ascending order.
func (s *SQLite) ListDates(ctx context.Context, city string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM profiles WHERE city = ? ORDER BY date`, city)
	if err != nil {
		return nil, eris.Wrap(err, "store: query dates")
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "store: scan date")
		}
		date, err := time.Parse(sqliteDateLayout, raw)
		if err != nil {
			return nil, eris.Wrapf(err, "store: parse stored date %q", raw)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// TileSeries returns all observations for one tile across stored dates.
func (s *SQLite) TileSeries(ctx context.Context, city, tileID string) ([]mobility.SeriesPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.date, t.hour, t.feature, t.mean, t.samples
		 FROM tile_stats t JOIN profiles p ON p.id = t.profile_id
		 WHERE p.city = ? AND t.tile_id = ?
		 ORDER BY p.date, t.hour, t.feature`, city, tileID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query tile series")
	}
	defer rows.Close()

	var series []mobility.SeriesPoint
	for rows.Next() {
		var raw string
		var point mobility.SeriesPoint
		if err := rows.Scan(&raw, &point.Hour, &point.Feature, &point.Mean, &point.Samples); err != nil {
			return nil, eris.Wrap(err, "store: scan series point")
		}
		date, err := time.Parse(sqliteDateLayout, raw)
		if err != nil {
			return nil, eris.Wrapf(err, "store: parse stored date %q", raw)
		}
		point.Date = date
		series = append(series, point)
	}
	return series, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
