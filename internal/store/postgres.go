package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/db"
	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

const pgSchema = "mobility"

// Postgres backs the store with a PostgreSQL database under the mobility
// schema. Bulk stat loads go through the COPY protocol.
type Postgres struct {
	pool   db.Pool
	logger *zap.Logger
}

// NewPostgres connects a pool with tuned limits and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse postgres dsn")
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool. Tests inject pgxmock here.
func NewPostgresWithPool(pool db.Pool) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: zap.L().With(zap.String("component", "store.postgres")),
	}
}

// Migrate creates the mobility schema and profile tables if missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	schema := []string{
		`CREATE SCHEMA IF NOT EXISTS mobility`,
		`CREATE TABLE IF NOT EXISTS mobility.profiles (
			id         UUID PRIMARY KEY,
			city       TEXT NOT NULL,
			date       DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (city, date)
		)`,
		`CREATE TABLE IF NOT EXISTS mobility.tile_stats (
			profile_id UUID NOT NULL REFERENCES mobility.profiles(id) ON DELETE CASCADE,
			tile_id    TEXT NOT NULL,
			hour       INTEGER NOT NULL,
			feature    TEXT NOT NULL,
			mean       DOUBLE PRECISION NOT NULL,
			samples    BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tile_stats_profile ON mobility.tile_stats (profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tile_stats_tile ON mobility.tile_stats (tile_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "store: migrate postgres schema")
		}
	}
	return nil
}

// SaveProfile replaces the stored profile for (city, date). Stats stream in
// via COPY.
func (s *Postgres) SaveProfile(ctx context.Context, profile mobility.DayProfile) error {
	date := dateOnly(profile.Date)

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM mobility.profiles WHERE city = $1 AND date = $2`,
		profile.City, date); err != nil {
		return eris.Wrap(err, "store: delete existing profile")
	}

	id := uuid.New()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO mobility.profiles (id, city, date) VALUES ($1, $2, $3)`,
		id, profile.City, date); err != nil {
		return eris.Wrap(err, "store: insert profile")
	}

	rows := make([][]any, 0, len(profile.Stats))
	for _, stat := range profile.Stats {
		rows = append(rows, []any{id, stat.TileID, stat.Hour, stat.Feature, stat.Mean, stat.Samples})
	}
	copied, err := db.CopyInto(ctx, s.pool, pgSchema, "tile_stats",
		[]string{"profile_id", "tile_id", "hour", "feature", "mean", "samples"}, rows)
	if err != nil {
		return eris.Wrap(err, "store: copy stats")
	}

	s.logger.Debug("profile saved",
		zap.String("city", profile.City),
		zap.Time("date", date),
		zap.Int64("stats", copied))
	return nil
}

// GetProfile returns the stored profile for a city and date, or nil when none
// exists.
func (s *Postgres) GetProfile(ctx context.Context, city string, date time.Time) (*mobility.DayProfile, error) {
	day := dateOnly(date)

	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM mobility.profiles WHERE city = $1 AND date = $2`,
		city, day).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: query profile")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT tile_id, hour, feature, mean, samples
		 FROM mobility.tile_stats WHERE profile_id = $1
		 ORDER BY tile_id, hour, feature`, id)
	if err != nil {
		return nil, eris.Wrap(err, "store: query stats")
	}
	defer rows.Close()

	profile := &mobility.DayProfile{City: city, Date: day}
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
func (s *Postgres) ListDates(ctx context.Context, city string) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT date FROM mobility.profiles WHERE city = $1 ORDER BY date`, city)
	if err != nil {
		return nil, eris.Wrap(err, "store: query dates")
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, eris.Wrap(err, "store: scan date")
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// TileSeries returns all observations for one tile across stored dates.
func (s *Postgres) TileSeries(ctx context.Context, city, tileID string) ([]mobility.SeriesPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.date, t.hour, t.feature, t.mean, t.samples
		 FROM mobility.tile_stats t JOIN mobility.profiles p ON p.id = t.profile_id
		 WHERE p.city = $1 AND t.tile_id = $2
		 ORDER BY p.date, t.hour, t.feature`, city, tileID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query tile series")
	}
	defer rows.Close()

	var series []mobility.SeriesPoint
	for rows.Next() {
		var point mobility.SeriesPoint
		if err := rows.Scan(&point.Date, &point.Hour, &point.Feature, &point.Mean, &point.Samples); err != nil {
			return nil, eris.Wrap(err, "store: scan series point")
		}
		series = append(series, point)
	}
	return series, rows.Err()
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
