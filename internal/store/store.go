// Package store persists aggregated activity profiles. Two backends exist:
// SQLite for single-machine analysis and PostgreSQL for shared deployments,
// selected by the store.driver config key.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

// Store defines persistence for per-day activity profiles.
type Store interface {
	// SaveProfile stores a day profile, replacing any existing profile for
	// the same (city, date).
	SaveProfile(ctx context.Context, profile mobility.DayProfile) error

	// GetProfile retrieves the profile for a city and date, or nil if absent.
	GetProfile(ctx context.Context, city string, date time.Time) (*mobility.DayProfile, error)

	// ListDates returns the dates with stored profiles for a city, ascending.
	ListDates(ctx context.Context, city string) ([]time.Time, error)

	// TileSeries returns every stored observation for one tile across dates,
	// ordered by date, hour, feature.
	TileSeries(ctx context.Context, city, tileID string) ([]mobility.SeriesPoint, error)

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	Close() error
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// dateOnly normalizes a profile date to midnight UTC so both backends key
// days identically.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
