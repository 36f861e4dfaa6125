package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgresSaveProfile(t *testing.T) {
	s, mock := newMockPostgres(t)
	date := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)
	profile := sampleProfile("boston", date)

	mock.ExpectExec("DELETE FROM mobility.profiles").
		WithArgs("boston", date).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO mobility.profiles").
		WithArgs(pgxmock.AnyArg(), "boston", date).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"mobility", "tile_stats"},
		[]string{"profile_id", "tile_id", "hour", "feature", "mean", "samples"}).
		WillReturnResult(int64(len(profile.Stats)))

	require.NoError(t, s.SaveProfile(context.Background(), profile))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveProfileDeleteFails(t *testing.T) {
	s, mock := newMockPostgres(t)
	date := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM mobility.profiles").
		WithArgs("boston", date).
		WillReturnError(errors.New("connection reset"))

	err := s.SaveProfile(context.Background(), sampleProfile("boston", date))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete existing profile")
}

func TestPostgresGetProfile(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()
	date := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)
	id := "5c0d8f32-8a45-4a7a-9c2f-62a4a2a0d9f1"

	mock.ExpectQuery("SELECT id FROM mobility.profiles").
		WithArgs("boston", date).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectQuery("SELECT tile_id, hour, feature, mean, samples").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"tile_id", "hour", "feature", "mean", "samples"}).
			AddRow("7F4400", 8, "device_count", 12.5, 4).
			AddRow("BE11A0", 8, "device_count", 3.0, 1))

	got, err := s.GetProfile(ctx, "boston", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Stats, 2)
	assert.Equal(t, "7F4400", got.Stats[0].TileID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetProfileMissing(t *testing.T) {
	s, mock := newMockPostgres(t)
	date := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id FROM mobility.profiles").
		WithArgs("boston", date).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetProfile(context.Background(), "boston", date)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresListDates(t *testing.T) {
	s, mock := newMockPostgres(t)
	may7 := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)
	may9 := time.Date(2020, time.May, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT date FROM mobility.profiles").
		WithArgs("boston").
		WillReturnRows(pgxmock.NewRows([]string{"date"}).AddRow(may7).AddRow(may9))

	dates, err := s.ListDates(context.Background(), "boston")
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(may7))
}

func TestPostgresTileSeries(t *testing.T) {
	s, mock := newMockPostgres(t)
	may7 := time.Date(2020, time.May, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT p.date, t.hour, t.feature, t.mean, t.samples").
		WithArgs("boston", "7F4400").
		WillReturnRows(pgxmock.NewRows([]string{"date", "hour", "feature", "mean", "samples"}).
			AddRow(may7, 8, "device_count", 12.5, 4))

	series, err := s.TileSeries(context.Background(), "boston", "7F4400")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "device_count", series[0].Feature)
	assert.Equal(t, 4, series[0].Samples)
}
