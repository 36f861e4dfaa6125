package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyInto_EmptyRows(t *testing.T) {
	n, err := CopyInto(context.Background(), nil, "mobility", "tile_stats", []string{"tile_id"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyInto_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"mobility", "tile_stats"}, []string{"tile_id", "hour", "mean"}).
		WillReturnResult(2)

	rows := [][]any{
		{"7F44A0", 9, 5.0},
		{"7F44A1", 9, 2.5},
	}
	n, err := CopyInto(context.Background(), mock, "mobility", "tile_stats", []string{"tile_id", "hour", "mean"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInto_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"mobility", "tile_stats"}, []string{"tile_id"}).
		WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyInto(context.Background(), mock, "mobility", "tile_stats", []string{"tile_id"}, [][]any{{"7F44"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
