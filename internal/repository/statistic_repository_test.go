package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
)

func TestTruncateToHour(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid hour",
			in:   time.Date(2025, 3, 10, 9, 42, 13, 500, time.UTC),
			want: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "already aligned",
			in:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "non-utc input normalized",
			in:   time.Date(2025, 3, 10, 11, 30, 0, 0, time.FixedZone("CET", 3600)),
			want: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.TruncateToHour(tt.in)
			require.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			require.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestAddRevenueTxNewBucket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM statistic_buckets WHERE time_start = \? FOR UPDATE`).
		WithArgs("2025-03-10 09:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO statistic_buckets`).
		WithArgs("2025-03-10 09:00:00").
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec(`UPDATE statistic_buckets SET total = total \+ \?`).
		WithArgs(uint32(150), uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := repository.NewStatisticRepo(db)
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	// minutes and seconds must not leak into the bucket key
	ts := time.Date(2025, 3, 10, 9, 42, 13, 0, time.UTC)
	require.NoError(t, repo.AddRevenueTx(ctx, tx, ts, 150))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRevenueTxExistingBucket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM statistic_buckets WHERE time_start = \? FOR UPDATE`).
		WithArgs("2025-03-10 09:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectExec(`UPDATE statistic_buckets SET total = total \+ \?`).
		WithArgs(uint32(150), uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := repository.NewStatisticRepo(db)
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddRevenueTx(ctx, tx, ts, 150))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM statistic_buckets WHERE time_start = \? FOR UPDATE`).
		WithArgs("2025-03-10 09:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectExec(`INSERT INTO statistic_games`).
		WithArgs(uint64(31), "Catan").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := repository.NewStatisticRepo(db)
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	ts := time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)
	require.NoError(t, repo.IncrementPlayTx(ctx, tx, ts, "Catan"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRangeUnbounded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	h2 := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, time_start, total FROM statistic_buckets ORDER BY time_start ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_start", "total"}).
			AddRow(31, h1, 300).
			AddRow(32, h2, 150))
	mock.ExpectQuery(`SELECT bucket_id, game_name, play_count FROM statistic_games`).
		WithArgs(uint64(31), uint64(32)).
		WillReturnRows(sqlmock.NewRows([]string{"bucket_id", "game_name", "play_count"}).
			AddRow(31, "Catan", 2))

	repo := repository.NewStatisticRepo(db)
	rows, err := repo.ListRange(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, uint32(2), rows[0].Games["Catan"])
	require.Empty(t, rows[1].Games)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRangeEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, time_start, total FROM statistic_buckets WHERE time_start >= \?`).
		WithArgs("2025-03-10 00:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_start", "total"}))

	repo := repository.NewStatisticRepo(db)
	rows, err := repo.ListRange(context.Background(), &from, nil)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
