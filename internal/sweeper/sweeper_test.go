package sweeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardgame-cafe-booking/internal/queue"
	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	"github.com/iliyamo/boardgame-cafe-booking/internal/sweeper"
)

func newSweeper(t *testing.T) (*sweeper.Sweeper, sqlmock.Sqlmock, *[]queue.ReservationExpiredEvent) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sw := sweeper.New(
		repository.NewReservationRepo(db),
		repository.NewLoanRepo(db),
		repository.NewGameRepo(db),
		time.Minute,
	)
	var published []queue.ReservationExpiredEvent
	sw.Publish = func(ctx context.Context, ev queue.ReservationExpiredEvent) error {
		published = append(published, ev)
		return nil
	}
	return sw, mock, &published
}

func TestRunOnceReclaimsExpiredReservation(t *testing.T) {
	sw, mock, published := newSweeper(t)

	now := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id FROM reservations`).
		WithArgs("2025-03-10 13:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, user_id, table_id, remain_player, time_start, time_end`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "remain_player", "time_start", "time_end"}).
			AddRow(7, 5, 2, 0, start, end))
	// two copies are still out at the table
	mock.ExpectQuery(`SELECT l\.id, l\.game_id, g\.name, g\.player`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "game_id", "name", "player"}).
			AddRow(11, 3, "Catan", 4).
			AddRow(12, 8, "Azul", 2))
	mock.ExpectExec(`UPDATE games SET remain = remain \+ \?`).
		WithArgs(1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET remain_player = remain_player \+ \?`).
		WithArgs(4, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM loans WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE games SET remain = remain \+ \?`).
		WithArgs(1, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET remain_player = remain_player \+ \?`).
		WithArgs(2, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM loans WHERE id = \?`).
		WithArgs(uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, sw.RunOnce(context.Background(), now))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, *published, 1)
	ev := (*published)[0]
	require.Equal(t, uint64(7), ev.ReservationID)
	require.Equal(t, uint64(5), ev.UserID)
	require.Equal(t, uint64(2), ev.TableID)
	require.Equal(t, "2025-03-10 09:00:00", ev.TimeStart)
	require.Equal(t, "2025-03-10 11:00:00", ev.TimeEnd)
	require.Equal(t, []string{"Catan", "Azul"}, ev.ReturnedGames)
	require.Equal(t, "2025-03-10 13:00:00", ev.ExpiredAt)
}

func TestRunOnceNothingExpired(t *testing.T) {
	sw, mock, published := newSweeper(t)

	mock.ExpectQuery(`SELECT id FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, sw.RunOnce(context.Background(), time.Now().UTC()))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, *published)
}

func TestRunOnceSkipsVanishedReservation(t *testing.T) {
	sw, mock, published := newSweeper(t)

	mock.ExpectQuery(`SELECT id FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectBegin()
	// reclaimed by a racing return or restart between list and lock
	mock.ExpectQuery(`SELECT id, user_id, table_id, remain_player, time_start, time_end`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "remain_player", "time_start", "time_end"}))
	mock.ExpectRollback()

	require.NoError(t, sw.RunOnce(context.Background(), time.Now().UTC()))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, *published)
}
