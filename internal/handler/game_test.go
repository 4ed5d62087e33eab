package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
)

func newGameHandler(t *testing.T) (*GameHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGameHandler(
		repository.NewGameRepo(db),
		repository.NewReservationRepo(db),
		repository.NewLoanRepo(db),
		repository.NewStatisticRepo(db),
	), mock
}

func gameRows(remain uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "player", "remain", "type"}).
		AddRow(3, "Catan", 4, remain, "strategy")
}

func reservationRows(remainPlayer uint32, start time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "table_id", "remain_player", "time_start", "time_end"}).
		AddRow(7, 5, 2, remainPlayer, start, start.Add(2*time.Hour))
}

func TestFilterGames(t *testing.T) {
	h, mock := newGameHandler(t)

	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE 1=1 AND player >= \? AND type = \? AND name LIKE \?`).
		WithArgs(uint32(4), "strategy", "%cat%").
		WillReturnRows(gameRows(2))

	c, rec := newTestContext(t, http.MethodGet, "/game/filter?player=4&type=strategy&search=cat", "")
	require.NoError(t, h.FilterGames(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var games []gameResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 1)
	require.Equal(t, "Catan", games[0].Name)
	requireMet(t, mock)
}

func TestBorrowGame(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(2))
	mock.ExpectQuery(`SELECT id, user_id, table_id, remain_player, time_start, time_end`).
		WithArgs(uint64(7)).
		WillReturnRows(reservationRows(6, start))
	mock.ExpectExec(`UPDATE games SET remain = remain \+ \?`).
		WithArgs(-1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET remain_player = remain_player \+ \?`).
		WithArgs(-4, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO loans`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT id FROM statistic_buckets WHERE time_start = \? FOR UPDATE`).
		WithArgs("2025-03-10 09:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectExec(`INSERT INTO statistic_games`).
		WithArgs(uint64(31), "Catan").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPost, "/game/borrow", `{"rentTablesID":7,"gameID":3}`)
	require.NoError(t, h.BorrowGame(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "game borrowed")
	requireMet(t, mock)
}

func TestBorrowGameOutOfStock(t *testing.T) {
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(0))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/game/borrow", `{"rentTablesID":7,"gameID":3}`)
	require.NoError(t, h.BorrowGame(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "out of stock")
	requireMet(t, mock)
}

func TestBorrowGameCapacityExceeded(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(2))
	// only 2 seats of capacity left, the game needs 4 players
	mock.ExpectQuery(`SELECT id, user_id, table_id, remain_player, time_start, time_end`).
		WithArgs(uint64(7)).
		WillReturnRows(reservationRows(2, start))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/game/borrow", `{"rentTablesID":7,"gameID":3}`)
	require.NoError(t, h.BorrowGame(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "capacity")
	requireMet(t, mock)
}

func TestBorrowGameUnknownReservation(t *testing.T) {
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(2))
	mock.ExpectQuery(`SELECT id, user_id, table_id, remain_player, time_start, time_end`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "table_id", "remain_player", "time_start", "time_end"}))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/game/borrow", `{"rentTablesID":99,"gameID":3}`)
	require.NoError(t, h.BorrowGame(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	requireMet(t, mock)
}

func TestReturnGame(t *testing.T) {
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(1))
	mock.ExpectQuery(`SELECT id, reservation_id, game_id FROM loans`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "game_id"}).AddRow(11, 7, 3))
	mock.ExpectExec(`DELETE FROM loans WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE games SET remain = remain \+ \?`).
		WithArgs(1, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET remain_player = remain_player \+ \?`).
		WithArgs(4, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPost, "/game/return", `{"rentTablesID":7,"gameID":3}`)
	require.NoError(t, h.ReturnGame(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "game returned")
	requireMet(t, mock)
}

func TestReturnGameNotBorrowed(t *testing.T) {
	h, mock := newGameHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, player, remain, type FROM games WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(gameRows(1))
	mock.ExpectQuery(`SELECT id, reservation_id, game_id FROM loans`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "game_id"}))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/game/return", `{"rentTablesID":7,"gameID":3}`)
	require.NoError(t, h.ReturnGame(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "not borrowed")
	requireMet(t, mock)
}
