package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	"github.com/labstack/echo/v4"
)

// GameHandler groups the repositories needed to browse the game
// shelf and to borrow and return copies against a reservation.
// Borrow and return each run inside a transaction holding row locks
// on the game and the reservation, so stock and capacity accounting
// stays consistent under concurrent requests.
type GameHandler struct {
	GameRepo        *repository.GameRepo        // access to games
	ReservationRepo *repository.ReservationRepo // access to reservations
	LoanRepo        *repository.LoanRepo        // access to loans
	StatRepo        *repository.StatisticRepo   // play-count bucket upserts
}

// NewGameHandler constructs a new GameHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewGameHandler(gameRepo *repository.GameRepo, reservationRepo *repository.ReservationRepo, loanRepo *repository.LoanRepo, statRepo *repository.StatisticRepo) *GameHandler {
	if gameRepo == nil || reservationRepo == nil || loanRepo == nil || statRepo == nil {
		panic("nil repository passed to NewGameHandler")
	}
	return &GameHandler{
		GameRepo:        gameRepo,
		ReservationRepo: reservationRepo,
		LoanRepo:        loanRepo,
		StatRepo:        statRepo,
	}
}

// gameResp mirrors a games row for the browse and filter endpoints.
type gameResp struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Player uint32 `json:"player"`
	Remain uint32 `json:"remain"`
	Type   string `json:"type"`
}

// ListGames handles GET /game.  It returns every game on the shelf.
func (h *GameHandler) ListGames(c echo.Context) error {
	games, err := h.GameRepo.List(c.Request().Context(), repository.GameFilter{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load games"})
	}
	out := make([]gameResp, 0, len(games))
	for _, g := range games {
		out = append(out, gameResp{ID: g.ID, Name: g.Name, Player: g.Player, Remain: g.Remain, Type: g.Type})
	}
	return c.JSON(http.StatusOK, out)
}

// FilterGames handles GET /game/filter?player=&type=&search=.  All
// parameters are optional; player filters on minimum recommended
// player count, type matches the category exactly and search does a
// substring match on the name.
func (h *GameHandler) FilterGames(c echo.Context) error {
	var f repository.GameFilter
	if p := c.QueryParam("player"); p != "" {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid player"})
		}
		f.Player = uint32(n)
	}
	f.Type = c.QueryParam("type")
	f.Search = c.QueryParam("search")
	games, err := h.GameRepo.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load games"})
	}
	out := make([]gameResp, 0, len(games))
	for _, g := range games {
		out = append(out, gameResp{ID: g.ID, Name: g.Name, Player: g.Player, Remain: g.Remain, Type: g.Type})
	}
	return c.JSON(http.StatusOK, out)
}

// borrowReq is the body of POST /game/borrow and POST /game/return.
type borrowReq struct {
	RentTablesID uint64 `json:"rentTablesID"`
	GameID       uint64 `json:"gameID"`
}

// BorrowGame handles POST /game/borrow.  Within one transaction it
// locks the game and the reservation, verifies stock and remaining
// player capacity, decrements both, inserts the loan row and bumps
// the play count in the statistic bucket covering the reservation's
// start hour.  Any failure rolls everything back.
func (h *GameHandler) BorrowGame(c echo.Context) error {
	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RentTablesID == 0 || req.GameID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rentTablesID and gameID are required"})
	}
	ctx := c.Request().Context()
	tx, err := h.GameRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	game, err := h.GameRepo.GetForUpdateTx(ctx, tx, req.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if game.Remain == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrOutOfStock.Error()})
	}
	res, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, req.RentTablesID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.RemainPlayer < game.Player {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrCapacityExceeded.Error()})
	}
	if err := h.GameRepo.AdjustRemainTx(ctx, tx, game.ID, -1); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update stock"})
	}
	if err := h.ReservationRepo.AdjustRemainPlayerTx(ctx, tx, res.ID, -int(game.Player)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update capacity"})
	}
	if _, err := h.LoanRepo.CreateTx(ctx, tx, res.ID, game.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create loan"})
	}
	// play counts are bucketed on the reservation's start hour
	if err := h.StatRepo.IncrementPlayTx(ctx, tx, res.TimeStart, game.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record statistic"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"message": "game borrowed"})
}

// ReturnGame handles POST /game/return.  Within one transaction it
// locks the game, finds one open loan for the (reservation, game)
// pair, deletes it and restores the game's stock and the
// reservation's player capacity.  The play-count statistic is not
// reversed; lending history is cumulative.
func (h *GameHandler) ReturnGame(c echo.Context) error {
	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RentTablesID == 0 || req.GameID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rentTablesID and gameID are required"})
	}
	ctx := c.Request().Context()
	tx, err := h.GameRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	game, err := h.GameRepo.GetForUpdateTx(ctx, tx, req.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	loan, err := h.LoanRepo.FindOpenTx(ctx, tx, req.RentTablesID, req.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotBorrowed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrNotBorrowed.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.LoanRepo.DeleteTx(ctx, tx, loan.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete loan"})
	}
	if err := h.GameRepo.AdjustRemainTx(ctx, tx, game.ID, 1); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update stock"})
	}
	if err := h.ReservationRepo.AdjustRemainPlayerTx(ctx, tx, req.RentTablesID, int(game.Player)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update capacity"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"message": "game returned"})
}

// BorrowedGames handles GET /game/borrowed/:rentTablesID.  It lists
// the games currently out against the reservation.
func (h *GameHandler) BorrowedGames(c echo.Context) error {
	rentTablesID, err := strconv.ParseUint(c.Param("rentTablesID"), 10, 64)
	if err != nil || rentTablesID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rows, err := h.LoanRepo.ListByReservation(c.Request().Context(), rentTablesID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load borrowed games"})
	}
	return c.JSON(http.StatusOK, rows)
}
