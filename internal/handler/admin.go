// Package handler defines HTTP handlers for the admin console.
// This file implements the inventory CRUD for tables and games plus
// the statistics view. Deletions of rows that are still referenced
// by live reservations or loans are refused with a conflict response
// rather than cascading.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	"github.com/labstack/echo/v4"
)

// AdminHandler bundles repositories for admin inventory management
// and statistics.
type AdminHandler struct {
	TableRepo *repository.TableRepo     // table inventory
	GameRepo  *repository.GameRepo      // game inventory
	StatRepo  *repository.StatisticRepo // hourly revenue/play-count buckets
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil.
func NewAdminHandler(tableRepo *repository.TableRepo, gameRepo *repository.GameRepo, statRepo *repository.StatisticRepo) *AdminHandler {
	if tableRepo == nil || gameRepo == nil || statRepo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{TableRepo: tableRepo, GameRepo: gameRepo, StatRepo: statRepo}
}

type tableReq struct {
	Player uint32 `json:"player"`
	Cost   uint32 `json:"cost"`
}

// ListTables handles GET /admin/tables.
func (h *AdminHandler) ListTables(c echo.Context) error {
	tables, err := h.TableRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tables"})
	}
	out := make([]echo.Map, 0, len(tables))
	for _, t := range tables {
		out = append(out, echo.Map{"id": t.ID, "player": t.Player, "cost": t.Cost})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateTable handles POST /admin/tables.
func (h *AdminHandler) CreateTable(c echo.Context) error {
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Player == 0 || req.Cost == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "player and cost are required"})
	}
	id, err := h.TableRepo.Create(c.Request().Context(), req.Player, req.Cost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create table"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": id, "player": req.Player, "cost": req.Cost, "message": "table created",
	})
}

// UpdateTable handles PUT /admin/tables/:id.
func (h *AdminHandler) UpdateTable(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Player == 0 || req.Cost == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "player and cost are required"})
	}
	if err := h.TableRepo.Update(c.Request().Context(), id, req.Player, req.Cost); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update table"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "table updated"})
}

// DeleteTable handles DELETE /admin/tables/:id.  A table with live
// reservations cannot be removed; the foreign key violation surfaces
// as a 409 Conflict.
func (h *AdminHandler) DeleteTable(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.TableRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is in use"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete table"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "table deleted"})
}

type gameReq struct {
	Name   string  `json:"name"`
	Player uint32  `json:"player"`
	Remain *uint32 `json:"remain"`
	Type   string  `json:"type"`
}

// ListGames handles GET /admin/games.
func (h *AdminHandler) ListGames(c echo.Context) error {
	games, err := h.GameRepo.List(c.Request().Context(), repository.GameFilter{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load games"})
	}
	out := make([]echo.Map, 0, len(games))
	for _, g := range games {
		out = append(out, echo.Map{
			"id": g.ID, "name": g.Name, "player": g.Player, "remain": g.Remain, "type": g.Type,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateGame handles POST /admin/games.  Remain is a pointer so that
// an explicit zero stock is distinguishable from a missing field.
func (h *AdminHandler) CreateGame(c echo.Context) error {
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Player == 0 || req.Remain == nil || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, player, remain and type are required"})
	}
	id, err := h.GameRepo.Create(c.Request().Context(), req.Name, req.Player, *req.Remain, req.Type)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create game"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": id, "name": req.Name, "player": req.Player, "remain": *req.Remain, "type": req.Type,
		"message": "game created",
	})
}

// UpdateGame handles PUT /admin/games/:id.
func (h *AdminHandler) UpdateGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.Player == 0 || req.Remain == nil || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, player, remain and type are required"})
	}
	if err := h.GameRepo.Update(c.Request().Context(), id, req.Name, req.Player, *req.Remain, req.Type); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update game"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "game updated"})
}

// DeleteGame handles DELETE /admin/games/:id.  A game with open
// loans cannot be removed.
func (h *AdminHandler) DeleteGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.GameRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrGameNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "game is currently borrowed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete game"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "game deleted"})
}

// GetStatistics handles GET /admin/statistics?startDate=&endDate=.
// Both bounds are optional calendar dates; endDate is inclusive, so
// buckets up to 23:00 of that day are returned.
func (h *AdminHandler) GetStatistics(c echo.Context) error {
	var from, to *time.Time
	if s := c.QueryParam("startDate"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid startDate"})
		}
		from = &t
	}
	if s := c.QueryParam("endDate"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid endDate"})
		}
		end := t.Add(23 * time.Hour)
		to = &end
	}
	rows, err := h.StatRepo.ListRange(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load statistics"})
	}
	return c.JSON(http.StatusOK, rows)
}
