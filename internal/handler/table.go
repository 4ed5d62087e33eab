package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	"github.com/labstack/echo/v4"
)

// TableHandler groups the repositories needed to browse tables,
// compute slot availability and book a table.  The reservation flow
// runs inside a transaction so the overlap re-check, the insert and
// the revenue bucket upserts commit or roll back as one unit.
type TableHandler struct {
	TableRepo       *repository.TableRepo       // access to cafe_tables
	ReservationRepo *repository.ReservationRepo // access to reservations
	StatRepo        *repository.StatisticRepo   // revenue bucket upserts
}

// NewTableHandler constructs a new TableHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewTableHandler(tableRepo *repository.TableRepo, reservationRepo *repository.ReservationRepo, statRepo *repository.StatisticRepo) *TableHandler {
	if tableRepo == nil || reservationRepo == nil || statRepo == nil {
		panic("nil repository passed to NewTableHandler")
	}
	return &TableHandler{
		TableRepo:       tableRepo,
		ReservationRepo: reservationRepo,
		StatRepo:        statRepo,
	}
}

// slotResp is one entry of the availability listing.
type slotResp struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// ListTables handles GET /tables.  It returns every table so the
// booking page can render the floor plan.
func (h *TableHandler) ListTables(c echo.Context) error {
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

// GetAvailableTime handles GET /tables/available?date=YYYY-MM-DD&tableID=.
// It builds the fixed 08:00–20:00 slot grid for the date and marks
// each slot unavailable when an existing reservation for the table
// overlaps it.  Read-only; the authoritative overlap check happens
// again inside ReserveTable's transaction.
func (h *TableHandler) GetAvailableTime(c echo.Context) error {
	dateStr := c.QueryParam("date")
	tableIDStr := c.QueryParam("tableID")
	if dateStr == "" || tableIDStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date and tableID are required"})
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	tableID, err := strconv.ParseUint(tableIDStr, 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	ctx := c.Request().Context()
	if _, err := h.TableRepo.GetByID(ctx, tableID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	booked, err := h.ReservationRepo.ListIntervalsForDate(ctx, tableID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	slots := buildDaySlots(date)
	out := make([]slotResp, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResp{
			Start:     s.Start.Format(slotTimeLayout),
			End:       s.End.Format(slotTimeLayout),
			Label:     s.Label,
			Available: !overlapsAny(s, booked),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// reserveReq is the body of POST /tables/reserve.  Slots arrive from
// the booking page as contiguous hour pairs; contiguity is the
// caller's job, overlap against other reservations is re-verified
// here inside the transaction.
type reserveReq struct {
	UserID  uint64 `json:"userID"`
	TableID uint64 `json:"tableID"`
	Slots   []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"slots"`
}

// ReserveTable handles POST /tables/reserve.  Within one transaction
// it locks out overlapping reservations, inserts the reservation row
// spanning the requested slots with the table's full player capacity,
// and adds the table's hourly cost to the revenue bucket of every
// booked hour.  On success it returns the new reservation id so the
// client can move on to the lending flow.
func (h *TableHandler) ReserveTable(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.TableID == 0 || len(req.Slots) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userID, tableID and slots are required"})
	}
	starts := make([]time.Time, 0, len(req.Slots))
	var spanEnd time.Time
	for i, s := range req.Slots {
		start, err := time.ParseInLocation(slotTimeLayout, s.Start, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot start"})
		}
		end, err := time.ParseInLocation(slotTimeLayout, s.End, time.UTC)
		if err != nil || !end.After(start) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot end"})
		}
		starts = append(starts, start)
		if i == len(req.Slots)-1 {
			spanEnd = end
		}
	}
	spanStart := starts[0]

	ctx := c.Request().Context()
	tx, err := h.TableRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	table, err := h.TableRepo.GetTx(ctx, tx, req.TableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.ReservationRepo.CheckOverlapTx(ctx, tx, req.TableID, spanStart, spanEnd); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrSlotTaken.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	rentTableID, err := h.ReservationRepo.CreateTx(ctx, tx, req.UserID, req.TableID, table.Player, spanStart, spanEnd)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	// one revenue upsert per booked hour
	for _, start := range starts {
		if err := h.StatRepo.AddRevenueTx(ctx, tx, start, table.Cost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record revenue"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "table reserved",
		"rentTableId": rentTableID,
	})
}

// MyReservations handles GET /tables/my/:userID.  It lists the
// user's reservations that have not yet ended, newest first.
func (h *TableHandler) MyReservations(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	rows, err := h.ReservationRepo.ListActiveByUser(c.Request().Context(), userID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, rows)
}
