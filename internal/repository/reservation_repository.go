package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/model"
)

// timeLayout is how DATETIME values are rendered when bound as
// strings.  All timestamps are stored in UTC.
const timeLayout = "2006-01-02 15:04:05"

// ReservationRepo provides CRUD operations for table reservations.
// A reservation spans a contiguous block of hourly slots on one
// table.  All timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Interval is a bare [start, end) pair used by the availability
// calculator to test slots against existing bookings.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ListIntervalsForDate returns the booked [start, end) intervals of
// one table on one calendar date.  Read-only; used to mark slots
// occupied on the availability display.
func (r *ReservationRepo) ListIntervalsForDate(ctx context.Context, tableID uint64, date time.Time) ([]Interval, error) {
	const q = `SELECT time_start, time_end FROM reservations
	           WHERE table_id = ? AND DATE(time_start) = ? AND time_end IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, q, tableID, date.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Interval, 0)
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckOverlapTx re-verifies inside the write transaction that no
// existing reservation for the table overlaps [start, end).  Any
// conflicting row is locked so a racing request blocks until this
// transaction finishes.  Returns ErrSlotTaken on overlap.  The
// availability display performs the same half-open interval test at
// read time, but only this check makes the invariant hold under
// concurrent reserve calls.
func (r *ReservationRepo) CheckOverlapTx(ctx context.Context, tx *sql.Tx, tableID uint64, start, end time.Time) error {
	const q = `SELECT id FROM reservations
	           WHERE table_id = ? AND time_start < ? AND time_end > ?
	           LIMIT 1 FOR UPDATE`
	var id uint64
	err := tx.QueryRowContext(ctx, q, tableID,
		end.UTC().Format(timeLayout), start.UTC().Format(timeLayout)).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrSlotTaken
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and returns the generated id.  RemainPlayer starts at
// the table's full capacity; game loans decrement it later.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, tableID uint64, remainPlayer uint32, start, end time.Time) (uint64, error) {
	const q = `INSERT INTO reservations (user_id, table_id, remain_player, time_start, time_end)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, userID, tableID, remainPlayer,
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetForUpdateTx locks the reservation row for the duration of the
// transaction and returns it.  Borrow/return and the expiry sweeper
// all serialize on this lock when touching the same reservation.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	var (
		res model.Reservation
		end sql.NullTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, table_id, remain_player, time_start, time_end
		 FROM reservations WHERE id = ? FOR UPDATE`, id).
		Scan(&res.ID, &res.UserID, &res.TableID, &res.RemainPlayer, &res.TimeStart, &end)
	if err == sql.ErrNoRows {
		return res, ErrReservationNotFound
	}
	if err != nil {
		return res, err
	}
	if end.Valid {
		t := end.Time
		res.TimeEnd = &t
	}
	return res, nil
}

// AdjustRemainPlayerTx adds delta to the reservation's remaining
// player capacity within the transaction.  Callers must have
// verified capacity under the row lock first.
func (r *ReservationRepo) AdjustRemainPlayerTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET remain_player = remain_player + ? WHERE id = ?`, delta, id)
	return err
}

// DeleteTx removes the reservation row within the transaction.  The
// expiry sweeper calls this after all loans have been restored.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// ListExpiredIDs returns the ids of reservations whose end time has
// passed.  The sweeper processes each id in its own transaction so
// one failure does not block the rest of the sweep.
func (r *ReservationRepo) ListExpiredIDs(ctx context.Context, now time.Time) ([]uint64, error) {
	const q = `SELECT id FROM reservations
	           WHERE time_end IS NOT NULL AND time_end <= ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// UserReservationRow is one row of the "my tables" listing: the
// reservation joined with its table so the UI can show capacity and
// hourly cost next to the booked span.
type UserReservationRow struct {
	RentTableID uint64 `json:"rentTableId"`
	TimeStart   string `json:"timeStart"`
	TimeEnd     string `json:"timeEnd"`
	TableID     uint64 `json:"tableId"`
	Player      uint32 `json:"player"`
	Cost        uint32 `json:"cost"`
}

// ListActiveByUser returns the user's reservations that have not yet
// ended, newest first.
func (r *ReservationRepo) ListActiveByUser(ctx context.Context, userID uint64, now time.Time) ([]UserReservationRow, error) {
	const q = `SELECT r.id, r.time_start, r.time_end, t.id, t.player, t.cost
	           FROM reservations r
	           JOIN cafe_tables t ON r.table_id = t.id
	           WHERE r.user_id = ? AND r.time_end > ?
	           ORDER BY r.time_start DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, now.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserReservationRow, 0)
	for rows.Next() {
		var (
			row        UserReservationRow
			start, end time.Time
		)
		if err := rows.Scan(&row.RentTableID, &start, &end, &row.TableID, &row.Player, &row.Cost); err != nil {
			return nil, err
		}
		row.TimeStart = start.UTC().Format(time.RFC3339)
		row.TimeEnd = end.UTC().Format(time.RFC3339)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
