package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/boardgame-cafe-booking/internal/model"
)

// LoanRepo provides data access to the loans table.  A loan row is
// the sole source of truth for "this copy is out at that table";
// rows are created on borrow and deleted again on return or when
// the expiry sweeper reclaims a finished reservation.
type LoanRepo struct {
	db *sql.DB
}

// NewLoanRepo returns a new LoanRepo bound to the provided database.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

// CreateTx inserts a loan within the provided transaction and
// returns its generated id.
func (r *LoanRepo) CreateTx(ctx context.Context, tx *sql.Tx, reservationID, gameID uint64) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO loans (reservation_id, game_id) VALUES (?, ?)`,
		reservationID, gameID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindOpenTx locks and returns one open loan matching the
// reservation and game.  Returns ErrNotBorrowed when no such loan
// exists, which makes a second return of the same game fail cleanly.
func (r *LoanRepo) FindOpenTx(ctx context.Context, tx *sql.Tx, reservationID, gameID uint64) (model.Loan, error) {
	var l model.Loan
	err := tx.QueryRowContext(ctx,
		`SELECT id, reservation_id, game_id FROM loans
		 WHERE reservation_id = ? AND game_id = ? LIMIT 1 FOR UPDATE`,
		reservationID, gameID).Scan(&l.ID, &l.ReservationID, &l.GameID)
	if err == sql.ErrNoRows {
		return l, ErrNotBorrowed
	}
	if err != nil {
		return l, err
	}
	return l, nil
}

// DeleteTx removes one loan row by id within the transaction.
func (r *LoanRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	return err
}

// OpenLoan pairs a loan with the player requirement and name of its
// game so the sweeper can restore the reservation's capacity and
// report what was reclaimed.
type OpenLoan struct {
	ID       uint64
	GameID   uint64
	GameName string
	Player   uint32
}

// ListOpenByReservationTx returns every open loan of a reservation
// together with each game's player requirement.  Runs inside the
// caller's transaction so the rows stay stable while the sweeper
// unwinds them.
func (r *LoanRepo) ListOpenByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]OpenLoan, error) {
	const q = `SELECT l.id, l.game_id, g.name, g.player
	           FROM loans l
	           JOIN games g ON l.game_id = g.id
	           WHERE l.reservation_id = ?`
	rows, err := tx.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var loans []OpenLoan
	for rows.Next() {
		var l OpenLoan
		if err := rows.Scan(&l.ID, &l.GameID, &l.GameName, &l.Player); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loans, nil
}

// BorrowedGameRow is one row of the borrowed-games listing shown at
// the table: the loan id plus the game it refers to.
type BorrowedGameRow struct {
	RentGameID uint64 `json:"rentGameID"`
	GameID     uint64 `json:"gameID"`
	Name       string `json:"name"`
	Player     uint32 `json:"player"`
}

// ListByReservation returns the games currently borrowed against a
// reservation.  Read-only; used by the lending page.
func (r *LoanRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]BorrowedGameRow, error) {
	const q = `SELECT l.id, l.game_id, g.name, g.player
	           FROM loans l
	           JOIN games g ON l.game_id = g.id
	           WHERE l.reservation_id = ?`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BorrowedGameRow, 0)
	for rows.Next() {
		var row BorrowedGameRow
		if err := rows.Scan(&row.RentGameID, &row.GameID, &row.Name, &row.Player); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
