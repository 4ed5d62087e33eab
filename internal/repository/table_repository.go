package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/boardgame-cafe-booking/internal/model"
)

// TableRepo encapsulates database operations for the cafe_tables
// table.  Tables are simple rows (capacity and hourly cost) managed
// through the admin console and referenced by reservations.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo given a DB handle.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TableRepo) DB() *sql.DB { return r.db }

// List returns all tables ordered by id.
func (r *TableRepo) List(ctx context.Context) ([]model.CafeTable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, player, cost FROM cafe_tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CafeTable, 0)
	for rows.Next() {
		var t model.CafeTable
		if err := rows.Scan(&t.ID, &t.Player, &t.Cost); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.CafeTable, error) {
	var t model.CafeTable
	err := r.db.QueryRowContext(ctx,
		`SELECT id, player, cost FROM cafe_tables WHERE id = ?`, id).
		Scan(&t.ID, &t.Player, &t.Cost)
	if err == sql.ErrNoRows {
		return t, ErrTableNotFound
	}
	return t, err
}

// GetTx is GetByID inside an existing transaction.  The reservation
// flow reads the table's capacity and hourly cost through this so
// the values are consistent with the rest of the transaction.
func (r *TableRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.CafeTable, error) {
	var t model.CafeTable
	err := tx.QueryRowContext(ctx,
		`SELECT id, player, cost FROM cafe_tables WHERE id = ?`, id).
		Scan(&t.ID, &t.Player, &t.Cost)
	if err == sql.ErrNoRows {
		return t, ErrTableNotFound
	}
	return t, err
}

// Create inserts a table and returns its generated id.
func (r *TableRepo) Create(ctx context.Context, player, cost uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cafe_tables (player, cost) VALUES (?, ?)`, player, cost)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update edits a table's capacity and cost.  Returns
// ErrTableNotFound when no row was affected.
func (r *TableRepo) Update(ctx context.Context, id uint64, player, cost uint32) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cafe_tables SET player = ?, cost = ? WHERE id = ?`, player, cost, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// Delete removes a table.  When the row is still referenced by a
// reservation the foreign key rejects the delete (MySQL error 1451)
// and ErrConflict is returned so the handler can report it instead
// of a bare 500.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cafe_tables WHERE id = ?`, id)
	if err != nil {
		if strings.Contains(err.Error(), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	return nil
}
