package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/boardgame-cafe-booking/internal/model"
)

// GameRepo encapsulates database operations for the games table.
// The remain column is only ever changed through the ...Tx methods
// so that stock accounting stays inside borrow/return/sweep
// transactions.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo constructs a GameRepo given a DB handle.
func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *GameRepo) DB() *sql.DB { return r.db }

// GameFilter holds the optional filters of GET /game/filter.  Zero
// values mean "not filtered".
type GameFilter struct {
	Player uint32 // minimum recommended player count
	Type   string // exact category match
	Search string // substring match on name
}

// List returns games matching the filter, every game when the
// filter is empty.  The WHERE clause is assembled the same way the
// original booking page queries it: each populated field adds one
// condition.
func (r *GameRepo) List(ctx context.Context, f GameFilter) ([]model.Game, error) {
	query := `SELECT id, name, player, remain, type FROM games WHERE 1=1`
	args := []any{}
	if f.Player > 0 {
		query += ` AND player >= ?`
		args = append(args, f.Player)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.Search != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.Search+"%")
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Game, 0)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Player, &g.Remain, &g.Type); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one game or ErrGameNotFound.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (model.Game, error) {
	var g model.Game
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, player, remain, type FROM games WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Player, &g.Remain, &g.Type)
	if err == sql.ErrNoRows {
		return g, ErrGameNotFound
	}
	return g, err
}

// GetForUpdateTx locks the game row for the duration of the
// transaction and returns it.  Borrow/return hold this lock while
// they mutate remain so concurrent mutators serialize on the row.
func (r *GameRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Game, error) {
	var g model.Game
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, player, remain, type FROM games WHERE id = ? FOR UPDATE`, id).
		Scan(&g.ID, &g.Name, &g.Player, &g.Remain, &g.Type)
	if err == sql.ErrNoRows {
		return g, ErrGameNotFound
	}
	return g, err
}

// AdjustRemainTx adds delta to the game's remain count within the
// transaction.  Callers must have verified stock under the row lock
// first; the column is unsigned so a bad decrement would fail.
func (r *GameRepo) AdjustRemainTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE games SET remain = remain + ? WHERE id = ?`, delta, id)
	return err
}

// Create inserts a game and returns its generated id.
func (r *GameRepo) Create(ctx context.Context, name string, player, remain uint32, gameType string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO games (name, player, remain, type) VALUES (?, ?, ?, ?)`,
		name, player, remain, gameType)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update edits a game.  Returns ErrGameNotFound when no row was
// affected.
func (r *GameRepo) Update(ctx context.Context, id uint64, name string, player, remain uint32, gameType string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET name = ?, player = ?, remain = ?, type = ? WHERE id = ?`,
		name, player, remain, gameType, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// Delete removes a game.  A game with open loans is protected by
// the foreign key; MySQL error 1451 is mapped to ErrConflict.
func (r *GameRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
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
		return ErrGameNotFound
	}
	return nil
}
