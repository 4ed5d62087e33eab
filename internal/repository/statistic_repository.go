package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/model"
)

// StatisticRepo maintains the hour-aligned revenue and play-count
// aggregates.  Revenue totals live on statistic_buckets; per-game
// play counts live in the statistic_games child table with a unique
// (bucket_id, game_name) constraint, so increments are atomic
// instead of rewriting a JSON blob.  Every write happens inside the
// caller's transaction and locks the bucket row first, which keeps
// concurrent upserts to the same hour from losing updates.
type StatisticRepo struct {
	db *sql.DB
}

// NewStatisticRepo returns a new StatisticRepo bound to the given database.
func NewStatisticRepo(db *sql.DB) *StatisticRepo { return &StatisticRepo{db: db} }

// TruncateToHour aligns a timestamp to the start of its hour in UTC.
// Bucket rows are keyed on this value.
func TruncateToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// ensureBucketTx locks the bucket for the given hour, creating it
// with a zero total when absent, and returns its id.
func (r *StatisticRepo) ensureBucketTx(ctx context.Context, tx *sql.Tx, hour time.Time) (uint64, error) {
	ts := TruncateToHour(hour).Format(timeLayout)
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM statistic_buckets WHERE time_start = ? FOR UPDATE`, ts).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO statistic_buckets (time_start, total) VALUES (?, 0)`, ts)
	if err != nil {
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

// AddRevenueTx adds amount to the bucket covering the hour of ts,
// creating the bucket when absent.  Called once per booked slot by
// the reservation flow, inside its transaction.
func (r *StatisticRepo) AddRevenueTx(ctx context.Context, tx *sql.Tx, ts time.Time, amount uint32) error {
	id, err := r.ensureBucketTx(ctx, tx, ts)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE statistic_buckets SET total = total + ? WHERE id = ?`, amount, id)
	return err
}

// IncrementPlayTx bumps the play count of gameName in the bucket
// covering the hour of ts, creating bucket and counter rows as
// needed.  Called by the borrow flow; returns are not netted, so
// the counter is cumulative lending history.
func (r *StatisticRepo) IncrementPlayTx(ctx context.Context, tx *sql.Tx, ts time.Time, gameName string) error {
	id, err := r.ensureBucketTx(ctx, tx, ts)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO statistic_games (bucket_id, game_name, play_count) VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE play_count = play_count + 1`, id, gameName)
	return err
}

// BucketRow is one statistics row returned to the admin console:
// the hour, its revenue total, and the play counts accumulated
// during that hour keyed by game name.
type BucketRow struct {
	ID        uint64            `json:"id"`
	TimeStart string            `json:"timeStart"`
	Total     uint64            `json:"total"`
	Games     map[string]uint32 `json:"game"`
}

// ListRange returns buckets ordered by hour, optionally bounded by
// [from, to] (nil means unbounded on that side).  Play counts for
// all returned buckets are fetched in a single query.
func (r *StatisticRepo) ListRange(ctx context.Context, from, to *time.Time) ([]BucketRow, error) {
	query := `SELECT id, time_start, total FROM statistic_buckets`
	where := []string{}
	args := []any{}
	if from != nil {
		where = append(where, "time_start >= ?")
		args = append(args, from.UTC().Format(timeLayout))
	}
	if to != nil {
		where = append(where, "time_start <= ?")
		args = append(args, to.UTC().Format(timeLayout))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY time_start ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BucketRow, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var b model.StatisticBucket
		if err := rows.Scan(&b.ID, &b.TimeStart, &b.Total); err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, BucketRow{
			ID:        b.ID,
			TimeStart: b.TimeStart.UTC().Format(time.RFC3339),
			Total:     b.Total,
			Games:     map[string]uint32{},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(out))
	placeholders := make([]string, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
		placeholders = append(placeholders, "?")
	}
	gameQuery := `SELECT bucket_id, game_name, play_count FROM statistic_games
	              WHERE bucket_id IN (` + strings.Join(placeholders, ",") + `)`
	grows, err := r.db.QueryContext(ctx, gameQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer grows.Close()
	for grows.Next() {
		var g model.GamePlayCount
		if err := grows.Scan(&g.BucketID, &g.GameName, &g.PlayCount); err != nil {
			return nil, err
		}
		if idx, ok := index[g.BucketID]; ok {
			out[idx].Games[g.GameName] = g.PlayCount
		}
	}
	if err := grows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
