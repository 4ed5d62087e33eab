package model

import "time"

// StatisticBucket aggregates revenue for a single hour of café
// operation, stored in the `statistic_buckets` table.  TimeStart is
// always hour-aligned (minutes and seconds zeroed) and unique, so
// at most one bucket exists per hour across the system's lifetime.
// Per-game play counts live in the normalized `statistic_games`
// child table rather than a JSON column, allowing atomic
// increments.
//
// Fields:
//  ID        – primary key identifier.
//  TimeStart – hour-aligned bucket timestamp (UTC).
//  Total     – cumulative revenue recorded for this hour.
type StatisticBucket struct {
	ID        uint64    // statistic_buckets.id
	TimeStart time.Time // statistic_buckets.time_start
	Total     uint64    // statistic_buckets.total
}

// GamePlayCount is one row of the `statistic_games` child table:
// how many times a game was taken to a table during the bucket's
// hour.  (bucket_id, game_name) carries a unique constraint.
//
// Fields:
//  BucketID  – owning statistic bucket.
//  GameName  – name of the game at the time of borrowing.
//  PlayCount – cumulative borrow count within the hour.
type GamePlayCount struct {
	BucketID  uint64 // statistic_games.bucket_id
	GameName  string // statistic_games.game_name
	PlayCount uint32 // statistic_games.play_count
}
