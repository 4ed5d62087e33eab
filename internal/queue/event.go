// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationExpiredEvent is published after the sweeper releases an
// expired reservation. It carries enough detail for downstream
// consumers to log or notify without querying the primary database.
type ReservationExpiredEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	TableID       uint64   `json:"table_id"`
	TimeStart     string   `json:"time_start"`
	TimeEnd       string   `json:"time_end"`
	ReturnedGames []string `json:"returned_games"`
	ExpiredAt     string   `json:"expired_at"`
}
