package model

import "time"

// Reservation records a user's booking of one table for a
// contiguous span of hourly slots, stored in the `reservations`
// table.  RemainPlayer starts at the table's capacity and is
// decremented by every borrowed game's player requirement; it may
// never go negative.  The row is deleted by the expiry sweeper
// once TimeEnd has passed.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who booked the table.
//  TableID      – table being reserved.
//  RemainPlayer – unused seating capacity left for game loans.
//  TimeStart    – start of the booked span (UTC).
//  TimeEnd      – end of the booked span (UTC, nullable only transiently).
type Reservation struct {
	ID           uint64     // reservations.id
	UserID       uint64     // reservations.user_id
	TableID      uint64     // reservations.table_id
	RemainPlayer uint32     // reservations.remain_player
	TimeStart    time.Time  // reservations.time_start
	TimeEnd      *time.Time // reservations.time_end (nullable)
}

// Loan links a reservation to a borrowed game copy, stored in the
// `loans` table.  The existence of a row is the sole marker that a
// copy is out; there is no separate status flag.  Rows are created
// on borrow and deleted on return or expiry sweep.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation the copy was borrowed against.
//  GameID        – game that was borrowed.
type Loan struct {
	ID            uint64 // loans.id
	ReservationID uint64 // loans.reservation_id
	GameID        uint64 // loans.game_id
}
