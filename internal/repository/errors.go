// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrOutOfStock indicates that no copy of a game is left on
// the shelf, while ErrConflict signals that an operation cannot
// proceed because of existing dependent records (e.g. deleting a
// table that still has reservations).
package repository

import "errors"

// ErrTableNotFound is returned when no café table exists for the
// requested id. Handlers should translate this into an HTTP 404.
var ErrTableNotFound = errors.New("table not found")

// ErrGameNotFound is returned when no game exists for the requested
// id. Handlers should translate this into an HTTP 404.
var ErrGameNotFound = errors.New("game not found")

// ErrReservationNotFound is returned when a reservation id does not
// resolve to a row, either because it never existed or because the
// expiry sweeper already reclaimed it.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrOutOfStock is returned by the borrow flow when a game's remain
// count is zero. Handlers should translate this into an HTTP 400.
var ErrOutOfStock = errors.New("game out of stock")

// ErrCapacityExceeded is returned when a game's player requirement
// exceeds the reservation's remaining player capacity.
var ErrCapacityExceeded = errors.New("table capacity exceeded")

// ErrNotBorrowed is returned by the return flow when no open loan
// matches the given reservation and game.
var ErrNotBorrowed = errors.New("game not borrowed")

// ErrSlotTaken is returned when a reservation would overlap an
// existing one for the same table. The check runs inside the write
// transaction, so it holds even when two requests race past the
// availability display. Handlers should translate this into 409.
var ErrSlotTaken = errors.New("time slot already taken")

// ErrConflict is returned when a delete cannot be performed because
// of conflicting state, such as removing a table with active
// reservations. Handlers should translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")
