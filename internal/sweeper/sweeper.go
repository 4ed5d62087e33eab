// Package sweeper reclaims reservations whose booked window has
// passed: every game still out at the table goes back on the shelf,
// the loan rows are deleted and the reservation itself is removed.
// Each reservation is unwound in its own transaction under the same
// row locks the borrow/return handlers take, so the sweeper never
// races a late return.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/queue"
	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	queue_publisher "github.com/iliyamo/boardgame-cafe-booking/internal/service"
)

// timeLayout matches the DATETIME rendering used throughout the API.
const timeLayout = "2006-01-02 15:04:05"

// Sweeper periodically releases expired reservations.
type Sweeper struct {
	Reservations *repository.ReservationRepo
	Loans        *repository.LoanRepo
	Games        *repository.GameRepo
	Interval     time.Duration
	// Publish is called after each successful reclaim.  Nil disables
	// event publishing (tests); main wires it to the RabbitMQ publisher.
	Publish func(ctx context.Context, ev queue.ReservationExpiredEvent) error
}

// New constructs a Sweeper with the given repositories and interval.
func New(res *repository.ReservationRepo, loans *repository.LoanRepo, games *repository.GameRepo, interval time.Duration) *Sweeper {
	if res == nil || loans == nil || games == nil {
		panic("nil repository passed to sweeper.New")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		Reservations: res,
		Loans:        loans,
		Games:        games,
		Interval:     interval,
		Publish:      queue_publisher.PublishReservationExpired,
	}
}

// Start runs the sweep loop until ctx is cancelled.  Errors from an
// individual sweep are logged and the loop keeps going.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single sweep: list expired reservations, then
// reclaim each one in its own transaction.  A failure on one
// reservation is logged and does not stop the rest of the sweep.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) error {
	ids, err := s.Reservations.ListExpiredIDs(ctx, now)
	if err != nil {
		return err
	}
	for _, id := range ids {
		ev, err := s.reclaim(ctx, id)
		if err != nil {
			log.Printf("sweeper: reclaim reservation %d failed: %v", id, err)
			continue
		}
		if ev == nil {
			continue // already gone, someone else cleaned up
		}
		ev.ExpiredAt = now.Format(timeLayout)
		if s.Publish != nil {
			// best effort; the reclaim is already committed
			if err := s.Publish(ctx, *ev); err != nil {
				log.Printf("sweeper: publish expiry event for reservation %d failed: %v", id, err)
			}
		}
	}
	return nil
}

// reclaim unwinds one expired reservation inside a transaction:
// restore stock and capacity for every open loan, delete the loans,
// then delete the reservation.  Returns nil, nil when the reservation
// disappeared between listing and locking.
func (s *Sweeper) reclaim(ctx context.Context, id uint64) (*queue.ReservationExpiredEvent, error) {
	tx, err := s.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.Reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return nil, nil
		}
		return nil, err
	}

	loans, err := s.Loans.ListOpenByReservationTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(loans))
	for _, l := range loans {
		if err := s.Games.AdjustRemainTx(ctx, tx, l.GameID, 1); err != nil {
			return nil, err
		}
		if err := s.Reservations.AdjustRemainPlayerTx(ctx, tx, id, int(l.Player)); err != nil {
			return nil, err
		}
		if err := s.Loans.DeleteTx(ctx, tx, l.ID); err != nil {
			return nil, err
		}
		names = append(names, l.GameName)
	}

	if err := s.Reservations.DeleteTx(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	ev := &queue.ReservationExpiredEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		TableID:       res.TableID,
		TimeStart:     res.TimeStart.UTC().Format(timeLayout),
		ReturnedGames: names,
	}
	if res.TimeEnd != nil {
		ev.TimeEnd = res.TimeEnd.UTC().Format(timeLayout)
	}
	return ev, nil
}
