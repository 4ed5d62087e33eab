package handler

import (
	"fmt"
	"time"

	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
)

// slotTimeLayout is the wire format for slot boundaries, matching the
// DATETIME rendering used throughout the API.
const slotTimeLayout = "2006-01-02 15:04:05"

// openingHour and closingHour bound the café's bookable day; twelve
// one-hour slots run from 08:00 to 20:00.
const (
	openingHour = 8
	closingHour = 20
)

// slot is one bookable hour of a table's day.
type slot struct {
	Start time.Time
	End   time.Time
	Label string
}

// buildDaySlots produces the fixed hourly slot grid for a calendar
// date.  Labels follow the booking page's "8:00 - 9:00" style.
func buildDaySlots(date time.Time) []slot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	slots := make([]slot, 0, closingHour-openingHour)
	for h := openingHour; h < closingHour; h++ {
		slots = append(slots, slot{
			Start: day.Add(time.Duration(h) * time.Hour),
			End:   day.Add(time.Duration(h+1) * time.Hour),
			Label: fmt.Sprintf("%d:00 - %d:00", h, h+1),
		})
	}
	return slots
}

// overlapsAny reports whether the half-open slot interval intersects
// any booked interval: existing.start < slot.end AND existing.end >
// slot.start.  Touching endpoints do not overlap.
func overlapsAny(s slot, booked []repository.Interval) bool {
	for _, iv := range booked {
		if iv.Start.Before(s.End) && iv.End.After(s.Start) {
			return true
		}
	}
	return false
}
