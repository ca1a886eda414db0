// Package slots computes bookable start times for a calendar day.
package slots

import (
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
)

// Stride is the fixed candidate grid in minutes. It is independent of
// the service duration: a 60-minute service still only starts on the
// half-hour grid.
const Stride = 30

// Compute returns the chronological list of "HH:mm" start times at
// which a service of durationMinutes can begin. bookings and blockouts
// must already be filtered to the same calendar day as hours. A
// booking whose ID equals excludeID is ignored, so a rescheduled
// booking is never in conflict with itself.
//
// An empty result means fully booked or closed; it is never an error.
func Compute(hours *models.WorkingHours, durationMinutes int, bookings []models.Booking, blockouts []models.Blockout, excludeID string) []string {
	if hours == nil || hours.IsClosed || durationMinutes <= 0 {
		return nil
	}

	open, err := models.ParseClock(hours.Start)
	if err != nil {
		return nil
	}
	closing, err := models.ParseClock(hours.End)
	if err != nil {
		return nil
	}

	var blocked []window
	for _, b := range blockouts {
		start, err := models.ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		// A blockout covering the whole working window closes the day.
		if start <= open && end >= closing {
			return nil
		}
		blocked = append(blocked, window{start, end})
	}

	var out []string
	for candidate := open; candidate+durationMinutes <= closing; candidate += Stride {
		candidateEnd := candidate + durationMinutes

		if overlapsAny(candidate, candidateEnd, blocked) {
			continue
		}
		if overlapsBooking(candidate, candidateEnd, bookings, excludeID) {
			continue
		}
		out = append(out, models.FormatClock(candidate))
	}
	return out
}

type window struct{ start, end int }

// overlapsAny uses half-open interval semantics: windows that merely
// touch do not overlap.
func overlapsAny(start, end int, windows []window) bool {
	for _, w := range windows {
		if start < w.end && w.start < end {
			return true
		}
	}
	return false
}

func overlapsBooking(start, end int, bookings []models.Booking, excludeID string) bool {
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.OverlapsClock(start, end) {
			return true
		}
	}
	return false
}
