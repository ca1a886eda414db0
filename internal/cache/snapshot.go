package cache

import (
	"sort"
	"time"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/slots"
)

// Snapshot is the cached state: the config document and the booking
// collection sorted by creation time, newest first.
type Snapshot struct {
	Config   models.StoreConfig
	Bookings []models.Booking
}

// BookingsOnDate returns the bookings for one calendar day.
func (s Snapshot) BookingsOnDate(date string) []models.Booking {
	var out []models.Booking
	for _, b := range s.Bookings {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out
}

// ClientBookings returns a client's bookings keyed by normalized
// phone, most recent appointment date first.
func (s Snapshot) ClientBookings(phone string) []models.Booking {
	var out []models.Booking
	for _, b := range s.Bookings {
		if b.ClientPhone == phone {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].TimeSlot > out[j].TimeSlot
	})
	return out
}

// AvailableSlots derives the bookable start times for a date from the
// current snapshot. Callers re-derive on every change notification
// instead of patching a previous result.
func (s Snapshot) AvailableSlots(date string, durationMinutes int, excludeID string) []string {
	hours, ok := s.Config.HoursForDate(date)
	if !ok {
		return nil
	}
	return slots.Compute(&hours, durationMinutes, s.BookingsOnDate(date), s.Config.BlockoutsOnDate(date), excludeID)
}

// Day is one entry of the date picker strip.
type Day struct {
	Date     string `json:"date"`
	Weekday  string `json:"weekday"`
	IsClosed bool   `json:"isClosed"`
}

// UpcomingDays lists the next n calendar days starting at from. A day
// is closed when its weekday is closed or a blockout covers the whole
// working window.
func (s Snapshot) UpcomingDays(from time.Time, n int) []Day {
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		d := from.AddDate(0, 0, i)
		date := d.Format(models.DateLayout)

		hours, ok := s.Config.WeeklyHours[int(d.Weekday())]
		closed := !ok || hours.IsClosed
		if !closed {
			closed = s.hasFullDayBlockout(date, hours)
		}

		days = append(days, Day{
			Date:     date,
			Weekday:  d.Weekday().String()[:3],
			IsClosed: closed,
		})
	}
	return days
}

func (s Snapshot) hasFullDayBlockout(date string, hours models.WorkingHours) bool {
	open, err := models.ParseClock(hours.Start)
	if err != nil {
		return false
	}
	closing, err := models.ParseClock(hours.End)
	if err != nil {
		return false
	}
	for _, b := range s.Config.BlockoutsOnDate(date) {
		start, err := models.ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		if start <= open && end >= closing {
			return true
		}
	}
	return false
}
