// Package models defines the domain types shared by the stores, the
// availability engine and the booking lifecycle manager.
package models

import (
	"fmt"
	"time"
)

// PaymentMethod describes how a client pays for a booking.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// PaymentStatus describes how much of the booking amount is settled.
// PaymentPending is part of the taxonomy but is never assigned by any
// current transition; it is kept for forward compatibility.
type PaymentStatus string

const (
	PaymentPaid          PaymentStatus = "paid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentNotPaid       PaymentStatus = "not_paid"
	PaymentPending       PaymentStatus = "pending"
	PaymentRefunded      PaymentStatus = "refunded"
)

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ServiceItem is one entry of the service menu. Its name, duration and
// price are denormalized into a booking at creation time, so later
// edits to the menu never change existing bookings.
type ServiceItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// Validate checks menu invariants.
func (s ServiceItem) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if s.Price < 0 {
		return fmt.Errorf("service price must not be negative")
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("service duration must be positive")
	}
	return nil
}

// WorkingHours are the opening hours for one weekday.
type WorkingHours struct {
	Start    string `json:"start"` // HH:mm
	End      string `json:"end"`   // HH:mm
	IsClosed bool   `json:"isClosed"`
}

// Validate checks that an open day has a well-formed, non-empty window.
func (w WorkingHours) Validate() error {
	if w.IsClosed {
		return nil
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// Blockout closes a sub-interval of a single calendar day, on top of
// the recurring weekly hours.
type Blockout struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
}

// Validate checks the blockout interval.
func (b Blockout) Validate() error {
	if _, err := time.Parse(DateLayout, b.Date); err != nil {
		return fmt.Errorf("blockout date: %w", err)
	}
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return fmt.Errorf("blockout start: %w", err)
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return fmt.Errorf("blockout end: %w", err)
	}
	if start >= end {
		return fmt.Errorf("blockout start %s must be before end %s", b.StartTime, b.EndTime)
	}
	return nil
}

// StoreConfig is the single config document: service menu, weekly
// hours and blockout list.
type StoreConfig struct {
	Services    []ServiceItem        `json:"services"`
	WeeklyHours map[int]WorkingHours `json:"weeklyHours"` // 0=Sunday .. 6=Saturday
	Blockouts   []Blockout           `json:"blockouts"`
}

// ServiceByID looks up a menu entry.
func (c StoreConfig) ServiceByID(id string) (ServiceItem, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceItem{}, false
}

// HoursForDate returns the weekly hours that apply to a calendar day.
func (c StoreConfig) HoursForDate(date string) (WorkingHours, bool) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return WorkingHours{}, false
	}
	hours, ok := c.WeeklyHours[int(d.Weekday())]
	return hours, ok
}

// BlockoutsOnDate filters the blockout list to one calendar day.
func (c StoreConfig) BlockoutsOnDate(date string) []Blockout {
	var out []Blockout
	for _, b := range c.Blockouts {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out
}

// Booking is one appointment record. Service fields are snapshots
// taken at creation time.
type Booking struct {
	ID              string        `json:"id"`
	ClientName      string        `json:"clientName"`
	ClientPhone     string        `json:"clientPhone"`
	Date            string        `json:"date"`     // YYYY-MM-DD
	TimeSlot        string        `json:"timeSlot"` // HH:mm
	ServiceID       string        `json:"serviceId"`
	ServiceName     string        `json:"serviceName"`
	DurationMinutes int           `json:"durationMinutes"`
	Amount          float64       `json:"amount"`
	DepositAmount   float64       `json:"depositAmount"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	PaymentRef      string        `json:"paymentReference,omitempty"`
	TransactionID   string        `json:"transactionId,omitempty"`
}

// Interval returns the booked window as minutes from midnight.
// Unparseable slots yield an empty interval.
func (b Booking) Interval() (start, end int) {
	start, err := ParseClock(b.TimeSlot)
	if err != nil {
		return 0, 0
	}
	dur := b.DurationMinutes
	if dur <= 0 {
		dur = 60
	}
	return start, start + dur
}

// OverlapsClock reports whether the booking overlaps [start, end),
// using half-open semantics: touching endpoints do not overlap.
func (b Booking) OverlapsClock(start, end int) bool {
	bStart, bEnd := b.Interval()
	return bStart < end && start < bEnd
}

// IsActive reports whether the booking still occupies its slot.
func (b Booking) IsActive() bool {
	return b.Status != StatusCancelled
}
