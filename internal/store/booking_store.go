package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
)

// BookingPatch is a partial update. Only non-nil fields are merged
// into the stored record.
type BookingPatch struct {
	Date          *string
	TimeSlot      *string
	Status        *models.BookingStatus
	PaymentStatus *models.PaymentStatus
	Amount        *float64
	DepositAmount *float64
	PaymentRef    *string
	TransactionID *string
}

func (p BookingPatch) apply(b *models.Booking) {
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.TimeSlot != nil {
		b.TimeSlot = *p.TimeSlot
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.DepositAmount != nil {
		b.DepositAmount = *p.DepositAmount
	}
	if p.PaymentRef != nil {
		b.PaymentRef = *p.PaymentRef
	}
	if p.TransactionID != nil {
		b.TransactionID = *p.TransactionID
	}
}

// CreateBooking persists a new record under its pre-assigned id as a
// single atomic write and notifies subscribers.
func (s *Store) CreateBooking(ctx context.Context, b models.Booking) error {
	if s.rdb == nil {
		return ErrNotConnected
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}

	created, err := s.rdb.HSetNX(ctx, bookingsKey, b.ID, raw).Result()
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if !created {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	s.notify(ctx, ScopeBookings)
	return nil
}

// GetBooking fetches one record.
func (s *Store) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	if s.rdb == nil {
		return models.Booking{}, ErrNotConnected
	}

	raw, err := s.rdb.HGet(ctx, bookingsKey, id).Bytes()
	if err == redis.Nil {
		return models.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}

	var b models.Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		return models.Booking{}, fmt.Errorf("decode booking %s: %w", id, err)
	}
	return b, nil
}

// UpdateBooking merges the patch into the stored record. It fails
// with ErrNotFound when the record no longer exists upstream.
func (s *Store) UpdateBooking(ctx context.Context, id string, patch BookingPatch) error {
	if s.rdb == nil {
		return ErrNotConnected
	}

	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	patch.apply(&b)

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	if err := s.rdb.HSet(ctx, bookingsKey, id, raw).Err(); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	s.notify(ctx, ScopeBookings)
	return nil
}

// DeleteBooking removes a record permanently.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	if s.rdb == nil {
		return ErrNotConnected
	}

	removed, err := s.rdb.HDel(ctx, bookingsKey, id).Result()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	s.notify(ctx, ScopeBookings)
	return nil
}

// ListBookings returns the full collection sorted by creation time,
// newest first.
func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	if s.rdb == nil {
		return nil, ErrNotConnected
	}

	raw, err := s.rdb.HGetAll(ctx, bookingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	bookings := make([]models.Booking, 0, len(raw))
	for id, doc := range raw {
		var b models.Booking
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			s.log.Warn().Err(err).Str("booking_id", id).Msg("skipping undecodable booking record")
			continue
		}
		bookings = append(bookings, b)
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}
