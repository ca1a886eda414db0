// Package booking orchestrates the booking lifecycle against the
// booking store: creation for both payment flows, status and payment
// transitions, reschedules and permanent deletion.
package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Quaviousthe3rd/waylins-app/internal/metrics"
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/phone"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

// Store is the booking collection the manager mutates.
type Store interface {
	CreateBooking(ctx context.Context, b models.Booking) error
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch store.BookingPatch) error
	DeleteBooking(ctx context.Context, id string) error
}

// Auditor appends mutation records to the local journal.
type Auditor interface {
	Record(ctx context.Context, action, bookingID, actor, details string) error
}

// Manager is the booking lifecycle manager. It does not re-validate
// slot availability: callers are expected to have just derived slots
// from the live cache (the create race is accepted; see the cache hub
// for how the loser finds out).
type Manager struct {
	store Store
	audit Auditor // optional
	log   zerolog.Logger

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

// NewManager creates a lifecycle manager. audit may be nil.
func NewManager(s Store, audit Auditor, logger *zerolog.Logger) *Manager {
	return &Manager{
		store: s,
		audit: audit,
		log:   logger.With().Str("component", "booking").Logger(),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// CreateRequest carries the client's choice. Service is the live menu
// entry; its fields are snapshotted into the booking.
type CreateRequest struct {
	ClientName  string
	ClientPhone string
	Date        string // YYYY-MM-DD
	TimeSlot    string // HH:mm
	Service     models.ServiceItem
}

func (r *CreateRequest) validate() error {
	if r.ClientName == "" {
		return fmt.Errorf("client name is required")
	}
	normalized, err := phone.Normalize(r.ClientPhone)
	if err != nil {
		return err
	}
	r.ClientPhone = normalized
	if _, err := time.Parse(models.DateLayout, r.Date); err != nil {
		return fmt.Errorf("booking date: %w", err)
	}
	if _, err := models.ParseClock(r.TimeSlot); err != nil {
		return fmt.Errorf("booking time: %w", err)
	}
	return r.Service.Validate()
}

func (m *Manager) build(req CreateRequest) models.Booking {
	return models.Booking{
		ID:              m.newID(),
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		Date:            req.Date,
		TimeSlot:        req.TimeSlot,
		ServiceID:       req.Service.ID,
		ServiceName:     req.Service.Name,
		DurationMinutes: req.Service.DurationMinutes,
		Amount:          req.Service.Price,
		Status:          models.StatusConfirmed,
		CreatedAt:       m.now(),
	}
}

// Create records a pay-at-shop booking: confirmed immediately, nothing
// collected, no payment collaborator involved. When rescheduleID is
// set, the replaced booking is cancelled best-effort in the background
// after the new one is persisted.
func (m *Manager) Create(ctx context.Context, req CreateRequest, rescheduleID string) (models.Booking, error) {
	if err := req.validate(); err != nil {
		return models.Booking{}, err
	}

	b := m.build(req)
	b.PaymentMethod = models.PaymentCash
	b.PaymentStatus = models.PaymentNotPaid
	b.DepositAmount = 0

	if err := m.store.CreateBooking(ctx, b); err != nil {
		return models.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	m.recorded(ctx, b, "client")
	if rescheduleID != "" {
		m.cancelReplaced(rescheduleID, b.ID)
	}
	return b, nil
}

// PaymentResult is what the external payment collaborator reports on
// success. DepositOnly marks a half-price deposit payment; the amount
// charged is always the full price or exactly half, never anything
// else.
type PaymentResult struct {
	Reference     string
	TransactionID string
	DepositOnly   bool
}

// CreateOnline records a booking after the payment collaborator has
// already captured money. A store failure here is the critical
// payment-captured-but-booking-missing case: it is surfaced as a
// *PaymentRecordedError carrying the reference and is never retried.
func (m *Manager) CreateOnline(ctx context.Context, req CreateRequest, payment PaymentResult, rescheduleID string) (models.Booking, error) {
	if err := req.validate(); err != nil {
		return models.Booking{}, err
	}

	b := m.build(req)
	b.PaymentMethod = models.PaymentOnline
	b.PaymentRef = payment.Reference
	b.TransactionID = payment.TransactionID
	if payment.DepositOnly {
		b.DepositAmount = b.Amount / 2
		b.PaymentStatus = models.PaymentPartiallyPaid
	} else {
		b.DepositAmount = b.Amount
		b.PaymentStatus = models.PaymentPaid
	}

	if err := m.store.CreateBooking(ctx, b); err != nil {
		metrics.IncPaymentMismatch()
		m.log.Error().Err(err).
			Str("payment_reference", payment.Reference).
			Str("booking_id", b.ID).
			Msg("payment captured but booking not recorded")
		return models.Booking{}, &PaymentRecordedError{Reference: payment.Reference, Err: err}
	}

	m.recorded(ctx, b, "client")
	if rescheduleID != "" {
		m.cancelReplaced(rescheduleID, b.ID)
	}
	return b, nil
}

func (m *Manager) recorded(ctx context.Context, b models.Booking, actor string) {
	metrics.IncBookingCreated(string(b.PaymentMethod))
	m.journal(ctx, "created", b.ID, actor,
		fmt.Sprintf("%s %s %s (%s)", b.Date, b.TimeSlot, b.ServiceName, b.PaymentStatus))
	m.log.Info().
		Str("booking_id", b.ID).
		Str("date", b.Date).
		Str("slot", b.TimeSlot).
		Str("method", string(b.PaymentMethod)).
		Msg("booking created")
}

// cancelReplaced marks the old booking of a reschedule as cancelled.
// It runs detached from the user-visible success path: failure is
// logged and never propagated or rolled back.
func (m *Manager) cancelReplaced(oldID, newID string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status := models.StatusCancelled
		if err := m.store.UpdateBooking(ctx, oldID, store.BookingPatch{Status: &status}); err != nil {
			m.log.Warn().Err(err).
				Str("old_booking_id", oldID).
				Str("new_booking_id", newID).
				Msg("could not cancel replaced booking")
			return
		}
		m.journal(ctx, "cancelled", oldID, "system", "replaced by "+newID)
	}()
}

// Wait blocks until background cancellations finish. Used on shutdown
// and in tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Cancel moves a confirmed booking to cancelled. Cancelled bookings
// free their slot but keep their record until an admin deletes it.
func (m *Manager) Cancel(ctx context.Context, id, actor string) error {
	status := models.StatusCancelled
	if err := m.store.UpdateBooking(ctx, id, store.BookingPatch{Status: &status}); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	metrics.IncBookingCancelled()
	m.journal(ctx, "cancelled", id, actor, "")
	m.log.Info().Str("booking_id", id).Str("actor", actor).Msg("booking cancelled")
	return nil
}

// Complete marks a booking as completed (admin only).
func (m *Manager) Complete(ctx context.Context, id string) error {
	status := models.StatusCompleted
	if err := m.store.UpdateBooking(ctx, id, store.BookingPatch{Status: &status}); err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}
	m.journal(ctx, "completed", id, "admin", "")
	return nil
}

// Update merges arbitrary fields into the stored record. It fails
// when the record no longer exists.
func (m *Manager) Update(ctx context.Context, id string, patch store.BookingPatch) error {
	if err := m.store.UpdateBooking(ctx, id, patch); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	m.journal(ctx, "updated", id, "admin", "")
	return nil
}

// Delete removes a record permanently. Intended for already-cancelled
// bookings; the restriction is enforced by the admin surface, not
// here.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	metrics.IncBookingDeleted()
	m.journal(ctx, "deleted", id, "admin", "")
	return nil
}

// TogglePayment advances the manual payment cycle:
// PARTIALLY_PAID -> PAID (balance collected), PAID -> NOT_PAID,
// anything else -> PAID. PARTIALLY_PAID is only ever entered at
// creation time and never re-entered here.
func (m *Manager) TogglePayment(ctx context.Context, id string) (models.PaymentStatus, error) {
	b, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return "", err
	}

	var next models.PaymentStatus
	switch b.PaymentStatus {
	case models.PaymentPartiallyPaid:
		next = models.PaymentPaid
	case models.PaymentPaid:
		next = models.PaymentNotPaid
	default:
		next = models.PaymentPaid
	}

	if err := m.store.UpdateBooking(ctx, id, store.BookingPatch{PaymentStatus: &next}); err != nil {
		return "", fmt.Errorf("toggle payment: %w", err)
	}
	metrics.IncPaymentToggled(string(next))
	m.journal(ctx, "payment_toggled", id, "admin", string(b.PaymentStatus)+" -> "+string(next))
	return next, nil
}

func (m *Manager) journal(ctx context.Context, action, bookingID, actor, details string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Record(ctx, action, bookingID, actor, details); err != nil {
		m.log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
