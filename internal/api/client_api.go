package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Quaviousthe3rd/waylins-app/internal/booking"
	"github.com/Quaviousthe3rd/waylins-app/internal/metrics"
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/phone"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

// handleConfig returns the live store configuration.
// GET /api/config
func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("config")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}
	writeJSON(w, http.StatusOK, s.hub.Snapshot().Config)
}

// handleDays returns the date picker strip: the next N days with their
// closed flags.
// GET /api/days
func (s *HTTPServer) handleDays(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("days")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	n := s.windowDays
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			writeError(w, http.StatusBadRequest, "n must be between 1 and 90")
			return
		}
		n = parsed
	}

	days := s.hub.Snapshot().UpcomingDays(time.Now(), n)
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// handleSlots returns bookable start times for a date and service.
// GET /api/slots?date=YYYY-MM-DD&service_id=...&exclude=bookingID
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	q := r.URL.Query()
	date := q.Get("date")
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	snap := s.hub.Snapshot()
	svc, ok := snap.Config.ServiceByID(q.Get("service_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown service_id")
		return
	}

	slots := snap.AvailableSlots(date, svc.DurationMinutes, q.Get("exclude"))
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}

// CreateBookingRequest is the body for POST /api/bookings.
type CreateBookingRequest struct {
	ClientName   string `json:"client_name"`
	ClientPhone  string `json:"client_phone"`
	Date         string `json:"date"`
	TimeSlot     string `json:"time_slot"`
	ServiceID    string `json:"service_id"`
	RescheduleID string `json:"reschedule_id,omitempty"`
}

func (s *HTTPServer) createRequest(req CreateBookingRequest) (booking.CreateRequest, error) {
	svc, ok := s.hub.Snapshot().Config.ServiceByID(req.ServiceID)
	if !ok {
		return booking.CreateRequest{}, errors.New("unknown service_id")
	}
	return booking.CreateRequest{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Service:     svc,
	}, nil
}

// rescheduleAllowed checks that the caller owns the booking being
// replaced, so a reschedule cannot cancel an arbitrary record. Admins
// skip the check with the passcode header.
func (s *HTTPServer) rescheduleAllowed(r *http.Request, rawPhone, rescheduleID string) bool {
	if rescheduleID == "" {
		return true
	}
	if s.gate.Verify(r.Header.Get(passcodeHeader)) {
		return true
	}
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return false
	}
	b, ok := s.findBooking(rescheduleID)
	return ok && b.ClientPhone == normalized
}

// handleBookings lists a client's bookings or creates a pay-at-shop
// booking.
// GET  /api/bookings?phone=...
// POST /api/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")

	switch r.Method {
	case http.MethodGet:
		normalized, err := phone.Normalize(r.URL.Query().Get("phone"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bookings := s.hub.Snapshot().ClientBookings(normalized)
		if bookings == nil {
			bookings = []models.Booking{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})

	case http.MethodPost:
		var req CreateBookingRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		createReq, err := s.createRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !s.rescheduleAllowed(r, req.ClientPhone, req.RescheduleID) {
			writeError(w, http.StatusNotFound, "reschedule booking not found")
			return
		}

		b, err := s.manager.Create(r.Context(), createReq, req.RescheduleID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, b)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET or POST")
	}
}

// ConfirmPaymentRequest is the body for POST /api/payments/confirm:
// the booking details plus what the payment collaborator reported.
type ConfirmPaymentRequest struct {
	CreateBookingRequest
	Payment struct {
		Reference     string `json:"reference"`
		TransactionID string `json:"transaction_id"`
		DepositOnly   bool   `json:"deposit_only"`
	} `json:"payment"`
}

// handleConfirmPayment records a booking after a successful online
// payment. A store failure returns 502 with the payment reference so
// the client-facing message can tell the customer their money was
// taken and the shop will sort it out.
// POST /api/payments/confirm
func (s *HTTPServer) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("payments_confirm")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConfirmPaymentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Payment.Reference == "" {
		writeError(w, http.StatusBadRequest, "payment.reference is required")
		return
	}

	createReq, err := s.createRequest(req.CreateBookingRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.rescheduleAllowed(r, req.ClientPhone, req.RescheduleID) {
		writeError(w, http.StatusNotFound, "reschedule booking not found")
		return
	}

	payment := booking.PaymentResult{
		Reference:     req.Payment.Reference,
		TransactionID: req.Payment.TransactionID,
		DepositOnly:   req.Payment.DepositOnly,
	}

	b, err := s.manager.CreateOnline(r.Context(), createReq, payment, req.RescheduleID)
	if err != nil {
		var recorded *booking.PaymentRecordedError
		if errors.As(err, &recorded) {
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error":             "payment received but booking could not be saved; contact the shop",
				"payment_reference": recorded.Reference,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// handleBookingByID routes the per-booking operations.
//
//	POST   /api/bookings/{id}/cancel          client, phone-verified
//	POST   /api/bookings/{id}/complete        admin
//	POST   /api/bookings/{id}/toggle-payment  admin
//	PATCH  /api/bookings/{id}                 admin
//	DELETE /api/bookings/{id}                 admin
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_id")

	rest := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "booking id required")
		return
	}

	switch {
	case r.Method == http.MethodPost && action == "cancel":
		s.cancelOwnBooking(w, r, id)
	case r.Method == http.MethodPost && action == "complete":
		s.adminOnly(w, r, func() { s.completeBooking(w, r, id) })
	case r.Method == http.MethodPost && action == "toggle-payment":
		s.adminOnly(w, r, func() { s.togglePayment(w, r, id) })
	case r.Method == http.MethodPatch && action == "":
		s.adminOnly(w, r, func() { s.patchBooking(w, r, id) })
	case r.Method == http.MethodDelete && action == "":
		s.adminOnly(w, r, func() { s.deleteBooking(w, r, id) })
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported booking operation")
	}
}

func (s *HTTPServer) adminOnly(w http.ResponseWriter, r *http.Request, fn func()) {
	if !s.gate.Verify(r.Header.Get(passcodeHeader)) {
		writeError(w, http.StatusUnauthorized, "admin passcode required")
		return
	}
	fn()
}

// cancelOwnBooking lets a client cancel their booking. The phone in
// the body must match the record; admins skip the check by sending the
// passcode header instead.
func (s *HTTPServer) cancelOwnBooking(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Phone string `json:"phone"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	actor := "client"
	if s.gate.Verify(r.Header.Get(passcodeHeader)) {
		actor = "admin"
	} else {
		normalized, err := phone.Normalize(body.Phone)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		b, ok := s.findBooking(id)
		if !ok || b.ClientPhone != normalized {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
	}

	if err := s.manager.Cancel(r.Context(), id, actor); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) findBooking(id string) (models.Booking, bool) {
	for _, b := range s.hub.Snapshot().Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}
