package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Quaviousthe3rd/waylins-app/internal/export"
	"github.com/Quaviousthe3rd/waylins-app/internal/metrics"
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

// handleAdminLogin verifies the admin passcode. Attempts are rate
// limited per caller address.
// POST /api/admin/login
func (s *HTTPServer) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_login")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var body struct {
		Passcode string `json:"passcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.gate.Check(callerAddr(r), body.Passcode) {
		writeError(w, http.StatusUnauthorized, "wrong passcode")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// BookingPatchRequest is the admin PATCH body. Absent fields stay
// untouched.
type BookingPatchRequest struct {
	Date          *string  `json:"date,omitempty"`
	TimeSlot      *string  `json:"time_slot,omitempty"`
	Status        *string  `json:"status,omitempty"`
	PaymentStatus *string  `json:"payment_status,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	DepositAmount *float64 `json:"deposit_amount,omitempty"`
}

func (r *BookingPatchRequest) toPatch() (store.BookingPatch, error) {
	var patch store.BookingPatch
	if r.Date != nil {
		if _, err := time.Parse(models.DateLayout, *r.Date); err != nil {
			return patch, fmt.Errorf("invalid date; expected YYYY-MM-DD")
		}
		patch.Date = r.Date
	}
	if r.TimeSlot != nil {
		if _, err := models.ParseClock(*r.TimeSlot); err != nil {
			return patch, fmt.Errorf("invalid time_slot; expected HH:mm")
		}
		patch.TimeSlot = r.TimeSlot
	}
	if r.Status != nil {
		status := models.BookingStatus(*r.Status)
		switch status {
		case models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
			patch.Status = &status
		default:
			return patch, fmt.Errorf("invalid status %q", *r.Status)
		}
	}
	if r.PaymentStatus != nil {
		ps := models.PaymentStatus(*r.PaymentStatus)
		switch ps {
		case models.PaymentPaid, models.PaymentPartiallyPaid, models.PaymentNotPaid,
			models.PaymentPending, models.PaymentRefunded:
			patch.PaymentStatus = &ps
		default:
			return patch, fmt.Errorf("invalid payment_status %q", *r.PaymentStatus)
		}
	}
	patch.Amount = r.Amount
	patch.DepositAmount = r.DepositAmount
	return patch, nil
}

func (s *HTTPServer) patchBooking(w http.ResponseWriter, r *http.Request, id string) {
	var req BookingPatchRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.manager.Update(r.Context(), id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) deleteBooking(w http.ResponseWriter, r *http.Request, id string) {
	b, ok := s.findBooking(id)
	if ok && b.Status != models.StatusCancelled {
		writeError(w, http.StatusConflict, "only cancelled bookings can be deleted")
		return
	}

	if err := s.manager.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) completeBooking(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.manager.Complete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) togglePayment(w http.ResponseWriter, r *http.Request, id string) {
	next, err := s.manager.TogglePayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment_status": next})
}

// handleAdminServices adds a menu entry.
// POST /api/admin/services
func (s *HTTPServer) handleAdminServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_services")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var svc models.ServiceItem
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.configs.AddService(r.Context(), svc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

// handleAdminServiceByID updates or removes a menu entry.
// PUT    /api/admin/services/{id}
// DELETE /api/admin/services/{id}
func (s *HTTPServer) handleAdminServiceByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_services")

	id := strings.TrimPrefix(r.URL.Path, "/api/admin/services/")
	if id == "" {
		writeError(w, http.StatusNotFound, "service id required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var svc models.ServiceItem
		if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		svc.ID = id
		if err := s.configs.UpdateService(r.Context(), svc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "service not found")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, svc)

	case http.MethodDelete:
		if err := s.configs.DeleteService(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "service not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use PUT or DELETE")
	}
}

// handleAdminHours replaces one weekday's working hours.
// PUT /api/admin/hours/{weekday}   weekday 0 (Sunday) .. 6 (Saturday)
func (s *HTTPServer) handleAdminHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_hours")

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use PUT")
		return
	}

	weekday, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/admin/hours/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "weekday must be 0-6")
		return
	}

	var hours models.WorkingHours
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.configs.SetWorkingHours(r.Context(), weekday, hours); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAdminBlockouts adds a blockout window.
// POST /api/admin/blockouts
func (s *HTTPServer) handleAdminBlockouts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_blockouts")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var b models.Blockout
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.configs.AddBlockout(r.Context(), b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// handleAdminBlockoutByID removes a blockout window.
// DELETE /api/admin/blockouts/{id}
func (s *HTTPServer) handleAdminBlockoutByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_blockouts")

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use DELETE")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/admin/blockouts/")
	if err := s.configs.RemoveBlockout(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "blockout not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAdminExport streams the booking collection as an Excel
// workbook.
// GET /api/admin/export
func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format(models.DateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := export.Bookings(w, s.hub.Snapshot().Bookings); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}

// handleAdminAudit returns the most recent journal entries.
// GET /api/admin/audit?limit=N
func (s *HTTPServer) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_audit")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}
	if s.journal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.journal.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
