// Package api exposes the booking app over HTTP: a public surface for
// clients and a passcode-gated surface for the admin.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Quaviousthe3rd/waylins-app/internal/audit"
	"github.com/Quaviousthe3rd/waylins-app/internal/booking"
	"github.com/Quaviousthe3rd/waylins-app/internal/cache"
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

// Lifecycle is the booking manager surface the API drives.
type Lifecycle interface {
	Create(ctx context.Context, req booking.CreateRequest, rescheduleID string) (models.Booking, error)
	CreateOnline(ctx context.Context, req booking.CreateRequest, payment booking.PaymentResult, rescheduleID string) (models.Booking, error)
	Cancel(ctx context.Context, id, actor string) error
	Complete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, patch store.BookingPatch) error
	Delete(ctx context.Context, id string) error
	TogglePayment(ctx context.Context, id string) (models.PaymentStatus, error)
}

// ConfigStore is the config document surface the admin handlers
// mutate.
type ConfigStore interface {
	AddService(ctx context.Context, svc models.ServiceItem) error
	UpdateService(ctx context.Context, svc models.ServiceItem) error
	DeleteService(ctx context.Context, id string) error
	SetWorkingHours(ctx context.Context, weekday int, hours models.WorkingHours) error
	AddBlockout(ctx context.Context, b models.Blockout) error
	RemoveBlockout(ctx context.Context, id string) error
}

// Gate authenticates admin requests.
type Gate interface {
	Check(caller, attempt string) bool
	Verify(attempt string) bool
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	hub        *cache.Hub
	manager    Lifecycle
	configs    ConfigStore
	gate       Gate
	journal    *audit.DB // optional
	logger     zerolog.Logger
	windowDays int
}

// NewHTTPServer wires the API. journal may be nil.
func NewHTTPServer(hub *cache.Hub, manager Lifecycle, configs ConfigStore, gate Gate, journal *audit.DB, windowDays int, logger zerolog.Logger) *HTTPServer {
	if windowDays <= 0 {
		windowDays = 14
	}
	return &HTTPServer{
		hub:        hub,
		manager:    manager,
		configs:    configs,
		gate:       gate,
		journal:    journal,
		logger:     logger.With().Str("component", "api").Logger(),
		windowDays: windowDays,
	}
}

// Routes returns the full handler tree.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/days", s.handleDays)
	mux.HandleFunc("/api/slots", s.handleSlots)
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/bookings/", s.handleBookingByID)
	mux.HandleFunc("/api/payments/confirm", s.handleConfirmPayment)

	mux.HandleFunc("/api/admin/login", s.handleAdminLogin)
	mux.HandleFunc("/api/admin/services", s.requireAdmin(s.handleAdminServices))
	mux.HandleFunc("/api/admin/services/", s.requireAdmin(s.handleAdminServiceByID))
	mux.HandleFunc("/api/admin/hours/", s.requireAdmin(s.handleAdminHours))
	mux.HandleFunc("/api/admin/blockouts", s.requireAdmin(s.handleAdminBlockouts))
	mux.HandleFunc("/api/admin/blockouts/", s.requireAdmin(s.handleAdminBlockoutByID))
	mux.HandleFunc("/api/admin/export", s.requireAdmin(s.handleAdminExport))
	mux.HandleFunc("/api/admin/audit", s.requireAdmin(s.handleAdminAudit))

	return mux
}

const passcodeHeader = "X-Admin-Passcode"

func (s *HTTPServer) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Verify(r.Header.Get(passcodeHeader)) {
			writeError(w, http.StatusUnauthorized, "admin passcode required")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func callerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
