package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Quaviousthe3rd/waylins-app/internal/access"
	"github.com/Quaviousthe3rd/waylins-app/internal/booking"
	"github.com/Quaviousthe3rd/waylins-app/internal/cache"
	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

const testPasscode = "4321"

type fakeSource struct {
	config   models.StoreConfig
	bookings []models.Booking
}

func (f *fakeSource) LoadConfig(ctx context.Context) (models.StoreConfig, error) {
	return f.config, nil
}

func (f *fakeSource) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return f.bookings, nil
}

func (f *fakeSource) Watch(ctx context.Context) (<-chan store.Change, error) {
	return nil, errors.New("no stream in tests")
}

type fakeLifecycle struct {
	createErr error
	onlineErr error
	cancelErr error

	lastReschedule string
	cancelled      []string
}

func (f *fakeLifecycle) Create(ctx context.Context, req booking.CreateRequest, rescheduleID string) (models.Booking, error) {
	if f.createErr != nil {
		return models.Booking{}, f.createErr
	}
	f.lastReschedule = rescheduleID
	return models.Booking{
		ID: "new-1", ClientName: req.ClientName, Date: req.Date, TimeSlot: req.TimeSlot,
		PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentNotPaid,
		Status: models.StatusConfirmed,
	}, nil
}

func (f *fakeLifecycle) CreateOnline(ctx context.Context, req booking.CreateRequest, payment booking.PaymentResult, rescheduleID string) (models.Booking, error) {
	if f.onlineErr != nil {
		return models.Booking{}, f.onlineErr
	}
	status := models.PaymentPaid
	if payment.DepositOnly {
		status = models.PaymentPartiallyPaid
	}
	return models.Booking{
		ID: "new-2", PaymentMethod: models.PaymentOnline, PaymentStatus: status,
		PaymentRef: payment.Reference, Status: models.StatusConfirmed,
	}, nil
}

func (f *fakeLifecycle) Cancel(ctx context.Context, id, actor string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeLifecycle) Complete(ctx context.Context, id string) error { return nil }

func (f *fakeLifecycle) Update(ctx context.Context, id string, patch store.BookingPatch) error {
	return nil
}

func (f *fakeLifecycle) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeLifecycle) TogglePayment(ctx context.Context, id string) (models.PaymentStatus, error) {
	return models.PaymentPaid, nil
}

type fakeConfigStore struct {
	updateServiceErr error
}

func (f *fakeConfigStore) AddService(ctx context.Context, svc models.ServiceItem) error { return nil }

func (f *fakeConfigStore) UpdateService(ctx context.Context, svc models.ServiceItem) error {
	return f.updateServiceErr
}

func (f *fakeConfigStore) DeleteService(ctx context.Context, id string) error { return nil }

func (f *fakeConfigStore) SetWorkingHours(ctx context.Context, weekday int, hours models.WorkingHours) error {
	return nil
}

func (f *fakeConfigStore) AddBlockout(ctx context.Context, b models.Blockout) error { return nil }

func (f *fakeConfigStore) RemoveBlockout(ctx context.Context, id string) error { return nil }

func newTestServer(t *testing.T, lifecycle *fakeLifecycle, bookings ...models.Booking) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zerolog.New(io.Discard)
	source := &fakeSource{config: models.DefaultConfig(), bookings: bookings}
	hub := cache.New(ctx, source, &logger)
	hub.Subscribe(func(cache.Snapshot) {})

	gate := access.NewGate(testPasscode, logger)
	server := NewHTTPServer(hub, lifecycle, &fakeConfigStore{}, gate, nil, 14, logger)
	return server.Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewReader([]byte(s))
		} else {
			raw, err := json.Marshal(body)
			if err != nil {
				t.Fatal(err)
			}
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func adminHeaders() map[string]string {
	return map[string]string{passcodeHeader: testPasscode}
}

func TestGetConfig(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{})

	w := doJSON(t, handler, http.MethodGet, "/api/config", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var cfg models.StoreConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Services) == 0 {
		t.Error("expected service menu in config response")
	}
}

func TestGetSlots(t *testing.T) {
	booked := models.Booking{
		ID: "b1", Date: "2026-09-07", TimeSlot: "09:00",
		DurationMinutes: 60, Status: models.StatusConfirmed,
	}
	handler := newTestServer(t, &fakeLifecycle{}, booked)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "ok", query: "date=2026-09-07&service_id=1", wantStatus: http.StatusOK},
		{name: "bad date", query: "date=07-09-2026&service_id=1", wantStatus: http.StatusBadRequest},
		{name: "unknown service", query: "date=2026-09-07&service_id=999", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, handler, http.MethodGet, "/api/slots?"+tt.query, nil, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Slots []string `json:"slots"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			for _, slot := range resp.Slots {
				if slot == "09:00" || slot == "09:30" {
					t.Errorf("slot %s conflicts with existing booking", slot)
				}
			}
		})
	}
}

func TestGetSlotsOnClosedDay(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{})

	// 2026-09-09 is a Wednesday, closed in the default hours.
	w := doJSON(t, handler, http.MethodGet, "/api/slots?date=2026-09-09&service_id=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Slots) != 0 {
		t.Errorf("expected empty slots array on closed day, got %v", resp.Slots)
	}
}

func TestListClientBookings(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{},
		models.Booking{ID: "b1", ClientPhone: "0821234567", Date: "2026-09-07"},
		models.Booking{ID: "b2", ClientPhone: "0837654321", Date: "2026-09-07"},
	)

	// International format must hit the same account.
	w := doJSON(t, handler, http.MethodGet, "/api/bookings?phone=%2B27821234567", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Bookings) != 1 || resp.Bookings[0].ID != "b1" {
		t.Errorf("expected only b1, got %+v", resp.Bookings)
	}

	if w := doJSON(t, handler, http.MethodGet, "/api/bookings?phone=banana", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid phone", w.Code)
	}
}

func TestCreateBooking(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	handler := newTestServer(t, lifecycle,
		models.Booking{ID: "old-1", ClientPhone: "0821234567", Status: models.StatusConfirmed},
	)

	body := CreateBookingRequest{
		ClientName: "Sipho", ClientPhone: "0821234567",
		Date: "2026-09-07", TimeSlot: "10:00", ServiceID: "1",
		RescheduleID: "old-1",
	}
	w := doJSON(t, handler, http.MethodPost, "/api/bookings", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if lifecycle.lastReschedule != "old-1" {
		t.Errorf("reschedule id not forwarded, got %q", lifecycle.lastReschedule)
	}

	body.ServiceID = "999"
	if w := doJSON(t, handler, http.MethodPost, "/api/bookings", body, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown service", w.Code)
	}

	if w := doJSON(t, handler, http.MethodPost, "/api/bookings", "not json", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid JSON", w.Code)
	}
}

func TestRescheduleRequiresOwnership(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	handler := newTestServer(t, lifecycle,
		models.Booking{ID: "old-1", ClientPhone: "0837654321", Status: models.StatusConfirmed},
	)

	body := CreateBookingRequest{
		ClientName: "Sipho", ClientPhone: "0821234567",
		Date: "2026-09-07", TimeSlot: "10:00", ServiceID: "1",
		RescheduleID: "old-1",
	}

	// A caller whose phone does not match the replaced booking cannot
	// use it as a reschedule target.
	w := doJSON(t, handler, http.MethodPost, "/api/bookings", body, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for foreign reschedule target", w.Code)
	}
	if lifecycle.lastReschedule != "" {
		t.Errorf("reschedule id must not be forwarded, got %q", lifecycle.lastReschedule)
	}

	// Unknown target is rejected the same way.
	body.RescheduleID = "missing"
	if w := doJSON(t, handler, http.MethodPost, "/api/bookings", body, nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown reschedule target", w.Code)
	}

	// The admin passcode bypasses the ownership check.
	body.RescheduleID = "old-1"
	if w := doJSON(t, handler, http.MethodPost, "/api/bookings", body, adminHeaders()); w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 with admin passcode: %s", w.Code, w.Body.String())
	}

	// The online path applies the same check.
	var confirm ConfirmPaymentRequest
	confirm.CreateBookingRequest = CreateBookingRequest{
		ClientName: "Sipho", ClientPhone: "0821234567",
		Date: "2026-09-07", TimeSlot: "10:00", ServiceID: "1",
		RescheduleID: "old-1",
	}
	confirm.Payment.Reference = "ref-1"
	if w := doJSON(t, handler, http.MethodPost, "/api/payments/confirm", confirm, nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for foreign reschedule target on payment confirm", w.Code)
	}
}

func TestConfirmPayment(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	handler := newTestServer(t, lifecycle)

	var body ConfirmPaymentRequest
	body.ClientName = "Sipho"
	body.ClientPhone = "0821234567"
	body.Date = "2026-09-07"
	body.TimeSlot = "10:00"
	body.ServiceID = "1"
	body.Payment.Reference = "ref-1"
	body.Payment.DepositOnly = true

	w := doJSON(t, handler, http.MethodPost, "/api/payments/confirm", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var created models.Booking
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.PaymentStatus != models.PaymentPartiallyPaid {
		t.Errorf("expected partially_paid, got %s", created.PaymentStatus)
	}

	body.Payment.Reference = ""
	if w := doJSON(t, handler, http.MethodPost, "/api/payments/confirm", body, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing reference", w.Code)
	}
}

func TestConfirmPaymentStoreFailure(t *testing.T) {
	lifecycle := &fakeLifecycle{
		onlineErr: &booking.PaymentRecordedError{Reference: "ref-9", Err: errors.New("redis down")},
	}
	handler := newTestServer(t, lifecycle)

	var body ConfirmPaymentRequest
	body.ClientName = "Sipho"
	body.ClientPhone = "0821234567"
	body.Date = "2026-09-07"
	body.TimeSlot = "10:00"
	body.ServiceID = "1"
	body.Payment.Reference = "ref-9"

	w := doJSON(t, handler, http.MethodPost, "/api/payments/confirm", body, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["payment_reference"] != "ref-9" {
		t.Errorf("response must carry the payment reference, got %v", resp)
	}
}

func TestCancelOwnBooking(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	handler := newTestServer(t, lifecycle,
		models.Booking{ID: "b1", ClientPhone: "0821234567", Status: models.StatusConfirmed},
	)

	// Wrong phone cannot cancel someone else's booking.
	w := doJSON(t, handler, http.MethodPost, "/api/bookings/b1/cancel",
		map[string]string{"phone": "0837654321"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for phone mismatch", w.Code)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/bookings/b1/cancel",
		map[string]string{"phone": "082 123 4567"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(lifecycle.cancelled) != 1 || lifecycle.cancelled[0] != "b1" {
		t.Errorf("expected b1 cancelled, got %v", lifecycle.cancelled)
	}
}

func TestAdminGuard(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{},
		models.Booking{ID: "b1", Status: models.StatusCancelled},
	)

	paths := []struct {
		method string
		path   string
		body   any
	}{
		{method: http.MethodPatch, path: "/api/bookings/b1", body: map[string]string{}},
		{method: http.MethodDelete, path: "/api/bookings/b1"},
		{method: http.MethodPost, path: "/api/bookings/b1/toggle-payment"},
		{method: http.MethodPost, path: "/api/bookings/b1/complete"},
		{method: http.MethodGet, path: "/api/admin/export"},
		{method: http.MethodPost, path: "/api/admin/services", body: map[string]string{}},
	}

	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if w := doJSON(t, handler, tt.method, tt.path, tt.body, nil); w.Code != http.StatusUnauthorized {
				t.Errorf("status without passcode = %d, want 401", w.Code)
			}
		})
	}

	// With the passcode the same operations go through.
	if w := doJSON(t, handler, http.MethodDelete, "/api/bookings/b1", nil, adminHeaders()); w.Code != http.StatusOK {
		t.Errorf("status with passcode = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestDeleteRequiresCancelledBooking(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{},
		models.Booking{ID: "b1", Status: models.StatusConfirmed},
	)

	w := doJSON(t, handler, http.MethodDelete, "/api/bookings/b1", nil, adminHeaders())
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 for confirmed booking", w.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{})

	w := doJSON(t, handler, http.MethodPost, "/api/admin/login",
		map[string]string{"passcode": testPasscode}, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/admin/login",
		map[string]string{"passcode": "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestPatchBookingValidation(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{})

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "valid", body: map[string]string{"time_slot": "14:00"}, wantStatus: http.StatusOK},
		{name: "bad slot", body: map[string]string{"time_slot": "2pm"}, wantStatus: http.StatusBadRequest},
		{name: "bad status", body: map[string]string{"status": "done"}, wantStatus: http.StatusBadRequest},
		{name: "bad payment status", body: map[string]string{"payment_status": "maybe"}, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: map[string]string{"client_name": "x"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, handler, http.MethodPatch, "/api/bookings/b1", tt.body, adminHeaders())
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAdminExport(t *testing.T) {
	handler := newTestServer(t, &fakeLifecycle{},
		models.Booking{ID: "b1", ClientName: "Sipho", Date: "2026-09-07", TimeSlot: "10:00"},
	)

	w := doJSON(t, handler, http.MethodGet, "/api/admin/export", nil, adminHeaders())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("expected workbook bytes")
	}
}
