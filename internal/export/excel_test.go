package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
)

func TestBookings(t *testing.T) {
	bookings := []models.Booking{
		{
			ID: "b1", ClientName: "Sipho", ClientPhone: "0821234567",
			Date: "2026-09-07", TimeSlot: "10:00",
			ServiceName: "Regular Cut", DurationMinutes: 60,
			Amount: 200, DepositAmount: 100,
			PaymentMethod: models.PaymentOnline, PaymentStatus: models.PaymentPartiallyPaid,
			Status:    models.StatusConfirmed,
			CreatedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID: "b2", ClientName: "Thabo", ClientPhone: "0837654321",
			Date: "2026-09-08", TimeSlot: "11:00",
			ServiceName: "Cut & Black Dye", DurationMinutes: 60,
			Amount:        300,
			PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentNotPaid,
			Status:    models.StatusConfirmed,
			CreatedAt: time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := Bookings(&buf, bookings); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("workbook unreadable: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][2] != "Sipho" || rows[2][2] != "Thabo" {
		t.Errorf("unexpected client cells: %v / %v", rows[1], rows[2])
	}
}

func TestBookingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Bookings(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected a workbook even with no bookings")
	}
}
