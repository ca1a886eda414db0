// Package export renders the booking collection as an Excel workbook
// for the admin download.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
)

var headers = []string{
	"Date", "Time", "Client", "Phone", "Service",
	"Duration (min)", "Amount (R)", "Deposit (R)",
	"Payment method", "Payment status", "Status", "Created",
}

// Bookings writes one sheet per export with the bookings in the given
// order.
func Bookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for row, b := range bookings {
		values := []interface{}{
			b.Date, b.TimeSlot, b.ClientName, b.ClientPhone, b.ServiceName,
			b.DurationMinutes, b.Amount, b.DepositAmount,
			string(b.PaymentMethod), string(b.PaymentStatus), string(b.Status),
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	return f.Write(w)
}
