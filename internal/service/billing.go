package service

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/studentsadda/studentsadda/internal/repository"
)

// RenderBill writes a PDF receipt for a booking to w.  The layout is a
// single A4 page: a header, the booking reference, and a two-column table
// of booking facts followed by the total.
func RenderBill(d *repository.BookingDetail, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt "+d.BookingRef, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(41, 37, 96)
	pdf.CellFormat(0, 12, "StudentsAdda", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "Seat Booking Receipt", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(6)

	pdf.SetTextColor(0, 0, 0)
	billRow(pdf, "Reference", d.BookingRef)
	billRow(pdf, "Status", d.Status)
	billRow(pdf, "Library", fmt.Sprintf("%s, %s", d.LibraryName, d.LibraryCity))
	billRow(pdf, "Seat", fmt.Sprintf("%s (%s)", d.SeatLabel, d.SeatTypeName))
	billRow(pdf, "Date", d.BookingDate)
	billRow(pdf, "Time", fmt.Sprintf("%s - %s (%.1f h)", d.StartTime, d.EndTime, d.DurationHours))
	if d.IsGuest() {
		name := ""
		if d.GuestName != nil {
			name = *d.GuestName
		}
		billRow(pdf, "Guest", name)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(40, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("%.2f %s", d.BookingPrice, d.Currency), "T", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(0, 5, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func billRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
}
