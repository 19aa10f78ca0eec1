package services

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/restaurant-booking/models"
)

var sheetColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Time", 18, "C"},
	{"Guest", 50, "L"},
	{"Phone", 30, "L"},
	{"Party", 15, "C"},
	{"Status", 25, "C"},
	{"Note", 42, "L"},
}

// WriteReservationSheet renders the day's reservations as an A4 PDF.
func WriteReservationSheet(w io.Writer, date string, reservations []models.Reservation, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Reservations "+date, true)
	pdf.SetMargins(10, 12, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Reservation sheet "+date, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, "Generated "+generatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range sheetColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	guests := 0
	for i, r := range reservations {
		cells := []string{
			strconv.Itoa(i + 1),
			r.Gio,
			tr(r.TenKhach),
			r.SDT,
			strconv.Itoa(r.SoLuongKhach),
			r.TrangThai,
			tr(truncateRunes(r.GhiChu, 28)),
		}
		for j, col := range sheetColumns {
			pdf.CellFormat(col.width, 7, cells[j], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
		guests += r.SoLuongKhach
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d reservations, %d guests", len(reservations), guests), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
