// Package export renders itineraries as printable PDFs and calendar files.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"wayfarer/models"
)

// ItineraryURL is the public link encoded in exports.
func ItineraryURL(publicBaseURL, itineraryID string) string {
	return strings.TrimRight(publicBaseURL, "/") + "/itineraries/" + itineraryID
}

func formatMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func dateLine(in models.ItineraryInput) string {
	switch {
	case in.StartDate != "" && in.EndDate != "":
		return fmt.Sprintf("%s to %s (%d days)", in.StartDate, in.EndDate, in.NumDays)
	case in.StartDate != "":
		return fmt.Sprintf("From %s (%d days)", in.StartDate, in.NumDays)
	default:
		return fmt.Sprintf("%d days", in.NumDays)
	}
}

// PDF renders it with a per-day activity table and a QR code that links
// back to link.
func PDF(it *models.Itinerary, link string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(it.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(140, 8, tr(it.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, tr("Destination: "+it.Input.Destination))
	pdf.Ln(7)
	pdf.Cell(0, 8, "Dates: "+dateLine(it.Input))
	pdf.Ln(7)
	pdf.Cell(0, 8, "Estimated cost: "+formatMoney(it.EstimatedCost))
	pdf.Ln(7)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, link)
	pdf.Ln(6)

	widths := []float64{90, 35, 30, 25}
	headers := []string{"Activity", "Category", "Duration", "Cost"}
	for _, day := range it.Days {
		pdf.SetFont("Arial", "B", 13)
		heading := fmt.Sprintf("Day %d", day.DayIndex)
		if day.Date != "" {
			heading += " - " + day.Date
		}
		pdf.Cell(0, 9, heading)
		pdf.Ln(9)

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 10)
		for _, a := range day.Activities {
			pdf.CellFormat(widths[0], 7, tr(truncate(a.Title, 50)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 7, a.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d min", a.DurationMins), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], 7, formatMoney(a.Cost), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
