package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/soletrack/internal/models"
)

// SheetConfig holds configuration for the printable alert sheet
type SheetConfig struct {
	Title       string
	BaseURL     string // QR codes point to {BaseURL}/api/orders/{id}/status
	GeneratedAt time.Time
}

// A4 portrait, millimetres
const (
	pageHeight = 297.0
	margin     = 12.0
	rowHeight  = 6.0
	qrSize     = 20.0
)

var columns = []struct {
	title string
	width float64
}{
	{"Severity", 18},
	{"Category", 26},
	{"Subtype", 26},
	{"Target", 22},
	{"Days", 14},
	{"Message", 80},
}

// orderGroup is one purchase order section of the sheet. ID 0 collects
// alerts without an order.
type orderGroup struct {
	ID     uint
	Label  string
	Alerts []models.Alert
}

// groupByOrder keeps the incoming order, so the most urgent order prints first
func groupByOrder(list []models.Alert) []orderGroup {
	var groups []orderGroup
	index := map[uint]int{}
	for _, a := range list {
		var id uint
		if a.PurchaseOrderID != nil {
			id = *a.PurchaseOrderID
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, orderGroup{ID: id, Label: orderLabel(id, a.PurchaseOrder)})
		}
		groups[i].Alerts = append(groups[i].Alerts, a)
	}
	return groups
}

func orderLabel(id uint, po *models.PurchaseOrder) string {
	switch {
	case id == 0:
		return "Without purchase order"
	case po == nil:
		return fmt.Sprintf("PO #%d", id)
	case po.Customer != "":
		return fmt.Sprintf("PO %s (%s)", po.Number, po.Customer)
	default:
		return "PO " + po.Number
	}
}

// OrderURL is the status page a purchase order QR code resolves to
func OrderURL(baseURL string, id uint) string {
	return fmt.Sprintf("%s/api/orders/%d/status", strings.TrimRight(baseURL, "/"), id)
}

// AlertSheet renders alerts as an A4 PDF, one section per purchase order
// with a QR code linking to the order status.
func AlertSheet(list []models.Alert, cfg SheetConfig) ([]byte, error) {
	if cfg.Title == "" {
		cfg.Title = "Production alerts"
	}
	if cfg.GeneratedAt.IsZero() {
		cfg.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s  |  page %d/{nb}", cfg.GeneratedAt.Format("2006-01-02 15:04"), pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(cfg.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, summaryLine(list), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(list) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "Nothing at risk.", "", 1, "L", false, 0, "")
	}

	for gi, g := range groupByOrder(list) {
		// keep the header together with its first row
		if pdf.GetY()+qrSize+2*rowHeight > pageHeight-margin-10 {
			pdf.AddPage()
		}
		if err := groupHeader(pdf, g, gi, cfg.BaseURL, tr); err != nil {
			return nil, err
		}
		tableHeader(pdf)

		pdf.SetFont("Arial", "", 8)
		for _, a := range g.Alerts {
			if pdf.GetY()+rowHeight > pageHeight-margin-10 {
				pdf.AddPage()
				tableHeader(pdf)
				pdf.SetFont("Arial", "", 8)
			}
			alertRow(pdf, a, tr)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render alert sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryLine(list []models.Alert) string {
	open := 0
	for i := range list {
		if list[i].IsOpen() {
			open++
		}
	}
	if resolved := len(list) - open; resolved > 0 {
		return fmt.Sprintf("%d open alerts, %d resolved", open, resolved)
	}
	return fmt.Sprintf("%d open alerts", open)
}

func groupHeader(pdf *gofpdf.Fpdf, g orderGroup, n int, baseURL string, tr func(string) string) error {
	top := pdf.GetY()
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, tr(g.Label), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("%d alerts", len(g.Alerts)), "", 1, "L", false, 0, "")

	if g.ID == 0 || baseURL == "" {
		pdf.SetY(top + 14)
		return nil
	}

	png, err := qrcode.Encode(OrderURL(baseURL, g.ID), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode QR for order %d: %w", g.ID, err)
	}
	name := fmt.Sprintf("qr_%d", n)
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, 210-margin-qrSize, top, qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(top + qrSize + 1)
	return nil
}

func tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetTextColor(0, 0, 0)
	for _, c := range columns {
		pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func alertRow(pdf *gofpdf.Fpdf, a models.Alert, tr func(string) string) {
	label := strings.ToUpper(a.Severity)
	r, g, b := severityColor(a.Severity)
	if !a.IsOpen() {
		label = "DONE"
		r, g, b = 150, 150, 150
	}
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(columns[0].width, rowHeight, label, "1", 0, "C", true, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(columns[1].width, rowHeight, a.Category, "1", 0, "L", false, 0, "")
	pdf.CellFormat(columns[2].width, rowHeight, a.Subtype, "1", 0, "L", false, 0, "")
	pdf.CellFormat(columns[3].width, rowHeight, a.TargetDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(columns[4].width, rowHeight, fmt.Sprintf("%d", a.DaysRemaining), "1", 0, "R", false, 0, "")
	msg := fit(pdf, tr(a.Message), columns[5].width-2)
	pdf.CellFormat(columns[5].width, rowHeight, msg, "1", 1, "L", false, 0, "")
}

func severityColor(severity string) (int, int, int) {
	switch severity {
	case "high":
		return 200, 40, 40
	case "medium":
		return 230, 150, 20
	default:
		return 60, 150, 60
	}
}

// fit truncates s with an ellipsis until it fits width
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
