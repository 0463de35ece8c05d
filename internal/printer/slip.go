// Package printer renders the receiving slip PDF handed over with received stock.
package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckreceive/internal/reconcile"
)

// SlipConfig holds page settings for the receiving slip
type SlipConfig struct {
	PageSize   string  `json:"pageSize"` // A4, Letter
	MarginLeft float64 `json:"marginLeft"`
	MarginTop  float64 `json:"marginTop"`
	QRPrefix   string  `json:"qrPrefix"`
}

// DefaultSlipConfig is an A4 slip with 15mm margins
func DefaultSlipConfig() SlipConfig {
	return SlipConfig{PageSize: "A4", MarginLeft: 15, MarginTop: 15, QRPrefix: "ECKR"}
}

// column widths in mm: product, qty, unit, total, confidence
var slipCols = []float64{80, 15, 25, 25, 35}

// SlipReference is the text encoded in the slip's QR code. Submitted sessions
// use the purchase id, open ones the session id.
func SlipReference(cfg SlipConfig, v reconcile.View) string {
	if v.PurchaseID != 0 {
		return fmt.Sprintf("%s/P%010d", cfg.QRPrefix, v.PurchaseID)
	}
	return fmt.Sprintf("%s/S%s", cfg.QRPrefix, v.ID)
}

// GenerateSlipPDF renders the items, totals and variance of a session
func GenerateSlipPDF(cfg SlipConfig, v reconcile.View, variance reconcile.Variance) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", cfg.PageSize, "")
	pdf.SetMargins(cfg.MarginLeft, cfg.MarginTop, cfg.MarginLeft)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	ref := SlipReference(cfg, v)
	qrPng, err := qrcode.Encode(ref, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("slip_qr", imgOptions, bytes.NewReader(qrPng))

	pageW, _ := pdf.GetPageSize()
	qrSize := 30.0
	pdf.ImageOptions("slip_qr", pageW-cfg.MarginLeft-qrSize, cfg.MarginTop, qrSize, qrSize, false, imgOptions, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, "Receiving Slip", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	header := [][2]string{
		{"Store", v.StoreName},
		{"Date", v.PurchaseDate.Format("2006-01-02")},
		{"Received by", v.Purchaser},
		{"Reference", ref},
	}
	for _, h := range header {
		pdf.CellFormat(30, 6, h[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(h[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range []string{"Product", "Qty", "Unit cost", "Line total", "Confidence"} {
		align := "R"
		if i == 0 || i == 4 {
			align = "L"
		}
		pdf.CellFormat(slipCols[i], 7, title, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, it := range v.Items {
		unit, total := "-", "-"
		if it.UnitCost != nil {
			unit = it.UnitCost.StringFixed(2)
			total = it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2)
		}
		pdf.CellFormat(slipCols[0], 6, tr(truncate(itemLabel(it), 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(slipCols[1], 6, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(slipCols[2], 6, unit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(slipCols[3], 6, total, "1", 0, "R", false, 0, "")
		pdf.CellFormat(slipCols[4], 6, string(it.Confidence), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	declared := "-"
	if variance.Declared != nil {
		declared = variance.Declared.StringFixed(2)
	}
	totals := [][2]string{
		{"Receipt total", declared},
		{"Computed total", variance.Computed.StringFixed(2)},
		{"Difference", variance.Difference.StringFixed(2)},
	}
	for _, row := range totals {
		pdf.CellFormat(slipCols[0]+slipCols[1]+slipCols[2], 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(slipCols[3], 6, row[1], "", 1, "R", false, 0, "")
	}

	if variance.Status == reconcile.VarianceFlagged {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(0, 6, fmt.Sprintf("Variance of %s exceeds %s, review before filing", variance.Difference.StringFixed(2), variance.Threshold.StringFixed(2)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itemLabel(it reconcile.Item) string {
	name := it.Name
	if name == "" {
		name = it.Barcode
	}
	if it.Brand != "" {
		return it.Brand + " " + name
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
