// Package receipt turns OCR text from a photographed purchase receipt into
// candidate line items.
package receipt

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/utils"
)

// Line is one candidate item read off the receipt
type Line struct {
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Matched          bool            `json:"matched"`
	MatchedProductID string          `json:"matched_product_id,omitempty"`
}

// Extraction is the result of parsing one OCR pass
type Extraction struct {
	Lines []Line           `json:"lines"`
	Total *decimal.Decimal `json:"total,omitempty"`
}

var (
	// "CHIPS 3 @ 0.99", "COKE 2 X $1.25"
	multiQtyRe = regexp.MustCompile(`^(.*?)\s+(\d{1,3})\s*[@xX]\s*\$?\s?(\d{1,3}\.\d{2})(?:\s*[A-Z])?\s*$`)

	// "BLK RIFLE COFFEE   4.98 F", "GUM $1.29"
	trailingPriceRe = regexp.MustCompile(`(?:^|[\s$])\$?\s?(\d{1,3}\.\d{2})(?:\s*[A-Z])?\s*$`)

	summaryRe  = regexp.MustCompile(`(?i)\b(sub\s*-?\s*total|total|tax|balance|change|cash|payment|tender(ed)?|visa|mastercard|amex|discover|debit|credit)\b|subtotal`)
	totalRe    = regexp.MustCompile(`(?i)\btotal\b`)
	subtotalRe = regexp.MustCompile(`(?i)sub\s*-?\s*total`)

	dateRe    = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	phoneRe   = regexp.MustCompile(`\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b`)
	staffRe   = regexp.MustCompile(`(?i)\b(manager|mgr|cashier|operator)\b`)
	storeNoRe = regexp.MustCompile(`(?i)\b(store|st)\s*#?\s*\d+|#\s*\d{3,}`)
)

const minLineLen = 3

var (
	taxNoisePrice = decimal.RequireFromString("0.50")
	maxItemPrice  = decimal.NewFromInt(500)
)

const taxNoiseDescLen = 5

// Extract parses raw OCR text line by line. Lines matching neither the
// multi-quantity nor the trailing-price pattern are ignored.
func Extract(text string) Extraction {
	var out Extraction

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < minLineLen {
			continue
		}

		if m := multiQtyRe.FindStringSubmatch(line); m != nil {
			desc := utils.CollapseSpaces(m[1])
			price, err := decimal.NewFromString(m[3])
			if summaryRe.MatchString(desc) || isNoise(desc) {
				continue
			}
			if err == nil && desc != "" && price.IsPositive() && price.LessThan(maxItemPrice) {
				out.Lines = append(out.Lines, Line{Description: desc, Price: price})
			}
			continue
		}

		loc := trailingPriceRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		price, err := decimal.NewFromString(line[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		desc := utils.CollapseSpaces(line[:loc[0]])

		if summaryRe.MatchString(desc) {
			if out.Total == nil && totalRe.MatchString(desc) && !subtotalRe.MatchString(desc) {
				total := price
				out.Total = &total
			}
			continue
		}
		if price.LessThan(taxNoisePrice) && len(desc) < taxNoiseDescLen {
			continue
		}
		if desc == "" || isNoise(desc) {
			continue
		}
		if !price.IsPositive() || price.GreaterThanOrEqual(maxItemPrice) {
			continue
		}

		out.Lines = append(out.Lines, Line{Description: desc, Price: price})
	}

	return out
}

func isNoise(desc string) bool {
	return dateRe.MatchString(desc) ||
		phoneRe.MatchString(desc) ||
		staffRe.MatchString(desc) ||
		storeNoRe.MatchString(desc)
}
