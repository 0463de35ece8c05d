package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/models"
)

// UnmatchedLine is a receipt line no scanned item claimed
type UnmatchedLine struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Suggestion offers to remember a fuzzy or assisted match as an alias
type Suggestion struct {
	Barcode     string            `json:"barcode"`
	ProductID   string            `json:"product_id"`
	StoreName   string            `json:"store_name"`
	ReceiptText string            `json:"receipt_text"`
	Confidence  models.Confidence `json:"confidence"`
}

// Report is the reconciliation outcome shown to the user
type Report struct {
	SessionID      string          `json:"session_id"`
	Stage          Stage           `json:"stage"`
	Matched        []Item          `json:"matched"`
	UnmatchedLines []UnmatchedLine `json:"unmatched_lines"`
	Unpriced       []Item          `json:"unpriced"`
	Suggestions    []Suggestion    `json:"suggestions"`
	Variance       Variance        `json:"variance"`
	Notes          []string        `json:"notes,omitempty"`
}

func buildReport(v View, threshold decimal.Decimal) Report {
	r := Report{
		SessionID:      v.ID,
		Stage:          v.Stage,
		Matched:        []Item{},
		UnmatchedLines: []UnmatchedLine{},
		Unpriced:       []Item{},
		Suggestions:    []Suggestion{},
		Variance:       CheckVariance(v.DeclaredTotal, v.Items, threshold),
		Notes:          v.Notes,
	}

	for _, it := range v.Items {
		if it.UnitCost == nil {
			r.Unpriced = append(r.Unpriced, it)
			continue
		}
		r.Matched = append(r.Matched, it)
		if s, ok := suggestionFor(it, v.StoreName); ok {
			r.Suggestions = append(r.Suggestions, s)
		}
	}

	for i, l := range v.Lines {
		if !l.Matched {
			r.UnmatchedLines = append(r.UnmatchedLines, UnmatchedLine{Index: i, Description: l.Description, Price: l.Price})
		}
	}
	return r
}

func suggestionFor(it Item, store string) (Suggestion, bool) {
	if !it.Confidence.Learnable() || it.ProductID == "" || it.MatchedText == "" {
		return Suggestion{}, false
	}
	return Suggestion{
		Barcode:     it.Barcode,
		ProductID:   it.ProductID,
		StoreName:   store,
		ReceiptText: it.MatchedText,
		Confidence:  it.Confidence,
	}, true
}
