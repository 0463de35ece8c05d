package reconcile

import (
	"github.com/shopspring/decimal"
)

// VarianceStatus classifies the gap between declared and computed totals
type VarianceStatus string

const (
	VarianceAcceptable VarianceStatus = "acceptable"
	VarianceFlagged    VarianceStatus = "flagged"
	VarianceMissing    VarianceStatus = "missing"
)

// DefaultVarianceThreshold is the gap below which a difference is put down to tax
var DefaultVarianceThreshold = decimal.NewFromInt(1)

// Variance compares the receipt total with the priced items. It never blocks
// submission; a flagged variance only asks for review.
type Variance struct {
	Declared   *decimal.Decimal `json:"declared"`
	Computed   decimal.Decimal  `json:"computed"`
	Difference decimal.Decimal  `json:"difference"`
	Threshold  decimal.Decimal  `json:"threshold"`
	Status     VarianceStatus   `json:"status"`
}

// ComputedTotal sums unit cost times quantity over priced items
func ComputedTotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.UnitCost == nil {
			continue
		}
		sum = sum.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// CheckVariance classifies |declared - computed| against threshold
func CheckVariance(declared *decimal.Decimal, items []Item, threshold decimal.Decimal) Variance {
	v := Variance{
		Declared:  declared,
		Computed:  ComputedTotal(items),
		Threshold: threshold,
	}
	if declared == nil {
		v.Status = VarianceMissing
		return v
	}

	v.Difference = declared.Sub(v.Computed).Abs()
	if v.Difference.LessThan(threshold) {
		v.Status = VarianceAcceptable
	} else {
		v.Status = VarianceFlagged
	}
	return v
}
