package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/reconcile"
)

func sampleView() reconcile.View {
	cost := decimal.RequireFromString("4.98")
	total := decimal.RequireFromString("9.86")
	return reconcile.View{
		ID:            "c0ffee00-0000-0000-0000-000000000001",
		Stage:         reconcile.StageSubmit,
		Purchaser:     "dana",
		StoreName:     "Costco Wholesale",
		PurchaseDate:  time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		DeclaredTotal: &total,
		Items: []reconcile.Item{
			{Barcode: "012345678905", Brand: "Black Rifle Coffee Company", Name: "Murdered Out", Quantity: 2, UnitCost: &cost, Confidence: models.ConfidenceFuzzyMedium},
			{Barcode: "0611269000001", Name: "Café Crème", Quantity: 1, Confidence: models.ConfidenceNone},
		},
	}
}

func TestGenerateSlipPDF(t *testing.T) {
	v := sampleView()
	variance := reconcile.CheckVariance(v.DeclaredTotal, v.Items, reconcile.DefaultVarianceThreshold)

	out, err := GenerateSlipPDF(DefaultSlipConfig(), v, variance)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestSlipReference(t *testing.T) {
	cfg := DefaultSlipConfig()
	v := sampleView()
	assert.Equal(t, "ECKR/S"+v.ID, SlipReference(cfg, v))

	v.PurchaseID = 42
	assert.Equal(t, "ECKR/P0000000042", SlipReference(cfg, v))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
