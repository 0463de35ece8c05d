package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/receipt"
)

func TestAddScanIncrementsQuantity(t *testing.T) {
	s := NewSession("dana")
	_, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	require.NoError(t, err)
	it, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	require.NoError(t, err)

	assert.Equal(t, 2, it.Quantity)
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestAddScanMarksUnknownProductsNew(t *testing.T) {
	s := NewSession("dana")
	it, err := s.AddScan(catalog.Resolution{Source: catalog.SourceManual, Product: catalog.Product{Barcode: "0002"}})
	require.NoError(t, err)
	assert.True(t, it.IsNew)
	assert.Equal(t, models.ConfidenceNone, it.Confidence)

	_, err = s.AddScan(catalog.Resolution{})
	assert.Error(t, err)
}

func TestAddScanKeepsExternalPayload(t *testing.T) {
	s := NewSession("dana")
	it, err := s.AddScan(catalog.Resolution{
		Source:     catalog.SourceExternal,
		Product:    catalog.Product{Barcode: "0003", Name: "Sparkling Orange", Brand: "Celsius"},
		LookupData: []byte(`{"product_name":"Celsius Sparkling Orange"}`),
	})
	require.NoError(t, err)
	assert.True(t, it.IsNew)
	assert.JSONEq(t, `{"product_name":"Celsius Sparkling Orange"}`, string(s.Snapshot().Items[0].LookupData))
}

func TestAddScanOnlyInScanStage(t *testing.T) {
	s := NewSession("dana")
	s.Stage = StageReceipt
	_, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	assert.ErrorIs(t, err, ErrWrongStage)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	s := NewSession("dana")
	_, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	require.NoError(t, err)

	require.NoError(t, s.AdjustQuantity("0001", 2))
	assert.Equal(t, 3, s.Snapshot().Items[0].Quantity)

	require.NoError(t, s.SetQuantity("0001", 0))
	assert.Empty(t, s.Snapshot().Items)

	assert.ErrorIs(t, s.SetQuantity("0001", 1), ErrUnknownItem)
}

func TestSetCostMarksManual(t *testing.T) {
	s := NewSession("dana")
	_, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	require.NoError(t, err)

	require.NoError(t, s.SetCost("0001", decPtr("2.499")))
	it := s.Snapshot().Items[0]
	assert.True(t, it.ManualCost)
	assert.Equal(t, models.ConfidenceManual, it.Confidence)
	assert.True(t, it.UnitCost.Equal(dec("2.50")))

	assert.Error(t, s.SetCost("0001", decPtr("-1")))

	require.NoError(t, s.SetCost("0001", nil))
	assert.Nil(t, s.Snapshot().Items[0].UnitCost)
}

func TestSetReceiptKeepsTypedCosts(t *testing.T) {
	s := NewSession("dana")
	_, err := s.AddScan(known("0001", "p-1", "Takis", "Fuego"))
	require.NoError(t, err)
	require.NoError(t, s.SetCost("0001", decPtr("2.49")))

	total := dec("9.86")
	require.NoError(t, s.SetReceipt(receipt.Extraction{
		Lines: []receipt.Line{line("TAKIS FUEGO", "2.49")},
		Total: &total,
	}, "https://img.example/r.jpg", "ok"))

	v := s.Snapshot()
	require.NotNil(t, v.Items[0].UnitCost)
	assert.True(t, v.Items[0].UnitCost.Equal(dec("2.49")))
	require.NotNil(t, v.DeclaredTotal)
	assert.True(t, v.DeclaredTotal.Equal(total))
	assert.Equal(t, "https://img.example/r.jpg", v.ReceiptImageURL)
}

func TestSetReceiptDoesNotOverrideDeclaredTotal(t *testing.T) {
	s := NewSession("dana")
	require.NoError(t, s.SetDetails(Details{DeclaredTotal: decPtr("12.00")}))

	detected := dec("9.86")
	require.NoError(t, s.SetReceipt(receipt.Extraction{Total: &detected}, "", "ok"))

	v := s.Snapshot()
	assert.True(t, v.DeclaredTotal.Equal(dec("12.00")))
	assert.True(t, v.DetectedTotal.Equal(detected))
}

func TestAttachProductAppliesDefaultPrice(t *testing.T) {
	s := NewSession("dana")
	_, err := s.AddScan(catalog.Resolution{Source: catalog.SourceManual, Product: catalog.Product{Barcode: "0002"}})
	require.NoError(t, err)

	require.NoError(t, s.AttachProduct("0002", catalog.Product{
		ID: "p-7", Barcode: "0002", Name: "Trail Mix", Category: "snack", DefaultPrice: decPtr("3.00"),
	}))

	it := s.Snapshot().Items[0]
	assert.Equal(t, "p-7", it.ProductID)
	assert.Equal(t, "Trail Mix", it.Name)
	require.NotNil(t, it.UnitCost)
	assert.True(t, it.UnitCost.Equal(dec("3.00")))
}

func TestClosedSessionRejectsEdits(t *testing.T) {
	s := NewSession("dana")
	s.Stage = StageDiscarded
	assert.ErrorIs(t, s.SetDetails(Details{}), ErrSessionClosed)
	assert.ErrorIs(t, s.SetReceipt(receipt.Extraction{}, "", "ok"), ErrSessionClosed)
}
