package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/assist"
	"github.com/xelth-com/eckreceive/internal/logging"
	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/receipt"
)

var (
	blackRifle = known("012345678905", "p-brc", "Black Rifle Coffee Company", "Murdered Out")
	takis      = known("0757528000001", "p-takis", "Takis", "Fuego Rolled Tortilla Chips")
	redBull    = known("0611269000001", "p-rb", "Red Bull", "Sugarfree")
)

const costcoReceipt = `COSTCO WHOLESALE
BLK RIFLE COFFEE          4.98 F
TAKIS FUEGO               2.49 F
CELSIUS ORANGE            1.99 F
SUBTOTAL                  9.46
TAX                       0.40
TOTAL                     9.86`

func TestPipelineFromReceiptText(t *testing.T) {
	h := newHarness(t)
	ext := receipt.Extract(costcoReceipt)
	s := h.prepare(t, ext.Lines, ext.Total, blackRifle, takis)

	r := h.orch.Report(s)
	require.Len(t, r.Matched, 2)
	assert.Empty(t, r.Unpriced)
	require.Len(t, r.UnmatchedLines, 1)
	assert.Equal(t, "CELSIUS ORANGE", r.UnmatchedLines[0].Description)

	brc := itemOf(t, s, blackRifle.Product.Barcode)
	assert.True(t, brc.UnitCost.Equal(dec("4.98")))
	assert.Equal(t, models.ConfidenceFuzzyMedium, brc.Confidence)
	assert.Equal(t, "BLK RIFLE COFFEE", brc.MatchedText)

	assert.Len(t, r.Suggestions, 2)
	assert.Equal(t, VarianceFlagged, r.Variance.Status)
	assert.True(t, r.Variance.Difference.Equal(dec("2.39")), r.Variance.Difference.String())
}

func TestAliasPhaseShortCircuits(t *testing.T) {
	h := newHarness(t, alias.Alias{Text: "BLK RIFLE", ProductID: "p-brc"})
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, nil, blackRifle)

	it := itemOf(t, s, blackRifle.Product.Barcode)
	assert.Equal(t, models.ConfidenceAlias, it.Confidence)
	assert.Equal(t, 0, h.assist.calls)
	assert.Empty(t, h.orch.Report(s).Suggestions, "alias matches are already learned")
}

func TestAliasPhaseSkipsAliasWithoutOpenItem(t *testing.T) {
	h := newHarness(t,
		alias.Alias{Text: "BLK RIFLE", ProductID: "p-other"},
		alias.Alias{Text: "BLK RIFLE COFFEE", ProductID: "p-brc"},
	)
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, nil, blackRifle)

	assert.Equal(t, models.ConfidenceAlias, itemOf(t, s, blackRifle.Product.Barcode).Confidence)
}

func TestAliasScopeIsPerStore(t *testing.T) {
	walmart := "Walmart"
	h := newHarness(t, alias.Alias{StoreName: &walmart, Text: "RB SF", ProductID: "p-rb"})

	s := NewSession("dana")
	_, err := s.AddScan(redBull)
	require.NoError(t, err)
	store := "Costco"
	require.NoError(t, s.SetDetails(Details{StoreName: &store}))
	_, err = h.orch.Transition(context.Background(), s, StageReceipt)
	require.NoError(t, err)
	require.NoError(t, s.SetReceipt(receipt.Extraction{Lines: []receipt.Line{line("RB SF 8.4OZ", "2.29")}}, "", "ok"))
	_, err = h.orch.Transition(context.Background(), s, StageReconcile)
	require.NoError(t, err)

	assert.Nil(t, itemOf(t, s, redBull.Product.Barcode).UnitCost)
}

func TestRememberThenRerunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, nil, blackRifle)
	require.Equal(t, models.ConfidenceFuzzyMedium, itemOf(t, s, blackRifle.Product.Barcode).Confidence)

	a, err := h.orch.Remember(context.Background(), s, blackRifle.Product.Barcode)
	require.NoError(t, err)
	assert.Equal(t, "BLK RIFLE COFFEE", a.Text)
	assert.Nil(t, a.StoreName)

	for i := 0; i < 2; i++ {
		next := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, nil, blackRifle)
		it := itemOf(t, next, blackRifle.Product.Barcode)
		assert.Equal(t, models.ConfidenceAlias, it.Confidence)
		assert.True(t, it.UnitCost.Equal(dec("4.98")))
		_, err := h.orch.Remember(context.Background(), next, blackRifle.Product.Barcode)
		require.NoError(t, err)
	}
}

func TestRememberNeedsMatchedText(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, nil, nil, redBull)
	_, err := h.orch.Remember(context.Background(), s, redBull.Product.Barcode)
	assert.ErrorIs(t, err, ErrUnknownLine)

	_, err = h.orch.Remember(context.Background(), s, "nope")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestRepeatedScansAbsorbDuplicateLines(t *testing.T) {
	h := newHarness(t)
	s := NewSession("dana")
	for i := 0; i < 2; i++ {
		_, err := s.AddScan(takis)
		require.NoError(t, err)
	}
	_, err := h.orch.Transition(context.Background(), s, StageReceipt)
	require.NoError(t, err)
	require.NoError(t, s.SetReceipt(receipt.Extraction{Lines: []receipt.Line{
		line("TAKIS FUEGO", "2.49"),
		line("CELSIUS ORANGE", "1.99"),
		line("takis fuego", "2.49"),
	}}, "", "ok"))
	_, err = h.orch.Transition(context.Background(), s, StageReconcile)
	require.NoError(t, err)

	it := itemOf(t, s, takis.Product.Barcode)
	assert.Equal(t, []int{0, 2}, it.MatchedLines)

	r := h.orch.Report(s)
	require.Len(t, r.UnmatchedLines, 1)
	assert.Equal(t, 1, r.UnmatchedLines[0].Index)
	assert.True(t, r.Variance.Computed.Equal(dec("4.98")))
}

func TestAbsorptionLeavesRemainingLinesForLaterItems(t *testing.T) {
	h := newHarness(t)
	fuego := known("1", "p-a", "Takis", "Fuego")
	hot := known("2", "p-b", "Takis", "Fuego Hot")
	s := h.prepare(t, []receipt.Line{
		line("TAKIS FUEGO", "2.49"),
		line("TAKIS FUEGO", "2.49"),
		line("TAKIS HOT", "2.79"),
	}, nil, fuego, fuego, hot)

	first := itemOf(t, s, "1")
	assert.Equal(t, []int{0, 1}, first.MatchedLines)

	second := itemOf(t, s, "2")
	require.NotNil(t, second.UnitCost)
	assert.True(t, second.UnitCost.Equal(dec("2.79")))
	assert.Equal(t, []int{2}, second.MatchedLines)
	assert.Empty(t, h.orch.Report(s).UnmatchedLines)
}

func TestLoweringQuantityReleasesAbsorbedLines(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, []receipt.Line{
		line("TAKIS FUEGO", "2.49"),
		line("TAKIS FUEGO", "2.49"),
	}, nil, takis, takis)
	require.Equal(t, []int{0, 1}, itemOf(t, s, takis.Product.Barcode).MatchedLines)

	require.NoError(t, s.SetQuantity(takis.Product.Barcode, 1))

	it := itemOf(t, s, takis.Product.Barcode)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, []int{0}, it.MatchedLines)
	require.NotNil(t, it.UnitCost)

	r := h.orch.Report(s)
	require.Len(t, r.UnmatchedLines, 1)
	assert.Equal(t, 1, r.UnmatchedLines[0].Index)
}

func TestGreedyFirstScannedItemWins(t *testing.T) {
	h := newHarness(t)
	first := known("1", "p-a", "Takis", "Fuego")
	second := known("2", "p-b", "Takis", "Fuego Hot")
	s := h.prepare(t, []receipt.Line{line("TAKIS FUEGO", "2.49")}, nil, first, second)

	assert.NotNil(t, itemOf(t, s, "1").UnitCost)
	assert.Nil(t, itemOf(t, s, "2").UnitCost)
}

func TestAssistedPhaseTakesLeftovers(t *testing.T) {
	h := newHarness(t)
	h.assist.matches = []assist.Match{
		{ReceiptIndex: 1, ProductID: "p-rb", Confidence: "high", Reasoning: "RB SF is Red Bull Sugarfree"},
		{ReceiptIndex: 2, ProductID: "p-rb", Confidence: "none"},
		{ReceiptIndex: 0, ProductID: "p-brc", Confidence: "low"},
	}
	s := h.prepare(t, []receipt.Line{
		line("BLK RIFLE COFFEE", "4.98"),
		line("RB SF 8.4OZ", "2.29"),
		line("BANANAS", "0.99"),
	}, nil, blackRifle, redBull)

	require.Equal(t, 1, h.assist.calls)
	require.Len(t, h.assist.last.Products, 1)
	assert.Equal(t, "p-rb", h.assist.last.Products[0].ID)
	require.Len(t, h.assist.last.Lines, 2)
	assert.Equal(t, 1, h.assist.last.Lines[0].Index)

	rb := itemOf(t, s, redBull.Product.Barcode)
	assert.Equal(t, models.ConfidenceAssistedHigh, rb.Confidence)
	assert.True(t, rb.UnitCost.Equal(dec("2.29")))
	assert.Equal(t, models.ConfidenceFuzzyMedium, itemOf(t, s, blackRifle.Product.Barcode).Confidence)
}

func TestFailingPhasesDegrade(t *testing.T) {
	fa := &fakeAssist{err: errors.New("quota exceeded")}
	orch := NewOrchestrator(Options{Aliases: brokenRepo{}, Assist: fa, Ledger: &fakeLedger{}, Log: logging.Nop()})
	h := &harness{orch: orch, assist: fa}

	s := h.prepare(t, []receipt.Line{
		line("BLK RIFLE COFFEE", "4.98"),
		line("RB SF 8.4OZ", "2.29"),
	}, nil, blackRifle, redBull)

	r := orch.Report(s)
	assert.Contains(t, r.Notes, "learned aliases unavailable")
	assert.Contains(t, r.Notes, "assisted matching unavailable")
	assert.Len(t, r.Matched, 1)
	assert.Len(t, r.Unpriced, 1)
}

func TestForcePairAndUnpair(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, []receipt.Line{
		line("BLK RIFLE COFFEE", "4.98"),
		line("RB SF 8.4OZ", "2.29"),
	}, nil, blackRifle, redBull)
	require.Nil(t, itemOf(t, s, redBull.Product.Barcode).UnitCost)

	_, err := h.orch.ForcePair(s, redBull.Product.Barcode, 0)
	assert.ErrorIs(t, err, ErrLineTaken)
	_, err = h.orch.ForcePair(s, redBull.Product.Barcode, 9)
	assert.ErrorIs(t, err, ErrUnknownLine)

	sug, err := h.orch.ForcePair(s, redBull.Product.Barcode, 1)
	require.NoError(t, err)
	assert.Equal(t, "RB SF 8.4OZ", sug.ReceiptText)
	assert.Equal(t, models.ConfidenceFuzzyLow, sug.Confidence)

	// a pinned pair survives a re-run of the pipeline
	_, err = h.orch.Transition(context.Background(), s, StageReceipt)
	require.NoError(t, err)
	_, err = h.orch.Transition(context.Background(), s, StageReconcile)
	require.NoError(t, err)
	rb := itemOf(t, s, redBull.Product.Barcode)
	assert.True(t, rb.Pinned)
	assert.True(t, rb.UnitCost.Equal(dec("2.29")))

	require.NoError(t, h.orch.Unpair(s, redBull.Product.Barcode))
	assert.Nil(t, itemOf(t, s, redBull.Product.Barcode).UnitCost)
	assert.Len(t, h.orch.Report(s).UnmatchedLines, 1)
}

func TestTransitionRules(t *testing.T) {
	h := newHarness(t)
	s := NewSession("dana")

	_, err := h.orch.Transition(context.Background(), s, StageReconcile)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = h.orch.Transition(context.Background(), s, StageSubmitted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.orch.Transition(context.Background(), s, StageDiscarded)
	require.NoError(t, err)
	_, err = h.orch.Transition(context.Background(), s, StageScan)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func toSubmit(t *testing.T, h *harness, s *Session) {
	t.Helper()
	_, err := h.orch.Transition(context.Background(), s, StageSubmit)
	require.NoError(t, err)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)

	empty := h.prepare(t, nil, decPtr("1.00"))
	toSubmit(t, h, empty)
	_, err := h.orch.Submit(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEmptySession)

	noTotal := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, nil, blackRifle)
	toSubmit(t, h, noTotal)
	_, err = h.orch.Submit(context.Background(), noTotal)
	assert.ErrorIs(t, err, ErrMissingTotal)

	unpriced := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, decPtr("7.27"), blackRifle, redBull)
	toSubmit(t, h, unpriced)
	_, err = h.orch.Submit(context.Background(), unpriced)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Empty(t, h.ledger.recorded)
}

func TestSubmitNeedsSubmitStage(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, decPtr("4.98"), blackRifle)
	_, err := h.orch.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitRecordsPurchase(t *testing.T) {
	h := newHarness(t)
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, decPtr("7.27"), blackRifle, redBull)
	require.NoError(t, s.SetCost(redBull.Product.Barcode, decPtr("2.29")))
	toSubmit(t, h, s)

	id, err := h.orch.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	require.Len(t, h.ledger.recorded, 1)
	p := h.ledger.recorded[0]
	assert.Equal(t, "dana", p.PurchasedBy)
	assert.True(t, p.ReceiptTotal.Equal(dec("7.27")))
	require.Len(t, p.Lines, 2)
	assert.Equal(t, "p-brc", p.Lines[0].ProductID)
	assert.Equal(t, string(models.ConfidenceManual), p.Lines[1].Confidence)
	assert.Empty(t, p.Notes)

	v := s.Snapshot()
	assert.Equal(t, StageSubmitted, v.Stage)
	assert.Equal(t, id, v.PurchaseID)

	_, err = h.orch.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubmitLedgerFailureKeepsSessionOpen(t *testing.T) {
	h := newHarness(t)
	h.ledger.err = errors.New("deadlock detected")
	s := h.prepare(t, []receipt.Line{line("BLK RIFLE COFFEE", "4.98")}, decPtr("4.98"), blackRifle)
	toSubmit(t, h, s)

	_, err := h.orch.Submit(context.Background(), s)
	assert.Error(t, err)
	assert.Equal(t, StageSubmit, s.Snapshot().Stage)
}
