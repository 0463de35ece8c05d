package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/assist"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/ledger"
	"github.com/xelth-com/eckreceive/internal/logging"
	"github.com/xelth-com/eckreceive/internal/receipt"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func known(barcode, id, brand, name string) catalog.Resolution {
	return catalog.Resolution{
		Found:  true,
		Source: catalog.SourceDatabase,
		Product: catalog.Product{
			ID:       id,
			Barcode:  barcode,
			Name:     name,
			Brand:    brand,
			Category: "snack",
		},
	}
}

func line(desc, price string) receipt.Line {
	return receipt.Line{Description: desc, Price: dec(price)}
}

type fakeLedger struct {
	recorded []ledger.Purchase
	err      error
}

func (f *fakeLedger) Record(ctx context.Context, p ledger.Purchase) (uint, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.recorded = append(f.recorded, p)
	return uint(len(f.recorded)), nil
}

type fakeAssist struct {
	matches []assist.Match
	err     error
	calls   int
	last    assist.Request
}

func (f *fakeAssist) Match(ctx context.Context, req assist.Request) ([]assist.Match, error) {
	f.calls++
	f.last = req
	return f.matches, f.err
}

type brokenRepo struct{}

func (brokenRepo) List(ctx context.Context) ([]alias.Alias, error) {
	return nil, errors.New("connection refused")
}

func (brokenRepo) Create(ctx context.Context, a alias.Alias) (alias.Alias, error) {
	return alias.Alias{}, errors.New("connection refused")
}

func (brokenRepo) Delete(ctx context.Context, id uint) error {
	return errors.New("connection refused")
}

type harness struct {
	orch   *Orchestrator
	repo   alias.Repository
	ledger *fakeLedger
	assist *fakeAssist
}

func newHarness(t *testing.T, seed ...alias.Alias) *harness {
	t.Helper()
	h := &harness{
		repo:   alias.NewMemoryRepository(seed...),
		ledger: &fakeLedger{},
		assist: &fakeAssist{},
	}
	h.orch = NewOrchestrator(Options{
		Aliases: h.repo,
		Assist:  h.assist,
		Ledger:  h.ledger,
		Log:     logging.Nop(),
	})
	return h
}

// prepare scans every resolution, loads lines and runs the pipeline
func (h *harness) prepare(t *testing.T, lines []receipt.Line, total *decimal.Decimal, scans ...catalog.Resolution) *Session {
	t.Helper()
	s := NewSession("dana")
	for _, r := range scans {
		_, err := s.AddScan(r)
		require.NoError(t, err)
	}
	_, err := h.orch.Transition(context.Background(), s, StageReceipt)
	require.NoError(t, err)
	require.NoError(t, s.SetReceipt(receipt.Extraction{Lines: lines, Total: total}, "", "ok"))
	_, err = h.orch.Transition(context.Background(), s, StageReconcile)
	require.NoError(t, err)
	return s
}

func itemOf(t *testing.T, s *Session, barcode string) Item {
	t.Helper()
	for _, it := range s.Snapshot().Items {
		if it.Barcode == barcode {
			return it
		}
	}
	t.Fatalf("no item %s", barcode)
	return Item{}
}
