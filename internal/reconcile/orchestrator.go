// Package reconcile drives a receiving session from scanning to submission and
// pairs scanned items with receipt lines.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/assist"
	"github.com/xelth-com/eckreceive/internal/ledger"
	"github.com/xelth-com/eckreceive/internal/matcher"
	"github.com/xelth-com/eckreceive/internal/metrics"
	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/utils"
)

// Orchestrator runs the matching pipeline and the workflow transitions
type Orchestrator struct {
	aliases   alias.Repository
	matcher   *matcher.Matcher
	assist    assist.Matcher
	ledger    ledger.Ledger
	threshold decimal.Decimal
	log       *zap.SugaredLogger
}

// Options configures an Orchestrator. Assist may be nil.
type Options struct {
	Aliases           alias.Repository
	Matcher           *matcher.Matcher
	Assist            assist.Matcher
	Ledger            ledger.Ledger
	VarianceThreshold decimal.Decimal
	Log               *zap.SugaredLogger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		aliases:   opts.Aliases,
		matcher:   opts.Matcher,
		assist:    opts.Assist,
		ledger:    opts.Ledger,
		threshold: opts.VarianceThreshold,
		log:       opts.Log,
	}
	if o.matcher == nil {
		o.matcher = matcher.Default()
	}
	if o.threshold.IsZero() {
		o.threshold = DefaultVarianceThreshold
	}
	return o
}

// Transition moves the session to stage to. Entering reconcile from the
// receipt stage runs the matching pipeline.
func (o *Orchestrator) Transition(ctx context.Context, s *Session, to Stage) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.Stage
	if to == StageSubmitted {
		return Report{}, fmt.Errorf("%w: %s -> %s, use submit", ErrInvalidTransition, from, to)
	}
	if !CanTransition(from, to) {
		return Report{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	s.Stage = to
	s.touch()
	if from == StageReceipt && to == StageReconcile {
		o.runPipeline(ctx, s)
	}
	if to == StageDiscarded {
		metrics.ActiveSessions.Dec()
	}
	o.log.Infow("session stage changed", "session", s.ID, "from", from, "to", to)
	return buildReport(s.view(), o.threshold), nil
}

// Report returns the current reconciliation report
func (o *Orchestrator) Report(s *Session) Report {
	return buildReport(s.Snapshot(), o.threshold)
}

// Threshold is the configured variance threshold
func (o *Orchestrator) Threshold() decimal.Decimal {
	return o.threshold
}

// runPipeline pairs items and lines: learned aliases first, then fuzzy
// scoring, then the assisted matcher for whatever is left. Costs typed by the
// user and pinned pairs survive a re-run. Caller holds s.mu.
func (o *Orchestrator) runPipeline(ctx context.Context, s *Session) {
	s.Notes = nil
	o.resetAutomatic(s)

	store := alias.NewStore(o.aliases)
	if o.aliases != nil {
		if err := store.Load(ctx); err != nil {
			metrics.PhaseErrors.WithLabelValues("alias").Inc()
			o.log.Warnw("alias phase skipped", "session", s.ID, "error", err)
			s.Notes = append(s.Notes, "learned aliases unavailable")
		}
	}
	s.aliases = store

	o.aliasPhase(s, store)
	o.fuzzyPhase(s)
	o.assistedPhase(ctx, s)

	metrics.OCRLines.Observe(float64(len(s.Lines)))
	if v := CheckVariance(s.DeclaredTotal, s.view().Items, o.threshold); v.Status == VarianceFlagged {
		metrics.VarianceFlagged.Inc()
	}
}

func (o *Orchestrator) resetAutomatic(s *Session) {
	for i := range s.Lines {
		s.Lines[i].Matched = false
		s.Lines[i].MatchedProductID = ""
	}
	for _, it := range s.Items {
		if it.ManualCost || it.Pinned {
			for _, li := range it.MatchedLines {
				if li >= 0 && li < len(s.Lines) {
					s.Lines[li].Matched = true
					s.Lines[li].MatchedProductID = it.ProductID
				}
			}
			continue
		}
		it.clearMatch()
	}
}

func (o *Orchestrator) aliasPhase(s *Session, store *alias.Store) {
	for li := range s.Lines {
		if s.Lines[li].Matched {
			continue
		}
		for _, a := range store.Candidates(s.StoreName, s.Lines[li].Description) {
			it := firstUnpricedWithProduct(s.Items, a.ProductID)
			if it == nil {
				continue
			}
			o.apply(s, it, li, models.ConfidenceAlias, 1)
			break
		}
	}
}

func firstUnpricedWithProduct(items []*Item, productID string) *Item {
	for _, it := range items {
		if !it.priced() && it.ProductID != "" && it.ProductID == productID {
			return it
		}
	}
	return nil
}

// fuzzyPhase assigns lines to the still unpriced items. When a match absorbs
// duplicate lines the remaining pairs are stale, so assignment is redone over
// what is still open.
func (o *Orchestrator) fuzzyPhase(s *Session) {
	for {
		items, lines := openItems(s), openLines(s)
		if len(items) == 0 || len(lines) == 0 {
			return
		}

		scores := make([][]float64, len(items))
		for i, it := range items {
			scores[i] = make([]float64, len(lines))
			for j, li := range lines {
				scores[i][j] = matcher.Score(it.Brand, it.Name, s.Lines[li].Description)
			}
		}

		absorbed := false
		for _, p := range o.matcher.Assign(scores) {
			it := items[p.Item]
			o.apply(s, it, lines[p.Line], o.matcher.Tier(p.Score), p.Score)
			if len(it.MatchedLines) > 1 {
				absorbed = true
				break
			}
		}
		if !absorbed {
			return
		}
	}
}

func (o *Orchestrator) assistedPhase(ctx context.Context, s *Session) {
	if o.assist == nil {
		return
	}
	items, lines := openItems(s), openLines(s)
	if len(items) == 0 || len(lines) == 0 {
		return
	}

	req := assist.Request{StoreName: s.StoreName}
	for _, li := range lines {
		req.Lines = append(req.Lines, assist.Line{Index: li, Description: s.Lines[li].Description, Price: s.Lines[li].Price})
	}
	byKey := make(map[string]*Item, len(items))
	for _, it := range items {
		key := it.ProductID
		if key == "" || byKey[key] != nil {
			key = it.Barcode
		}
		byKey[key] = it
		req.Products = append(req.Products, assist.Product{ID: key, Brand: it.Brand, Name: it.Name, Category: it.Category})
	}

	matches, err := o.assist.Match(ctx, req)
	if err != nil {
		metrics.PhaseErrors.WithLabelValues("assisted").Inc()
		o.log.Warnw("assisted phase skipped", "session", s.ID, "error", err)
		s.Notes = append(s.Notes, "assisted matching unavailable")
		return
	}

	for _, m := range matches {
		tier, ok := m.Tier()
		if !ok {
			continue
		}
		it := byKey[m.ProductID]
		if it == nil || it.priced() {
			continue
		}
		if m.ReceiptIndex < 0 || m.ReceiptIndex >= len(s.Lines) || s.Lines[m.ReceiptIndex].Matched {
			continue
		}
		o.apply(s, it, m.ReceiptIndex, tier, 0)
	}
}

func openItems(s *Session) []*Item {
	var out []*Item
	for _, it := range s.Items {
		if !it.priced() {
			out = append(out, it)
		}
	}
	return out
}

func openLines(s *Session) []int {
	var out []int
	for i, l := range s.Lines {
		if !l.Matched {
			out = append(out, i)
		}
	}
	return out
}

// apply prices it from line li. An item scanned n times also claims up to n-1
// further unmatched lines with the same text and price.
func (o *Orchestrator) apply(s *Session, it *Item, li int, conf models.Confidence, score float64) {
	line := &s.Lines[li]
	price := line.Price
	it.UnitCost = &price
	it.Confidence = conf
	it.MatchedText = line.Description
	it.MatchedLines = []int{li}
	it.Score = score
	line.Matched = true
	line.MatchedProductID = it.ProductID

	key := utils.Fold(line.Description)
	for j := range s.Lines {
		if len(it.MatchedLines) >= it.Quantity {
			break
		}
		other := &s.Lines[j]
		if other.Matched || !other.Price.Equal(price) || utils.Fold(other.Description) != key {
			continue
		}
		other.Matched = true
		other.MatchedProductID = it.ProductID
		it.MatchedLines = append(it.MatchedLines, j)
	}

	metrics.Matches.WithLabelValues(string(conf)).Inc()
}

// ForcePair prices the item from a line the user picked. The pair is pinned
// so re-running the pipeline keeps it, and it is offered as an alias.
func (o *Orchestrator) ForcePair(s *Session, barcode string, lineIndex int) (Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return Suggestion{}, err
	}
	if s.Stage != StageReconcile {
		return Suggestion{}, fmt.Errorf("%w: pairing needs the reconcile stage, session is in %s", ErrWrongStage, s.Stage)
	}
	it, _ := s.item(barcode)
	if it == nil {
		return Suggestion{}, fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	if lineIndex < 0 || lineIndex >= len(s.Lines) {
		return Suggestion{}, fmt.Errorf("%w: %d", ErrUnknownLine, lineIndex)
	}
	if s.Lines[lineIndex].Matched && !containsInt(it.MatchedLines, lineIndex) {
		return Suggestion{}, fmt.Errorf("%w: %d", ErrLineTaken, lineIndex)
	}

	s.releaseLines(it.MatchedLines)
	it.clearMatch()

	score := matcher.Score(it.Brand, it.Name, s.Lines[lineIndex].Description)
	conf := models.ConfidenceFuzzyLow
	if o.matcher.Accepts(score) {
		conf = o.matcher.Tier(score)
	}
	o.apply(s, it, lineIndex, conf, score)
	it.Pinned = true
	s.touch()

	sug, _ := suggestionFor(*it, s.StoreName)
	return sug, nil
}

// Unpair removes the price and line links of an item
func (o *Orchestrator) Unpair(s *Session, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	it, _ := s.item(barcode)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	s.releaseLines(it.MatchedLines)
	it.clearMatch()
	s.touch()
	return nil
}

// Remember stores the item's matched receipt text as an alias for its product
func (o *Orchestrator) Remember(ctx context.Context, s *Session, barcode string) (alias.Alias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, _ := s.item(barcode)
	if it == nil {
		return alias.Alias{}, fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	if it.ProductID == "" {
		return alias.Alias{}, fmt.Errorf("%w: item %s has no product yet", ErrIncomplete, barcode)
	}
	if strings.TrimSpace(it.MatchedText) == "" {
		return alias.Alias{}, fmt.Errorf("%w: item %s is not matched to a receipt line", ErrUnknownLine, barcode)
	}

	if o.aliases == nil {
		return alias.Alias{}, fmt.Errorf("alias repository is not configured")
	}
	store := s.aliases
	if store == nil {
		store = alias.NewStore(o.aliases)
		s.aliases = store
	}
	a, err := store.Remember(ctx, s.StoreName, it.MatchedText, it.ProductID)
	if err != nil {
		return alias.Alias{}, err
	}
	o.log.Infow("alias remembered", "session", s.ID, "text", a.Text, "product", a.ProductID)
	return a, nil
}

// Submit writes the session to the ledger and closes it. The session must be
// in the submit stage with a declared total and every item priced.
func (o *Orchestrator) Submit(ctx context.Context, s *Session) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return 0, err
	}
	if s.Stage != StageSubmit {
		return 0, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.Stage)
	}
	if len(s.Items) == 0 {
		return 0, ErrEmptySession
	}
	if s.DeclaredTotal == nil {
		return 0, ErrMissingTotal
	}

	var missing []string
	p := ledger.Purchase{
		PurchasedBy:     s.Purchaser,
		StoreName:       s.StoreName,
		PurchaseDate:    s.PurchaseDate,
		ReceiptImageURL: s.ReceiptImageURL,
		ReceiptTotal:    *s.DeclaredTotal,
	}
	for _, it := range s.Items {
		if it.ProductID == "" || it.UnitCost == nil {
			missing = append(missing, it.Barcode)
			continue
		}
		p.Lines = append(p.Lines, ledger.Line{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitCost:   *it.UnitCost,
			Confidence: string(it.Confidence),
		})
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	v := CheckVariance(s.DeclaredTotal, s.view().Items, o.threshold)
	if v.Status == VarianceFlagged {
		p.Notes = fmt.Sprintf("variance %s flagged", v.Difference.StringFixed(2))
	}

	id, err := o.ledger.Record(ctx, p)
	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.PurchaseID = id
	s.Stage = StageSubmitted
	s.touch()
	metrics.Submissions.WithLabelValues("ok").Inc()
	metrics.ActiveSessions.Dec()
	o.log.Infow("purchase recorded", "session", s.ID, "purchase", id, "lines", len(p.Lines))
	return id, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
