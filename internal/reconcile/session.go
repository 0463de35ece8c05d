package reconcile

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/brand"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/receipt"
)

// Item is one scanned product type in a receiving session
type Item struct {
	Barcode      string            `json:"barcode"`
	ProductID    string            `json:"product_id,omitempty"`
	Name         string            `json:"name"`
	Brand        string            `json:"brand,omitempty"`
	Category     string            `json:"category,omitempty"`
	Quantity     int               `json:"quantity"`
	UnitCost     *decimal.Decimal  `json:"unit_cost"`
	IsNew        bool              `json:"is_new"`
	Confidence   models.Confidence `json:"confidence"`
	MatchedText  string            `json:"matched_text,omitempty"`
	MatchedLines []int             `json:"matched_lines,omitempty"`
	Score        float64           `json:"score,omitempty"`
	ManualCost   bool              `json:"manual_cost"`
	Pinned       bool              `json:"pinned"`
	Source       catalog.Source    `json:"source"`
	BrandMatch   *brand.Result     `json:"brand_match,omitempty"`
	LookupData   datatypes.JSON    `json:"-"`
}

func (it *Item) priced() bool {
	return it.UnitCost != nil
}

// clearMatch drops the price and line links of an item
func (it *Item) clearMatch() {
	it.UnitCost = nil
	it.Confidence = models.ConfidenceNone
	it.MatchedText = ""
	it.MatchedLines = nil
	it.Score = 0
	it.ManualCost = false
	it.Pinned = false
}

// Session is the in-memory aggregate of one receiving flow. All access goes
// through its methods or the Orchestrator, which hold mu.
type Session struct {
	mu sync.Mutex

	ID              string
	Purchaser       string
	StoreName       string
	PurchaseDate    time.Time
	DeclaredTotal   *decimal.Decimal
	DetectedTotal   *decimal.Decimal
	ReceiptImageURL string
	OCRStatus       string
	Stage           Stage
	Items           []*Item
	Lines           []receipt.Line
	PurchaseID      uint
	Notes           []string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	aliases *alias.Store
}

// NewSession starts a receiving flow in the scan stage
func NewSession(purchaser string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		Purchaser:    purchaser,
		PurchaseDate: now,
		Stage:        StageScan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

func (s *Session) open() error {
	if s.Stage.Terminal() {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.Stage)
	}
	return nil
}

func (s *Session) item(barcode string) (*Item, int) {
	for i, it := range s.Items {
		if it.Barcode == barcode {
			return it, i
		}
	}
	return nil, -1
}

// AddScan records one scanned unit. A barcode already in the session only
// increments its quantity. Scanning is allowed in the scan stage only.
func (s *Session) AddScan(res catalog.Resolution) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return Item{}, err
	}
	if s.Stage != StageScan {
		return Item{}, fmt.Errorf("%w: scanning needs the scan stage, session is in %s", ErrWrongStage, s.Stage)
	}

	barcode := strings.TrimSpace(res.Product.Barcode)
	if barcode == "" {
		return Item{}, fmt.Errorf("%w: barcode is required", ErrInvalidInput)
	}
	if it, _ := s.item(barcode); it != nil {
		it.Quantity++
		s.touch()
		return *it, nil
	}

	it := &Item{
		Barcode:    barcode,
		ProductID:  res.Product.ID,
		Name:       res.Product.Name,
		Brand:      res.Product.Brand,
		Category:   res.Product.Category,
		Quantity:   1,
		IsNew:      !res.Found,
		Confidence: models.ConfidenceNone,
		Source:     res.Source,
		BrandMatch: res.BrandMatch,
		LookupData: res.LookupData,
	}
	s.Items = append(s.Items, it)
	s.touch()
	return *it, nil
}

// SetQuantity sets an item's quantity; zero or less removes the item
func (s *Session) SetQuantity(barcode string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	it, idx := s.item(barcode)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	if qty <= 0 {
		s.removeAt(idx)
	} else {
		it.Quantity = qty
		if len(it.MatchedLines) > qty {
			s.releaseLines(it.MatchedLines[qty:])
			it.MatchedLines = it.MatchedLines[:qty:qty]
		}
	}
	s.touch()
	return nil
}

// AdjustQuantity adds delta to an item's quantity
func (s *Session) AdjustQuantity(barcode string, delta int) error {
	s.mu.Lock()
	it, _ := s.item(barcode)
	if it == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	qty := it.Quantity + delta
	s.mu.Unlock()
	return s.SetQuantity(barcode, qty)
}

// RemoveItem deletes an item and releases its receipt lines
func (s *Session) RemoveItem(barcode string) error {
	return s.SetQuantity(barcode, 0)
}

func (s *Session) removeAt(idx int) {
	s.releaseLines(s.Items[idx].MatchedLines)
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
}

// releaseLines marks receipt lines unmatched again
func (s *Session) releaseLines(lines []int) {
	for _, li := range lines {
		if li >= 0 && li < len(s.Lines) {
			s.Lines[li].Matched = false
			s.Lines[li].MatchedProductID = ""
		}
	}
}

// SetCost records a unit cost typed by the user. A nil cost clears the price.
func (s *Session) SetCost(barcode string, cost *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	it, _ := s.item(barcode)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	if cost != nil && cost.IsNegative() {
		return fmt.Errorf("%w: unit cost must not be negative", ErrInvalidInput)
	}

	if cost == nil {
		s.releaseLines(it.MatchedLines)
		it.clearMatch()
		s.touch()
		return nil
	}

	c := cost.Round(2)
	it.UnitCost = &c
	it.ManualCost = true
	if it.Confidence == models.ConfidenceNone {
		it.Confidence = models.ConfidenceManual
	}
	s.touch()
	return nil
}

// AttachProduct links a newly created catalog product to a scanned item
func (s *Session) AttachProduct(barcode string, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	it, _ := s.item(barcode)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, barcode)
	}
	it.ProductID = p.ID
	it.Name = p.Name
	it.Brand = p.Brand
	it.Category = p.Category
	for _, li := range it.MatchedLines {
		if li >= 0 && li < len(s.Lines) {
			s.Lines[li].MatchedProductID = p.ID
		}
	}
	if it.UnitCost == nil && p.DefaultPrice != nil {
		price := *p.DefaultPrice
		it.UnitCost = &price
		it.ManualCost = true
		it.Confidence = models.ConfidenceManual
	}
	s.touch()
	return nil
}

// Details are the purchase header fields entered by the user
type Details struct {
	StoreName     *string
	PurchaseDate  *time.Time
	DeclaredTotal *decimal.Decimal
	ClearTotal    bool
}

// SetDetails updates store name, purchase date and the declared receipt total
func (s *Session) SetDetails(d Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	if d.StoreName != nil {
		s.StoreName = strings.TrimSpace(*d.StoreName)
	}
	if d.PurchaseDate != nil {
		s.PurchaseDate = d.PurchaseDate.UTC()
	}
	if d.ClearTotal {
		s.DeclaredTotal = nil
	} else if d.DeclaredTotal != nil {
		if d.DeclaredTotal.IsNegative() {
			return fmt.Errorf("%w: receipt total must not be negative", ErrInvalidInput)
		}
		t := d.DeclaredTotal.Round(2)
		s.DeclaredTotal = &t
	}
	s.touch()
	return nil
}

// SetReceipt replaces the receipt lines with a new OCR pass. Every match tied
// to the old lines is dropped; typed costs stay. A detected total pre-fills
// the declared total when none was entered.
func (s *Session) SetReceipt(ext receipt.Extraction, imageURL, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	if s.Stage != StageScan && s.Stage != StageReceipt {
		return fmt.Errorf("%w: receipts are read in the receipt stage, session is in %s", ErrWrongStage, s.Stage)
	}

	for _, it := range s.Items {
		switch {
		case it.ManualCost:
			it.MatchedLines = nil
			it.MatchedText = ""
			it.Pinned = false
		case len(it.MatchedLines) > 0:
			it.clearMatch()
		}
	}
	s.Lines = append([]receipt.Line(nil), ext.Lines...)
	s.DetectedTotal = ext.Total
	if s.DeclaredTotal == nil && ext.Total != nil {
		t := *ext.Total
		s.DeclaredTotal = &t
	}
	if imageURL != "" {
		s.ReceiptImageURL = imageURL
	}
	s.OCRStatus = status
	s.touch()
	return nil
}

// View is a point-in-time copy of a session safe to serialize
type View struct {
	ID              string           `json:"id"`
	Stage           Stage            `json:"stage"`
	Purchaser       string           `json:"purchaser"`
	StoreName       string           `json:"store_name"`
	PurchaseDate    time.Time        `json:"purchase_date"`
	DeclaredTotal   *decimal.Decimal `json:"declared_total"`
	DetectedTotal   *decimal.Decimal `json:"detected_total,omitempty"`
	ReceiptImageURL string           `json:"receipt_image_url,omitempty"`
	OCRStatus       string           `json:"ocr_status,omitempty"`
	Items           []Item           `json:"items"`
	Lines           []receipt.Line   `json:"lines"`
	PurchaseID      uint             `json:"purchase_id,omitempty"`
	Notes           []string         `json:"notes,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Snapshot copies the session state
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	items := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		cp := *it
		cp.MatchedLines = append([]int(nil), it.MatchedLines...)
		items = append(items, cp)
	}
	return View{
		ID:              s.ID,
		Stage:           s.Stage,
		Purchaser:       s.Purchaser,
		StoreName:       s.StoreName,
		PurchaseDate:    s.PurchaseDate,
		DeclaredTotal:   s.DeclaredTotal,
		DetectedTotal:   s.DetectedTotal,
		ReceiptImageURL: s.ReceiptImageURL,
		OCRStatus:       s.OCRStatus,
		Items:           items,
		Lines:           append([]receipt.Line(nil), s.Lines...),
		PurchaseID:      s.PurchaseID,
		Notes:           append([]string(nil), s.Notes...),
		UpdatedAt:       s.UpdatedAt,
	}
}
