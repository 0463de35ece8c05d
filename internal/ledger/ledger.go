// Package ledger writes submitted receiving sessions to the purchase ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckreceive/internal/models"
)

// ErrNoLines is returned for a purchase without lines
var ErrNoLines = errors.New("purchase has no lines")

// Line is one priced product on a purchase
type Line struct {
	ProductID  string
	Quantity   int
	UnitCost   decimal.Decimal
	Confidence string
}

// Purchase is a submitted receiving session
type Purchase struct {
	PurchasedBy     string
	StoreName       string
	PurchaseDate    time.Time
	ReceiptImageURL string
	ReceiptTotal    decimal.Decimal
	Notes           string
	Lines           []Line
}

// Ledger persists purchases
type Ledger interface {
	Record(ctx context.Context, p Purchase) (uint, error)
}

// GormLedger writes the purchase header, its lines and one purchase_in
// movement per line in a single transaction.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a ledger on db
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Record(ctx context.Context, p Purchase) (uint, error) {
	if len(p.Lines) == 0 {
		return 0, ErrNoLines
	}

	header := models.Purchase{
		PurchasedBy:     p.PurchasedBy,
		StoreName:       p.StoreName,
		PurchaseDate:    p.PurchaseDate,
		ReceiptImageURL: p.ReceiptImageURL,
		ReceiptTotal:    p.ReceiptTotal,
		Status:          models.PurchaseReceived,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&header).Error; err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		for _, line := range p.Lines {
			pl := models.PurchaseLine{
				PurchaseID: header.ID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Confidence: line.Confidence,
			}
			if err := tx.Create(&pl).Error; err != nil {
				return fmt.Errorf("failed to create purchase line for product %s: %w", line.ProductID, err)
			}

			mv := models.InventoryMovement{
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				MovementType: models.MovementPurchaseIn,
				MovedBy:      p.PurchasedBy,
				Notes:        movementNote(header.ID, p),
			}
			if err := tx.Create(&mv).Error; err != nil {
				return fmt.Errorf("failed to record movement for product %s: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return header.ID, nil
}

func movementNote(purchaseID uint, p Purchase) string {
	note := fmt.Sprintf("purchase #%d", purchaseID)
	if p.StoreName != "" {
		note += " from " + p.StoreName
	}
	if p.Notes != "" {
		note += ": " + p.Notes
	}
	return note
}
