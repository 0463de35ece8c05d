package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase statuses
const (
	PurchaseReceived = "received"
)

// MovementPurchaseIn is the movement type written for received stock
const MovementPurchaseIn = "purchase_in"

// Purchase is the ledger header written when a receiving session is submitted
type Purchase struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PurchasedBy     string          `gorm:"not null" json:"purchased_by"`
	StoreName       string          `json:"store_name"`
	PurchaseDate    time.Time       `json:"purchase_date"`
	ReceiptImageURL string          `json:"receipt_image_url,omitempty"`
	ReceiptTotal    decimal.Decimal `gorm:"type:numeric(10,2)" json:"receipt_total"`
	Status          string          `gorm:"not null;default:received" json:"status"`

	Lines []PurchaseLine `gorm:"foreignKey:PurchaseID" json:"lines,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Purchase) TableName() string { return "purchases" }

// PurchaseLine is one priced product on a purchase
type PurchaseLine struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PurchaseID uint            `gorm:"not null;index" json:"purchase_id"`
	ProductID  string          `gorm:"not null;index" json:"product_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_cost"`
	Confidence string          `json:"confidence,omitempty"`
}

func (PurchaseLine) TableName() string { return "purchase_lines" }

// InventoryMovement records stock entering or leaving inventory
type InventoryMovement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    string    `gorm:"not null;index" json:"product_id"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	MovementType string    `gorm:"not null" json:"movement_type"`
	MovedBy      string    `json:"moved_by"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }
