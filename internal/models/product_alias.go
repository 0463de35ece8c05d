package models

import (
	"time"
)

// ReceiptAlias links receipt text, optionally scoped to one store, to a product.
// Rows are never de-duplicated; load order decides which alias wins.
type ReceiptAlias struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	StoreName   *string `gorm:"index:idx_receipt_alias_store" json:"store_name"`
	ReceiptText string  `gorm:"not null" json:"receipt_text"`
	ProductID   string  `gorm:"not null;index" json:"product_id"`
	CreatedBy   string  `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ReceiptAlias) TableName() string {
	return "receipt_aliases"
}
