package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product categories recognised by the receiving flow
const (
	CategorySnack    = "snack"
	CategoryBeverage = "beverage"
	CategoryMeal     = "meal"
)

// Product is a local catalog entry keyed by barcode
type Product struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	Barcode      string               `gorm:"uniqueIndex;not null" json:"barcode"`
	Name         string               `gorm:"not null" json:"name"`
	Brand        string               `gorm:"index" json:"brand"`
	Category     string               `gorm:"not null;default:snack" json:"category"`
	DefaultPrice *decimal.Decimal     `gorm:"type:numeric(10,2)" json:"default_price,omitempty"`
	ImageURL     string               `json:"image_url,omitempty"`
	Source       string               `gorm:"default:manual" json:"source"` // manual, external
	LookupData   datatypes.JSON       `gorm:"type:jsonb" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}
