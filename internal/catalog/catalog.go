// Package catalog resolves scanned barcodes to products through the local
// catalog, an external product lookup and finally manual entry.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	// ErrNotFound is returned by a Catalog when no product carries the barcode
	ErrNotFound = errors.New("product not found")
	// ErrValidation wraps invalid product input
	ErrValidation = errors.New("invalid product")
	// ErrDuplicate is returned when creating a product whose barcode already exists
	ErrDuplicate = errors.New("product already exists")
)

// Source names where a resolution came from
type Source string

const (
	SourceDatabase Source = "database"
	SourceExternal Source = "external"
	SourceManual   Source = "manual"
)

// Product is a catalog entry as seen by the receiving flow
type Product struct {
	ID           string           `json:"id,omitempty"`
	Barcode      string           `json:"barcode"`
	Name         string           `json:"name"`
	Brand        string           `json:"brand,omitempty"`
	Category     string           `json:"category"`
	DefaultPrice *decimal.Decimal `json:"default_price,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
}

// NewProduct is the input for creating a catalog entry
type NewProduct struct {
	Barcode      string           `json:"barcode" validate:"required,max=64"`
	Name         string           `json:"name" validate:"required,max=200"`
	Brand        string           `json:"brand" validate:"max=120"`
	Category     string           `json:"category" validate:"omitempty,oneof=snack beverage meal"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	ImageURL     string           `json:"image_url" validate:"omitempty,url"`
	Source       Source           `json:"source" validate:"omitempty,oneof=external manual"`
	LookupData   datatypes.JSON   `json:"-"`
}

// Catalog is the product catalog service
type Catalog interface {
	FindByBarcode(ctx context.Context, barcode string) (Product, error)
	Create(ctx context.Context, p NewProduct) (Product, error)
	Brands(ctx context.Context) ([]string, error)
}

// ExternalProduct is what the public product lookup knows about a barcode
type ExternalProduct struct {
	ProductName    string   `json:"product_name"`
	Brands         string   `json:"brands"`
	CategoriesTags []string `json:"categories_tags"`
	ImageURL       string   `json:"image_front_small_url"`

	// Raw is the lookup's product object as received
	Raw datatypes.JSON `json:"raw,omitempty"`
}

// Lookup queries an external product database. A miss is (nil, nil).
type Lookup interface {
	Lookup(ctx context.Context, barcode string) (*ExternalProduct, error)
}
