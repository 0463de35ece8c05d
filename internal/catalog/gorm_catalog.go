package catalog

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/xelth-com/eckreceive/internal/models"
)

// GormCatalog is the local products table
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog on db
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) FindByBarcode(ctx context.Context, barcode string) (Product, error) {
	var row models.Product
	err := c.db.WithContext(ctx).Where("barcode = ?", barcode).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return productFromModel(row), nil
}

func (c *GormCatalog) Create(ctx context.Context, p NewProduct) (Product, error) {
	row := models.Product{
		Barcode:      p.Barcode,
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		DefaultPrice: p.DefaultPrice,
		ImageURL:     p.ImageURL,
		Source:       string(p.Source),
		LookupData:   p.LookupData,
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Product{}, err
	}
	return productFromModel(row), nil
}

// Brands returns the distinct non-empty brands, alphabetically
func (c *GormCatalog) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := c.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand <> ''").
		Distinct("brand").
		Order("brand").
		Pluck("brand", &brands).Error
	return brands, err
}

func productFromModel(row models.Product) Product {
	return Product{
		ID:           strconv.FormatUint(uint64(row.ID), 10),
		Barcode:      row.Barcode,
		Name:         row.Name,
		Brand:        row.Brand,
		Category:     row.Category,
		DefaultPrice: row.DefaultPrice,
		ImageURL:     row.ImageURL,
	}
}
