package alias

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xelth-com/eckreceive/internal/models"
)

// GormRepository stores aliases in the receipt_aliases table
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository on db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns every alias ordered by id, which is insertion order
func (r *GormRepository) List(ctx context.Context) ([]Alias, error) {
	var rows []models.ReceiptAlias
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Alias, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// Create inserts a new alias
func (r *GormRepository) Create(ctx context.Context, a Alias) (Alias, error) {
	row := models.ReceiptAlias{
		StoreName:   a.StoreName,
		ReceiptText: a.Text,
		ProductID:   a.ProductID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Alias{}, err
	}
	return fromModel(row), nil
}

// Delete removes an alias by id
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ReceiptAlias{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alias %d: %w", id, ErrNotFound)
	}
	return nil
}

func fromModel(row models.ReceiptAlias) Alias {
	return Alias{
		ID:        row.ID,
		StoreName: row.StoreName,
		Text:      row.ReceiptText,
		ProductID: row.ProductID,
	}
}
