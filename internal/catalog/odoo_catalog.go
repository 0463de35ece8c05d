package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/models"
)

const (
	odooProductModel  = "product.product"
	odooCategoryModel = "product.category"
)

var odooProductFields = []string{"id", "name", "barcode", "list_price", "categ_id"}

// OdooClient is the part of the Odoo XML-RPC client the catalog needs
type OdooClient interface {
	SearchRead(model string, domain []interface{}, fields []string, limit int, result interface{}) error
	Create(model string, values map[string]interface{}) (int64, error)
}

type odooProduct struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Barcode   models.OdooString   `json:"barcode"`
	ListPrice float64             `json:"list_price"`
	Category  models.OdooRelation `json:"categ_id"`
}

type odooCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OdooCatalog reads and creates products in Odoo. Odoo has no brand field
// without add-ons, so Brands is always empty. Categories survive a round trip
// only when Odoo has a product category of the same name; product images are
// not written.
type OdooCatalog struct {
	client OdooClient
}

// NewOdooCatalog creates a catalog backed by Odoo's product.product model
func NewOdooCatalog(client OdooClient) *OdooCatalog {
	return &OdooCatalog{client: client}
}

func (c *OdooCatalog) FindByBarcode(ctx context.Context, barcode string) (Product, error) {
	var rows []odooProduct
	domain := []interface{}{[]interface{}{"barcode", "=", barcode}}
	if err := c.client.SearchRead(odooProductModel, domain, odooProductFields, 1, &rows); err != nil {
		return Product{}, err
	}
	if len(rows) == 0 {
		return Product{}, ErrNotFound
	}
	return rows[0].toProduct(), nil
}

func (c *OdooCatalog) Create(ctx context.Context, p NewProduct) (Product, error) {
	values := map[string]interface{}{
		"name":    p.Name,
		"barcode": p.Barcode,
	}
	if p.DefaultPrice != nil {
		values["list_price"] = p.DefaultPrice.InexactFloat64()
	}
	if p.Category != "" {
		var cats []odooCategory
		domain := []interface{}{[]interface{}{"name", "=ilike", p.Category}}
		if err := c.client.SearchRead(odooCategoryModel, domain, []string{"id", "name"}, 1, &cats); err != nil {
			return Product{}, err
		}
		if len(cats) > 0 {
			values["categ_id"] = cats[0].ID
		}
	}

	id, err := c.client.Create(odooProductModel, values)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:           strconv.FormatInt(id, 10),
		Barcode:      p.Barcode,
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		DefaultPrice: p.DefaultPrice,
		ImageURL:     p.ImageURL,
	}, nil
}

func (c *OdooCatalog) Brands(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (p odooProduct) toProduct() Product {
	out := Product{
		ID:       strconv.FormatInt(p.ID, 10),
		Barcode:  p.Barcode.String(),
		Name:     p.Name,
		Category: odooCategoryName(p.Category.Name),
	}
	if p.ListPrice > 0 {
		price := decimal.NewFromFloat(p.ListPrice).Round(2)
		out.DefaultPrice = &price
	}
	return out
}

// odooCategoryName maps an Odoo category path such as "All / Beverage" to a
// receiving category, falling back to keyword inference
func odooCategoryName(path string) string {
	leaf := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		leaf = path[i+1:]
	}
	switch c := strings.ToLower(strings.TrimSpace(leaf)); c {
	case models.CategorySnack, models.CategoryBeverage, models.CategoryMeal:
		return c
	}
	return InferCategory(path, nil)
}
