package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckreceive/internal/brand"
	"github.com/xelth-com/eckreceive/internal/metrics"
	"github.com/xelth-com/eckreceive/internal/models"
)

// Resolution is the outcome of resolving one barcode
type Resolution struct {
	Found      bool          `json:"found"`
	Source     Source        `json:"source"`
	Product    Product       `json:"product"`
	BrandMatch *brand.Result `json:"brand_match,omitempty"`

	// LookupData is the external lookup payload behind an external resolution
	LookupData datatypes.JSON `json:"-"`
}

// Resolver consults the local catalog, then the external lookup, then gives up
// to manual entry.
type Resolver struct {
	catalog  Catalog
	external Lookup
	validate *validator.Validate
	log      *zap.SugaredLogger
}

// NewResolver creates a resolver. external may be nil.
func NewResolver(catalog Catalog, external Lookup, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		catalog:  catalog,
		external: external,
		validate: validator.New(),
		log:      log,
	}
}

// Resolve looks up barcode. Catalog misses are results, not errors; external
// lookup failures are logged and treated as misses.
func (r *Resolver) Resolve(ctx context.Context, barcode string) (Resolution, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Resolution{}, fmt.Errorf("%w: barcode is required", ErrValidation)
	}

	p, err := r.catalog.FindByBarcode(ctx, barcode)
	switch {
	case err == nil:
		metrics.CatalogResolutions.WithLabelValues(string(SourceDatabase)).Inc()
		return Resolution{Found: true, Source: SourceDatabase, Product: p}, nil
	case !errors.Is(err, ErrNotFound):
		return Resolution{}, fmt.Errorf("catalog lookup for %s: %w", barcode, err)
	}

	if res, ok := r.resolveExternal(ctx, barcode); ok {
		metrics.CatalogResolutions.WithLabelValues(string(SourceExternal)).Inc()
		return res, nil
	}

	metrics.CatalogResolutions.WithLabelValues(string(SourceManual)).Inc()
	return Resolution{
		Source:  SourceManual,
		Product: Product{Barcode: barcode},
	}, nil
}

func (r *Resolver) resolveExternal(ctx context.Context, barcode string) (Resolution, bool) {
	if r.external == nil {
		return Resolution{}, false
	}

	ext, err := r.external.Lookup(ctx, barcode)
	if err != nil {
		r.log.Warnw("external product lookup failed", "barcode", barcode, "error", err)
		return Resolution{}, false
	}
	if ext == nil {
		return Resolution{}, false
	}

	brandName, name := DeriveBrandAndName(ext.ProductName, ext.Brands)
	product := Product{
		Barcode:  barcode,
		Name:     name,
		Brand:    brandName,
		Category: InferCategory(name, ext.CategoriesTags),
		ImageURL: ext.ImageURL,
	}

	var match *brand.Result
	if brandName != "" {
		existing, err := r.catalog.Brands(ctx)
		if err != nil {
			r.log.Warnw("failed to load brand vocabulary", "error", err)
		}
		res := brand.Normalize(brandName, existing)
		if res.Match != "" {
			product.Brand = res.Match
		}
		match = &res
	}

	return Resolution{Source: SourceExternal, Product: product, BrandMatch: match, LookupData: ext.Raw}, true
}

// CreateProduct validates p and saves it as a new catalog entry
func (r *Resolver) CreateProduct(ctx context.Context, p NewProduct) (Product, error) {
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Category == "" {
		p.Category = models.CategorySnack
	}
	if p.Source == "" {
		p.Source = SourceManual
	}

	if err := r.validate.Struct(p); err != nil {
		return Product{}, fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	if p.DefaultPrice != nil && p.DefaultPrice.IsNegative() {
		return Product{}, fmt.Errorf("%w: default_price must not be negative", ErrValidation)
	}

	if _, err := r.catalog.FindByBarcode(ctx, p.Barcode); err == nil {
		return Product{}, fmt.Errorf("%w: barcode %s", ErrDuplicate, p.Barcode)
	} else if !errors.Is(err, ErrNotFound) {
		return Product{}, fmt.Errorf("catalog lookup for %s: %w", p.Barcode, err)
	}

	created, err := r.catalog.Create(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	r.log.Infow("product created", "id", created.ID, "barcode", created.Barcode, "name", created.Name)
	return created, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
