package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]Product
	brands   []string
	findErr  error
}

func newFakeCatalog(products ...Product) *fakeCatalog {
	c := &fakeCatalog{products: map[string]Product{}}
	for _, p := range products {
		c.products[p.Barcode] = p
	}
	return c
}

func (c *fakeCatalog) FindByBarcode(ctx context.Context, barcode string) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return Product{}, c.findErr
	}
	p, ok := c.products[barcode]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (c *fakeCatalog) Create(ctx context.Context, np NewProduct) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Product{
		ID:           strconv.Itoa(len(c.products) + 1),
		Barcode:      np.Barcode,
		Name:         np.Name,
		Brand:        np.Brand,
		Category:     np.Category,
		DefaultPrice: np.DefaultPrice,
		ImageURL:     np.ImageURL,
	}
	c.products[p.Barcode] = p
	return p, nil
}

func (c *fakeCatalog) Brands(ctx context.Context) ([]string, error) {
	return c.brands, nil
}

type fakeLookup struct {
	products map[string]*ExternalProduct
	err      error
	calls    int
}

func (l *fakeLookup) Lookup(ctx context.Context, barcode string) (*ExternalProduct, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.products[barcode], nil
}

type fakeKV struct {
	data    map[string]string
	failGet bool
}

func (k *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	if k.failGet {
		return "", false, errors.New("connection refused")
	}
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	k.data[key] = value
	return nil
}
