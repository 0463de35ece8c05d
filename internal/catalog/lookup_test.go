package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/logging"
)

const offBlackRifle = `{"product_name":"Black Rifle Coffee Murdered Out","brands":"Black Rifle Coffee Company","categories_tags":["en:snacks"],"image_front_small_url":"https://img/x.jpg","nutriscore_grade":"c"}`

func offServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v0/product/012345678905.json":
			_, _ = w.Write([]byte(`{"status":1,"product":` + offBlackRifle + `}`))
		case "/api/v0/product/000.json":
			_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
		case "/api/v0/product/500.json":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOpenFoodFactsLookup(t *testing.T) {
	srv := offServer(t)
	defer srv.Close()
	off := NewOpenFoodFacts(srv.URL+"/", time.Second)

	p, err := off.Lookup(context.Background(), "012345678905")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Black Rifle Coffee Murdered Out", p.ProductName)
	assert.Equal(t, "Black Rifle Coffee Company", p.Brands)
	assert.Equal(t, []string{"en:snacks"}, p.CategoriesTags)
	assert.Equal(t, "https://img/x.jpg", p.ImageURL)
	assert.JSONEq(t, offBlackRifle, string(p.Raw))

	p, err = off.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = off.Lookup(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = off.Lookup(context.Background(), "500")
	assert.Error(t, err)
}

func TestCachedLookupStoresHitsAndMisses(t *testing.T) {
	next := &fakeLookup{products: map[string]*ExternalProduct{
		"1": {ProductName: "Takis Fuego", Brands: "Takis", Raw: []byte(`{"product_name":"Takis Fuego"}`)},
	}}
	kv := &fakeKV{data: map[string]string{}}
	c := NewCachedLookup(next, kv, time.Hour, logging.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.Lookup(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Takis Fuego", p.ProductName)
		assert.JSONEq(t, `{"product_name":"Takis Fuego"}`, string(p.Raw))
	}
	for i := 0; i < 2; i++ {
		p, err := c.Lookup(ctx, "2")
		require.NoError(t, err)
		assert.Nil(t, p)
	}
	assert.Equal(t, 2, next.calls)
}

func TestCachedLookupSurvivesCacheFailure(t *testing.T) {
	next := &fakeLookup{products: map[string]*ExternalProduct{"1": {ProductName: "Gum"}}}
	c := NewCachedLookup(next, &fakeKV{data: map[string]string{}, failGet: true}, time.Hour, logging.Nop())

	p, err := c.Lookup(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Gum", p.ProductName)
}
