package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// OpenFoodFacts queries the Open Food Facts product API
type OpenFoodFacts struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewOpenFoodFacts creates a client for baseURL, e.g. https://world.openfoodfacts.org
func NewOpenFoodFacts(baseURL string, timeout time.Duration) *OpenFoodFacts {
	return &OpenFoodFacts{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "eckreceive/1.0 (receiving)",
	}
}

type offResponse struct {
	Status  int             `json:"status"`
	Product json.RawMessage `json:"product"`
}

// Lookup fetches one product. Status 0 or a 404 is a miss.
func (o *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (*ExternalProduct, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", o.baseURL, url.PathEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open food facts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts returned status %d", resp.StatusCode)
	}

	var body offResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode open food facts response: %w", err)
	}
	if body.Status != 1 || len(body.Product) == 0 {
		return nil, nil
	}

	var p ExternalProduct
	if err := json.Unmarshal(body.Product, &p); err != nil {
		return nil, fmt.Errorf("failed to decode open food facts product: %w", err)
	}
	p.Raw = datatypes.JSON(body.Product)
	return &p, nil
}
