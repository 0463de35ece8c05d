// Package assist asks an external model to pair the receipt lines and scanned
// items the deterministic phases left over.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/ai"
	"github.com/xelth-com/eckreceive/internal/models"
	"github.com/xelth-com/eckreceive/internal/utils"
)

// Line is an unmatched receipt line. Index is echoed back as receipt_index.
type Line struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Product is an unmatched scanned item
type Product struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Request is one batched assisted match call
type Request struct {
	Lines     []Line    `json:"ocrLines"`
	Products  []Product `json:"products"`
	StoreName string    `json:"storeName"`
}

// Match is one proposed pairing
type Match struct {
	ReceiptIndex int    `json:"receipt_index"`
	ProductID    string `json:"product_id"`
	Confidence   string `json:"confidence"`
	Reasoning    string `json:"reasoning"`
}

// Tier maps the model's confidence word to a confidence label. ok is false for
// "none" and unknown words.
func (m Match) Tier() (models.Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(m.Confidence)) {
	case "high":
		return models.ConfidenceAssistedHigh, true
	case "medium":
		return models.ConfidenceAssistedMedium, true
	case "low":
		return models.ConfidenceAssistedLow, true
	}
	return models.ConfidenceNone, false
}

// Matcher proposes pairings for leftover lines and products
type Matcher interface {
	Match(ctx context.Context, req Request) ([]Match, error)
}

// Generator produces schema-constrained JSON text
type Generator interface {
	GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error)
}

// GeminiMatcher is the Gemini-backed Matcher
type GeminiMatcher struct {
	gen Generator
}

// NewGeminiMatcher creates a matcher on gen
func NewGeminiMatcher(gen Generator) *GeminiMatcher {
	return &GeminiMatcher{gen: gen}
}

type matchResponse struct {
	Matches []Match `json:"matches"`
}

// Match sends all leftovers in a single call. Pairs naming unknown lines or
// products are dropped.
func (g *GeminiMatcher) Match(ctx context.Context, req Request) ([]Match, error) {
	if len(req.Lines) == 0 || len(req.Products) == 0 {
		return nil, nil
	}

	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode assisted match request: %w", err)
	}
	prompt := "Pair these receipt lines with these products.\n\n" + string(payload)

	raw, err := g.gen.GenerateJSON(ctx, ai.ReceiptMatchPrompt, prompt, ai.ReceiptMatchSchema)
	if err != nil {
		return nil, err
	}

	var resp matchResponse
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode assisted match response: %w", err)
	}

	lines := make(map[int]bool, len(req.Lines))
	for _, l := range req.Lines {
		lines[l.Index] = true
	}
	products := make(map[string]bool, len(req.Products))
	for _, p := range req.Products {
		products[p.ID] = true
	}

	out := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if lines[m.ReceiptIndex] && products[m.ProductID] {
			out = append(out, m)
		}
	}
	return out, nil
}
