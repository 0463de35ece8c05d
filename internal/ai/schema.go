package ai

import "github.com/google/generative-ai-go/genai"

// ReceiptMatchSchema constrains Gemini output to the receipt matching contract
var ReceiptMatchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"matches": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"receipt_index": {Type: genai.TypeInteger},
					"product_id":    {Type: genai.TypeString},
					"confidence": {
						Type: genai.TypeString,
						Enum: []string{"high", "medium", "low", "none"},
					},
					"reasoning": {Type: genai.TypeString},
				},
				Required: []string{"receipt_index", "product_id", "confidence"},
			},
		},
	},
	Required: []string{"matches"},
}
