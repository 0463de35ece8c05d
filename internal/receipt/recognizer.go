package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// ErrNoRecognizer is returned when OCR is not configured
var ErrNoRecognizer = errors.New("no OCR recognizer configured")

// Recognizer reads text from a receipt image
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// AzureRecognizer runs Azure Computer Vision printed text recognition
type AzureRecognizer struct {
	client  computervision.BaseClient
	enhance bool
}

// NewAzureRecognizer creates a recognizer for the given Cognitive Services endpoint
func NewAzureRecognizer(endpoint, apiKey string, enhance bool) *AzureRecognizer {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureRecognizer{client: client, enhance: enhance}
}

// Recognize returns the receipt text with one printed row per line
func (r *AzureRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	data := image
	if r.enhance {
		if enhanced, err := Enhance(image); err == nil {
			data = enhanced
		}
	}

	result, err := r.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(data)),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", fmt.Errorf("failed to recognize receipt text: %w", err)
	}

	return AssembleRows(fragmentsFromOCR(result)), nil
}

func fragmentsFromOCR(result computervision.OcrResult) []TextFragment {
	if result.Regions == nil {
		return nil
	}

	var frags []TextFragment
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil || line.BoundingBox == nil {
				continue
			}
			box := parseBox(*line.BoundingBox)
			if len(box) < 4 {
				continue
			}

			var words []string
			for _, w := range *line.Words {
				if w.Text != nil {
					words = append(words, *w.Text)
				}
			}
			frags = append(frags, TextFragment{
				Text:   strings.Join(words, " "),
				X:      box[0],
				Y:      box[1],
				Height: box[3],
			})
		}
	}
	return frags
}

// parseBox reads Azure's "x,y,width,height" bounding box
func parseBox(s string) []int {
	parts := strings.Split(s, ",")
	box := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		box = append(box, v)
	}
	return box
}
