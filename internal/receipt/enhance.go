package receipt

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const maxOCRSide = 3200

// Enhance prepares a receipt photo for OCR: grayscale, stronger contrast,
// sharpening and a size cap. The result is JPEG encoded.
func Enhance(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode receipt image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustGamma(img, 1.2)

	b := img.Bounds()
	if b.Dx() > maxOCRSide || b.Dy() > maxOCRSide {
		img = imaging.Fit(img, maxOCRSide, maxOCRSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode receipt image: %w", err)
	}
	return buf.Bytes(), nil
}
