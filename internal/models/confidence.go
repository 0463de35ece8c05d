package models

// Confidence labels how a unit cost was attached to a scanned item
type Confidence string

const (
	ConfidenceNone           Confidence = "none"
	ConfidenceAlias          Confidence = "alias"
	ConfidenceFuzzyHigh      Confidence = "fuzzy-high"
	ConfidenceFuzzyMedium    Confidence = "fuzzy-medium"
	ConfidenceFuzzyLow       Confidence = "fuzzy-low"
	ConfidenceAssistedHigh   Confidence = "assisted-high"
	ConfidenceAssistedMedium Confidence = "assisted-medium"
	ConfidenceAssistedLow    Confidence = "assisted-low"
	ConfidenceManual         Confidence = "manual"
)

// Learnable reports whether a match of this tier should offer to be remembered as an alias
func (c Confidence) Learnable() bool {
	switch c {
	case ConfidenceFuzzyHigh, ConfidenceFuzzyMedium, ConfidenceFuzzyLow,
		ConfidenceAssistedHigh, ConfidenceAssistedMedium, ConfidenceAssistedLow:
		return true
	}
	return false
}
