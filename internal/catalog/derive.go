package catalog

import (
	"strings"

	"github.com/xelth-com/eckreceive/internal/models"
)

var (
	beverageKeywords = []string{"water", "soda", "juice", "tea", "coffee", "energy", "drink"}
	mealKeywords     = []string{"meal", "prepared", "sandwich"}
)

// DeriveBrandAndName splits external lookup data into a brand and a product name.
// The brand is the first comma-separated entry of brands, or the first word of
// the name when brands is empty. Leading name words repeating the brand are
// dropped from the name.
func DeriveBrandAndName(productName, brands string) (brand, name string) {
	name = strings.Join(strings.Fields(productName), " ")

	if first, _, _ := strings.Cut(brands, ","); strings.TrimSpace(first) != "" {
		brand = strings.Join(strings.Fields(first), " ")
		return brand, stripBrandWords(name, brand)
	}

	words := strings.Fields(name)
	if len(words) == 0 {
		return "", ""
	}
	brand = trimPossessive(words[0])
	if len(words) == 1 {
		return brand, name
	}
	return brand, strings.Join(words[1:], " ")
}

// stripBrandWords removes the leading words of name that repeat brand word for
// word. A possessive ("Reese's") counts as the bare word. The full name is kept
// when every word would be removed.
func stripBrandWords(name, brand string) string {
	nameWords := strings.Fields(name)
	brandWords := strings.Fields(brand)

	n := 0
	for n < len(nameWords) && n < len(brandWords) {
		if !strings.EqualFold(trimPossessive(nameWords[n]), trimPossessive(brandWords[n])) {
			break
		}
		n++
	}
	if n == 0 || n == len(nameWords) {
		return name
	}
	return strings.Join(nameWords[n:], " ")
}

func trimPossessive(word string) string {
	for _, suffix := range []string{"'s", "'S", "’s", "’S", "'"} {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix) {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}

// InferCategory guesses a product category from its name and lookup category
// tags. Beverage keywords are checked before meal keywords; anything else is a snack.
func InferCategory(name string, tags []string) string {
	text := strings.ToLower(name + " " + strings.Join(tags, " "))
	for _, kw := range beverageKeywords {
		if strings.Contains(text, kw) {
			return models.CategoryBeverage
		}
	}
	for _, kw := range mealKeywords {
		if strings.Contains(text, kw) {
			return models.CategoryMeal
		}
	}
	return models.CategorySnack
}
