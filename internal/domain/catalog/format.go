package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxRating = decimal.NewFromInt(5)
	zero      = decimal.Zero
)

// FormatPrice renders a price with two decimal places, rounding half away
// from zero: 29.999 becomes "$30.00".
func FormatPrice(price decimal.Decimal) string {
	return "$" + price.StringFixed(2)
}

// ClampRating bounds a rating to the [0, 5] range.
func ClampRating(rating decimal.Decimal) decimal.Decimal {
	if rating.LessThan(zero) {
		return zero
	}
	if rating.GreaterThan(maxRating) {
		return maxRating
	}
	return rating
}

// Stars renders a rating as five stars, filled up to the floor of the rating.
func Stars(rating decimal.Decimal) string {
	filled := int(ClampRating(rating).Floor().IntPart())
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// Carousel returns the images shown on the detail screen. Products without
// images fall back to their thumbnail.
func (p Product) Carousel() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Thumbnail != "" {
		return []string{p.Thumbnail}
	}
	return nil
}
