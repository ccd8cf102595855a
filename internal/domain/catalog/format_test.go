package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"29.999", "$30.00"},
		{"29.994", "$29.99"},
		{"0", "$0.00"},
		{"9.5", "$9.50"},
		{"1.005", "$1.01"},
		{"1299", "$1299.00"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.price)))
		})
	}
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", Stars(decimal.RequireFromString("4.94")))
	assert.Equal(t, "☆☆☆☆☆", Stars(decimal.Zero))
	assert.Equal(t, "★★★★★", Stars(decimal.NewFromInt(5)))
	assert.Equal(t, "★★★★★", Stars(decimal.NewFromInt(7)))
	assert.Equal(t, "☆☆☆☆☆", Stars(decimal.NewFromInt(-1)))
}

func TestProduct_Carousel(t *testing.T) {
	p := Product{Thumbnail: "thumb.png"}
	assert.Equal(t, []string{"thumb.png"}, p.Carousel())

	p.Images = []string{"1.png", "2.png"}
	assert.Equal(t, []string{"1.png", "2.png"}, p.Carousel())

	assert.Nil(t, Product{}.Carousel())
}

func TestCategory_IsAll(t *testing.T) {
	assert.True(t, All.IsAll())
	assert.False(t, Category{Slug: "beauty"}.IsAll())
}
