// Package catalog defines the read-only catalog model shared by the listing
// and detail screens, together with the repository contract of the remote
// catalog service.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or the
// remote response cannot be read as a product.
var ErrNotFound = errors.New("product not found")

// NetworkError reports any failure talking to the catalog service: transport
// errors, timeouts, non-success statuses and malformed bodies alike.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Category is a product category as returned by the catalog service.
// The synthetic All category has an empty Slug and URL.
type Category struct {
	Slug string
	Name string
	URL  string
}

// All is the locally constructed pseudo-category that selects every product.
var All = Category{Name: "All"}

// IsAll reports whether c is the synthetic All category.
func (c Category) IsAll() bool {
	return c.Slug == ""
}

// Product is a read-only snapshot of a catalog item.
type Product struct {
	ID                 int64
	Title              string
	Description        string
	Category           string
	Brand              string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Rating             decimal.Decimal
	Stock              int
	Thumbnail          string
	Images             []string
}

// Repository defines read operations against the remote catalog.
type Repository interface {
	Categories(ctx context.Context) ([]Category, error)
	// Products lists products from categoryURL, or the whole catalog when
	// categoryURL is empty.
	Products(ctx context.Context, categoryURL string) ([]Product, error)
	ProductByID(ctx context.Context, id string) (*Product, error)
}
