package dummyjson

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopeasy/internal/domain/catalog"
)

// decodeBody runs fn over body, which must hold exactly one JSON value.
func decodeBody[T any](body []byte, fn func(d *jx.Decoder) (T, error)) (T, error) {
	if !jx.Valid(body) {
		var zero T
		return zero, errors.New("invalid json")
	}
	return fn(jx.DecodeBytes(body))
}

// decodeCategories reads a JSON array of {slug, name, url} objects.
func decodeCategories(d *jx.Decoder) ([]catalog.Category, error) {
	categories := make([]catalog.Category, 0, 32)
	if err := d.Arr(func(d *jx.Decoder) error {
		var c catalog.Category
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "slug":
				c.Slug, err = d.Str()
			case "name":
				c.Name, err = d.Str()
			case "url":
				c.URL, err = d.Str()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			return nil
		}); err != nil {
			return err
		}
		if c.Slug == "" {
			return errors.New("category without slug")
		}
		if c.Name == "" {
			c.Name = c.Slug
		}
		categories = append(categories, c)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "categories")
	}
	return categories, nil
}

// decodeProductList reads the {products: [...], total, skip, limit} envelope.
// A body without a products field yields an empty list.
func decodeProductList(d *jx.Decoder) ([]catalog.Product, error) {
	products := []catalog.Product{}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeProduct(d)
			if err != nil {
				return errors.Wrapf(err, "product %d", len(products))
			}
			products = append(products, p)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "product list")
	}
	return products, nil
}

// decodeProduct reads a single product object, skipping fields the client
// does not use (reviews, dimensions, meta...).
func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "title":
			p.Title, err = optString(d)
		case "description":
			p.Description, err = optString(d)
		case "category":
			p.Category, err = optString(d)
		case "brand":
			p.Brand, err = optString(d)
		case "thumbnail":
			p.Thumbnail, err = optString(d)
		case "price":
			p.Price, err = decimalValue(d)
		case "discountPercentage":
			p.DiscountPercentage, err = decimalValue(d)
		case "rating":
			p.Rating, err = decimalValue(d)
		case "stock":
			p.Stock, err = d.Int()
		case "images":
			p.Images, err = stringArray(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return catalog.Product{}, err
	}

	if p.ID <= 0 {
		return catalog.Product{}, errors.Errorf("invalid product id %d", p.ID)
	}
	if p.Price.IsNegative() {
		return catalog.Product{}, errors.Errorf("negative price %s", p.Price)
	}
	p.Rating = catalog.ClampRating(p.Rating)
	if len(p.Images) == 0 && p.Thumbnail != "" {
		p.Images = []string{p.Thumbnail}
	}
	return p, nil
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decimalValue reads a JSON number (or numeric string) without going through
// float64, so 29.999 stays exact.
func decimalValue(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	}
}

func stringArray(d *jx.Decoder) ([]string, error) {
	var out []string
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	if err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		if s != "" {
			out = append(out, s)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
