// Package snapshot collects the whole catalog into one document, for offline
// inspection and fixtures.
package snapshot

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shopeasy/internal/domain/catalog"
)

// DefaultConcurrency bounds parallel category fetches.
const DefaultConcurrency = 4

// Section is one category with the ids of the products listed under it.
type Section struct {
	Category   catalog.Category
	ProductIDs []int64
}

// Catalog is a point-in-time copy of the remote catalog. Products are unique
// by id and sorted by id.
type Catalog struct {
	Sections   []Section
	Products   []catalog.Product
	Duplicates int
}

// Collect fetches the category list and then every category's products, at
// most concurrency at a time. Any failed fetch fails the whole collection.
func Collect(ctx context.Context, repo catalog.Repository, concurrency int) (*Catalog, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	lg := zctx.From(ctx)

	categories, err := repo.Categories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch categories")
	}
	lg.Info("Fetched categories", zap.Int("count", len(categories)))

	lists := make([][]catalog.Product, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, c := range categories {
		g.Go(func() error {
			products, err := repo.Products(gctx, c.URL)
			if err != nil {
				return errors.Wrapf(err, "fetch products of %q", c.Slug)
			}
			lg.Debug("Fetched category", zap.String("slug", c.Slug), zap.Int("products", len(products)))
			lists[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Catalog{Sections: make([]Section, len(categories))}
	seen := make(map[int64]struct{})
	for i, c := range categories {
		s := Section{Category: c, ProductIDs: make([]int64, 0, len(lists[i]))}
		for _, p := range lists[i] {
			s.ProductIDs = append(s.ProductIDs, p.ID)
			if _, ok := seen[p.ID]; ok {
				out.Duplicates++
				continue
			}
			seen[p.ID] = struct{}{}
			out.Products = append(out.Products, p)
		}
		out.Sections[i] = s
	}
	sort.Slice(out.Products, func(i, j int) bool {
		return out.Products[i].ID < out.Products[j].ID
	})
	return out, nil
}

// Write encodes c as JSON.
func Write(w io.Writer, c *Catalog) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("categories")
	e.ArrStart()
	for _, s := range c.Sections {
		e.ObjStart()
		e.FieldStart("slug")
		e.Str(s.Category.Slug)
		e.FieldStart("name")
		e.Str(s.Category.Name)
		e.FieldStart("url")
		e.Str(s.Category.URL)
		e.FieldStart("products")
		e.ArrStart()
		for _, id := range s.ProductIDs {
			e.Int64(id)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("products")
	e.ArrStart()
	for _, p := range c.Products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
	e.ObjEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	return nil
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("brand")
	e.Str(p.Brand)
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("discountPercentage")
	e.Num(jx.Num(p.DiscountPercentage.String()))
	e.FieldStart("rating")
	e.Num(jx.Num(p.Rating.String()))
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("thumbnail")
	e.Str(p.Thumbnail)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(img)
	}
	e.ArrEnd()
	e.ObjEnd()
}

// Create opens path for writing a snapshot. Paths ending in .gz are
// compressed with parallel gzip.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create snapshot file")
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	return &gzipFile{Writer: pgzip.NewWriter(f), file: f}, nil
}

type gzipFile struct {
	*pgzip.Writer
	file *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Writer.Close(); err != nil {
		_ = g.file.Close()
		return errors.Wrap(err, "flush gzip")
	}
	return g.file.Close()
}
