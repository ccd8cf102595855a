// Package browse drives the listing screen: it owns the category filter,
// issues catalog fetches on selection changes and derives the view state.
//
// Fetches run on their own goroutines and may resolve in any order. Every
// products request is tagged with a sequence number and only the latest one
// is allowed to change the state; older responses are dropped on arrival.
// Categories are guarded the same way against repeated activations.
package browse

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/internal/fetch"
)

// ErrUnknownCategory is returned by SelectSlug for slugs that are not in the
// fetched category list.
var ErrUnknownCategory = errors.New("unknown category")

// Stats counts products requests over the controller lifetime.
type Stats struct {
	Requested uint64
	Applied   uint64
	Stale     uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithMeterProvider records request and stale-response counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Controller) {
		c.meter = mp.Meter("github.com/xenking/shopeasy/internal/domain/browse")
	}
}

// WithOnChange registers fn to be called after every state change. fn runs
// outside the controller lock and should read the state through View.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller is the state container of the listing screen. Activate,
// SelectAll, SelectCategory, SelectSlug and SetSearchText are its only
// mutation entry points.
type Controller struct {
	repo     catalog.Repository
	meter    metric.Meter
	onChange func()

	requestCount metric.Int64Counter
	staleCount   metric.Int64Counter

	mu            sync.Mutex
	categories    fetch.State[[]catalog.Category]
	products      fetch.State[[]catalog.Product]
	requested     Selection
	active        Selection
	searchText    string
	categoriesSeq uint64
	productsSeq   uint64
	stats         Stats

	inflight sync.WaitGroup
}

// NewController returns an idle controller; call Activate when the screen is
// shown.
func NewController(repo catalog.Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:       repo,
		meter:      noop.NewMeterProvider().Meter(""),
		onChange:   func() {},
		categories: fetch.Idle[[]catalog.Category](),
		products:   fetch.Idle[[]catalog.Product](),
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.requestCount, err = c.meter.Int64Counter("browse.product_requests",
		metric.WithDescription("Products requests issued by the listing screen"),
	); err != nil {
		c.requestCount = noop.Int64Counter{}
	}
	if c.staleCount, err = c.meter.Int64Counter("browse.stale_responses",
		metric.WithDescription("Responses dropped because a newer request superseded them"),
	); err != nil {
		c.staleCount = noop.Int64Counter{}
	}
	return c
}

// Activate is the on-mount lifecycle event: it resets the filter and issues
// the categories fetch and the unfiltered products fetch.
func (c *Controller) Activate(ctx context.Context) {
	c.mu.Lock()
	c.requested = Selection{}
	c.active = Selection{}
	c.searchText = ""
	c.categoriesSeq++
	seq := c.categoriesSeq
	c.categories = fetch.Loading[[]catalog.Category]()
	c.mu.Unlock()

	c.inflight.Add(1)
	go c.loadCategories(ctx, seq)

	c.requestProducts(ctx, Selection{})
}

// SelectAll clears the category filter and refetches every product, even
// when All is already selected.
func (c *Controller) SelectAll(ctx context.Context) {
	c.requestProducts(ctx, Selection{})
}

// SelectCategory filters by category and fetches its products. Selecting the
// synthetic All category is the same as SelectAll.
func (c *Controller) SelectCategory(ctx context.Context, category catalog.Category) {
	c.requestProducts(ctx, selectionOf(category))
}

// SelectSlug resolves slug against the fetched categories and selects it.
// An empty slug or "all" selects All.
func (c *Controller) SelectSlug(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.EqualFold(slug, "all") {
		c.SelectAll(ctx)
		return nil
	}

	c.mu.Lock()
	var (
		found    catalog.Category
		ok       bool
		resolved = c.categories.Status == fetch.StatusSuccess
	)
	if resolved {
		for _, cat := range c.categories.Data {
			if cat.Slug == slug {
				found, ok = cat, true
				break
			}
		}
	}
	c.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrUnknownCategory, "%q", slug)
	}
	c.SelectCategory(ctx, found)
	return nil
}

// SetSearchText records the search box contents. It never filters the
// product list nor triggers a fetch.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	c.searchText = text
	c.mu.Unlock()
	c.onChange()
}

// View derives the current ListView.
func (c *Controller) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeriveList(c.categories, c.products, c.active, c.searchText)
}

// Selection returns the most recently requested selection, which may still
// be loading.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Stats returns request counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Wait blocks until every issued fetch has resolved, including superseded
// ones.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) requestProducts(ctx context.Context, sel Selection) {
	c.mu.Lock()
	c.productsSeq++
	seq := c.productsSeq
	c.requested = sel
	c.products = fetch.Loading[[]catalog.Product]()
	c.stats.Requested++
	c.mu.Unlock()

	c.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("browse.all", sel.IsAll())))
	c.onChange()

	c.inflight.Add(1)
	go c.loadProducts(ctx, seq, sel)
}

func (c *Controller) loadProducts(ctx context.Context, seq uint64, sel Selection) {
	defer c.inflight.Done()
	lg := zctx.From(ctx).With(zap.Uint64("seq", seq), zap.String("category", sel.Slug))

	products, err := c.repo.Products(ctx, sel.URL)

	c.mu.Lock()
	if seq != c.productsSeq {
		latest := c.productsSeq
		c.stats.Stale++
		c.mu.Unlock()

		c.staleCount.Add(ctx, 1, metric.WithAttributes(attribute.String("browse.resource", "products")))
		lg.Debug("Dropped stale products response", zap.Uint64("latest", latest))
		return
	}
	c.products = fetch.Resolve(products, err)
	if err == nil {
		c.active = sel
	}
	c.stats.Applied++
	c.mu.Unlock()

	if err != nil {
		lg.Warn("Products fetch failed", zap.Error(err))
	} else {
		lg.Debug("Products loaded", zap.Int("count", len(products)))
	}
	c.onChange()
}

func (c *Controller) loadCategories(ctx context.Context, seq uint64) {
	defer c.inflight.Done()
	lg := zctx.From(ctx).With(zap.Uint64("seq", seq))

	categories, err := c.repo.Categories(ctx)

	c.mu.Lock()
	if seq != c.categoriesSeq {
		c.mu.Unlock()

		c.staleCount.Add(ctx, 1, metric.WithAttributes(attribute.String("browse.resource", "categories")))
		lg.Debug("Dropped stale categories response")
		return
	}
	c.categories = fetch.Resolve(categories, err)
	c.mu.Unlock()

	if err != nil {
		lg.Warn("Categories fetch failed", zap.Error(err))
	}
	c.onChange()
}
