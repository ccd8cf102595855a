// Package dummyjson implements catalog.Repository on top of a
// dummyjson-compatible HTTP catalog service.
package dummyjson

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/pkg/httpmiddleware"
)

const (
	// DefaultBaseURL is the public dummyjson deployment.
	DefaultBaseURL = "https://dummyjson.com"
	// DefaultTimeout bounds every request; the service has no SLA.
	DefaultTimeout = 10 * time.Second

	maxBodySize = 8 << 20
)

var _ catalog.Repository = (*Client)(nil)

// Config holds Client settings. Zero values select the defaults.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client reads categories and products from the catalog service.
// It never retries; every failure is reported once to the caller.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	tracer  trace.Tracer
}

// NewClient validates cfg and builds an instrumented Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	transport := otelhttp.NewTransport(
		&httpmiddleware.Transport{Base: cfg.Transport},
		otelhttp.WithTracerProvider(cfg.TracerProvider),
		otelhttp.WithMeterProvider(cfg.MeterProvider),
	)

	return &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: cfg.Timeout,
		http:    &http.Client{Transport: transport},
		tracer:  cfg.TracerProvider.Tracer("github.com/xenking/shopeasy/internal/storage/dummyjson"),
	}, nil
}

// Categories returns the full category list.
func (c *Client) Categories(ctx context.Context) (_ []catalog.Category, rerr error) {
	u := c.base + "/products/categories"
	ctx, span := c.tracer.Start(ctx, "dummyjson.Categories")
	defer func() { endSpan(span, rerr) }()

	body, err := c.getOK(ctx, "list categories", u)
	if err != nil {
		return nil, err
	}
	categories, err := decodeBody(body, decodeCategories)
	if err != nil {
		return nil, &catalog.NetworkError{Op: "list categories", URL: u, Err: errors.Wrap(err, "decode")}
	}
	span.SetAttributes(attribute.Int("catalog.categories", len(categories)))
	return categories, nil
}

// Products returns the unfiltered product collection when categoryURL is
// empty, otherwise the products served at categoryURL verbatim.
func (c *Client) Products(ctx context.Context, categoryURL string) (_ []catalog.Product, rerr error) {
	u := categoryURL
	if u == "" {
		u = c.base + "/products"
	}
	ctx, span := c.tracer.Start(ctx, "dummyjson.Products",
		trace.WithAttributes(attribute.String("catalog.category_url", categoryURL)),
	)
	defer func() { endSpan(span, rerr) }()

	body, err := c.getOK(ctx, "list products", u)
	if err != nil {
		return nil, err
	}
	products, err := decodeBody(body, decodeProductList)
	if err != nil {
		return nil, &catalog.NetworkError{Op: "list products", URL: u, Err: errors.Wrap(err, "decode")}
	}
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	return products, nil
}

// ProductByID returns a single product. A 400/404 status, or a success body
// that does not describe a product, yields catalog.ErrNotFound.
func (c *Client) ProductByID(ctx context.Context, id string) (_ *catalog.Product, rerr error) {
	if strings.TrimSpace(id) == "" {
		return nil, catalog.ErrNotFound
	}
	u := c.base + "/products/" + url.PathEscape(id)
	ctx, span := c.tracer.Start(ctx, "dummyjson.ProductByID",
		trace.WithAttributes(attribute.String("catalog.product_id", id)),
	)
	defer func() {
		if errors.Is(rerr, catalog.ErrNotFound) {
			span.End()
			return
		}
		endSpan(span, rerr)
	}()

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, &catalog.NetworkError{Op: "get product", URL: u, Err: err}
	}
	switch {
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		return nil, errors.Wrapf(catalog.ErrNotFound, "product %q", id)
	case !isSuccess(status):
		return nil, &catalog.NetworkError{Op: "get product", URL: u, Err: errors.Errorf("unexpected status %d", status)}
	}

	p, err := decodeBody(body, decodeProduct)
	if err != nil {
		zctx.From(ctx).Debug("Product body is not a product",
			zap.String("id", id),
			zap.Error(err),
		)
		return nil, errors.Wrapf(catalog.ErrNotFound, "product %q", id)
	}
	return &p, nil
}

// getOK performs a GET and converts transport errors and non-success
// statuses into *catalog.NetworkError.
func (c *Client) getOK(ctx context.Context, op, u string) ([]byte, error) {
	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, &catalog.NetworkError{Op: op, URL: u, Err: err}
	}
	if !isSuccess(status) {
		return nil, &catalog.NetworkError{Op: op, URL: u, Err: errors.Errorf("unexpected status %d", status)}
	}
	return body, nil
}

// get performs a bounded GET and returns the body and status code.
func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "read body")
	}

	zctx.From(ctx).Debug("Catalog request",
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)
	return body, resp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
