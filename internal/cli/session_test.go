package cli

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopeasy/internal/domain/browse"
	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/internal/domain/detail"
	"github.com/xenking/shopeasy/internal/domain/profile"
)

var (
	beauty     = catalog.Category{Slug: "beauty", Name: "Beauty", URL: "http://catalog/products/category/beauty"}
	fragrances = catalog.Category{Slug: "fragrances", Name: "Fragrances", URL: "http://catalog/products/category/fragrances"}
)

type stubRepo struct {
	products    []catalog.Product
	productsErr error
}

func (r *stubRepo) Categories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{beauty, fragrances}, nil
}

func (r *stubRepo) Products(_ context.Context, categoryURL string) ([]catalog.Product, error) {
	if r.productsErr != nil {
		return nil, r.productsErr
	}
	var out []catalog.Product
	for _, p := range r.products {
		if categoryURL == "" || strings.HasSuffix(categoryURL, "/"+p.Category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) ProductByID(_ context.Context, id string) (*catalog.Product, error) {
	for i := range r.products {
		if strconv.FormatInt(r.products[i].ID, 10) == id {
			return &r.products[i], nil
		}
	}
	return nil, errors.Wrapf(catalog.ErrNotFound, "product %q", id)
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: []catalog.Product{
		{
			ID:          1,
			Title:       "Essence Mascara",
			Description: "Volumizing mascara",
			Category:    "beauty",
			Brand:       "Essence",
			Price:       decimal.RequireFromString("9.99"),
			Rating:      decimal.RequireFromString("4.94"),
			Images:      []string{"https://img/1a.png", "https://img/1b.png"},
		},
		{
			ID:       2,
			Title:    "Chanel Coco Noir",
			Category: "fragrances",
			Price:    decimal.RequireFromString("129.999"),
			Rating:   decimal.RequireFromString("2.5"),
		},
	}}
}

func newTestSession(repo catalog.Repository) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	s := NewSession(
		browse.NewController(repo),
		detail.NewScreen(detail.NewFetcher(repo), nil),
		profile.NewEditor(profile.Profile{
			Name:  "John Doe",
			Email: "johndoe@example.com",
			Photo: "https://i.pravatar.cc/150",
		}),
		&out,
	)
	return s, &out
}

func TestSession_Run(t *testing.T) {
	s, out := newTestSession(newStubRepo())

	script := strings.Join([]string{
		"cat fragrances",
		"search perfume",
		"open 2",
		"quit",
		"all",
	}, "\n")
	require.NoError(t, s.Run(context.Background(), strings.NewReader(script)))

	got := out.String()
	assert.Contains(t, got, "[All]  Beauty  Fragrances")
	assert.Contains(t, got, "All  Beauty  [Fragrances]")
	assert.Contains(t, got, "Search: perfume")
	assert.Contains(t, got, "$130.00  ★★☆☆☆")
	// Commands after quit are not executed.
	assert.Equal(t, 1, strings.Count(got, "[All]"))
}

func TestSession_RunEndOfInput(t *testing.T) {
	s, out := newTestSession(newStubRepo())

	require.NoError(t, s.Run(context.Background(), strings.NewReader("")))
	assert.Contains(t, out.String(), "Essence Mascara")
}

func TestSession_ProductsFailure(t *testing.T) {
	repo := newStubRepo()
	repo.productsErr = &catalog.NetworkError{Op: "get products", URL: "http://catalog/products", Err: errors.New("refused")}
	s, out := newTestSession(repo)

	require.NoError(t, s.Run(context.Background(), strings.NewReader("")))
	assert.Contains(t, out.String(), browse.ProductsErrorMessage)
	assert.NotContains(t, out.String(), "Essence Mascara")
}

func TestSession_Exec(t *testing.T) {
	ctx := context.Background()
	s, out := newTestSession(newStubRepo())
	s.browse.Activate(ctx)
	s.browse.Wait()

	exec := func(line string) string {
		t.Helper()
		out.Reset()
		require.NoError(t, s.Exec(ctx, line))
		return out.String()
	}

	assert.Contains(t, exec("cat nope"), `Unknown category "nope"`)
	assert.Contains(t, exec("frobnicate"), `Unknown command "frobnicate"`)
	assert.Contains(t, exec("help"), "Commands:")

	got := exec("open 1")
	assert.Contains(t, got, "Essence Mascara")
	assert.Contains(t, got, "$9.99  ★★★★☆")
	assert.Contains(t, got, "  2. https://img/1b.png")

	assert.Contains(t, exec("open 404"), detail.NotFoundMessage)
	assert.Contains(t, exec("open"), "Usage: open <id>")
	assert.Contains(t, exec("back"), "[All]")

	require.ErrorIs(t, s.Exec(ctx, "exit"), ErrQuit)
}

func TestSession_Profile(t *testing.T) {
	ctx := context.Background()
	s, out := newTestSession(newStubRepo())

	exec := func(line string) string {
		t.Helper()
		out.Reset()
		require.NoError(t, s.Exec(ctx, line))
		return out.String()
	}

	assert.Contains(t, exec("profile"), "Name:  John Doe")
	assert.Contains(t, exec("profile set name Jane"), "run 'profile edit' first")
	assert.Contains(t, exec("profile edit"), "Editing profile")

	exec("profile set name Jane Roe")
	assert.Contains(t, exec("profile set email broken"), "Email: broken")
	assert.Contains(t, exec("profile save"), "Error: email is invalid")

	exec("profile set email jane@example.com")
	exec("profile set photo file:///tmp/me.jpg")
	got := exec("profile save")
	assert.NotContains(t, got, "Editing profile")
	assert.Contains(t, got, "Name:  Jane Roe")
	assert.Contains(t, got, "Photo: file:///tmp/me.jpg")

	exec("profile edit")
	exec("profile set name Someone Else")
	assert.Contains(t, exec("profile cancel"), "Name:  Jane Roe")
}
