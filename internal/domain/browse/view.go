package browse

import (
	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/internal/fetch"
)

// ProductsErrorMessage is shown inline when the product list fails to load.
const ProductsErrorMessage = "Could not load products. Pick a category to try again."

// Phase tells the listing screen what to render.
type Phase uint8

const (
	// PhaseLoading renders a full-screen spinner.
	PhaseLoading Phase = iota
	// PhaseError renders an inline error message and no products.
	PhaseError
	// PhaseReady renders the category strip and product grid.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Selection is the category filter. The zero value selects All.
type Selection struct {
	Slug string
	URL  string
}

// IsAll reports whether no concrete category is selected.
func (s Selection) IsAll() bool {
	return s.Slug == ""
}

func selectionOf(c catalog.Category) Selection {
	if c.IsAll() {
		return Selection{}
	}
	return Selection{Slug: c.Slug, URL: c.URL}
}

// Chip is one entry of the category strip.
type Chip struct {
	catalog.Category
	Active bool
}

// ListView is the render-ready state of the listing screen.
type ListView struct {
	Phase   Phase
	Message string
	// Categories starts with the synthetic All chip. Only set when ready.
	Categories []Chip
	Products   []catalog.Product
	// HighlightedSlug is the slug of the active chip, empty when All is
	// highlighted.
	HighlightedSlug string
	SearchText      string
}

// DeriveList combines the fetch states and the applied selection into a
// ListView. It has no side effects.
func DeriveList(
	categories fetch.State[[]catalog.Category],
	products fetch.State[[]catalog.Product],
	active Selection,
	searchText string,
) ListView {
	switch products.Status {
	case fetch.StatusIdle, fetch.StatusLoading:
		return ListView{Phase: PhaseLoading, SearchText: searchText}
	case fetch.StatusFailure, fetch.StatusNotFound:
		return ListView{Phase: PhaseError, Message: ProductsErrorMessage, SearchText: searchText}
	}

	var fetched []catalog.Category
	if categories.Status == fetch.StatusSuccess {
		fetched = categories.Data
	}
	chips := make([]Chip, 1, len(fetched)+1)
	chips[0] = Chip{Category: catalog.All}
	highlighted := ""
	for _, c := range fetched {
		on := !active.IsAll() && c.Slug == active.Slug
		if on {
			highlighted = c.Slug
		}
		chips = append(chips, Chip{Category: c, Active: on})
	}
	// A selection without a chip in the strip highlights All, so exactly one
	// chip is always active.
	chips[0].Active = highlighted == ""

	return ListView{
		Phase:           PhaseReady,
		Categories:      chips,
		Products:        products.Data,
		HighlightedSlug: highlighted,
		SearchText:      searchText,
	}
}
