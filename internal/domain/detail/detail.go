// Package detail loads a single product for the detail screen.
package detail

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/internal/fetch"
)

// User-visible messages of the detail screen.
const (
	NotFoundMessage = "Product not found"
	ErrorMessage    = "Could not load product. Go back and try again."
)

// Fetcher fetches products by id. Concurrent fetches of the same id share
// one request.
type Fetcher struct {
	repo  catalog.Repository
	group singleflight.Group
}

// NewFetcher returns a Fetcher backed by repo.
func NewFetcher(repo catalog.Repository) *Fetcher {
	return &Fetcher{repo: repo}
}

// Fetch resolves id into Success, Failure (network) or NotFound. It never
// returns Idle or Loading. Cancelling ctx abandons only this caller's wait.
func (f *Fetcher) Fetch(ctx context.Context, id string) fetch.State[catalog.Product] {
	id = strings.TrimSpace(id)
	if id == "" {
		return fetch.NotFound[catalog.Product](catalog.ErrNotFound)
	}

	// The shared call outlives any single caller; the client bounds it with
	// its own timeout.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(id, func() (any, error) {
		return f.repo.ProductByID(shared, id)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return fetch.Failure[catalog.Product](ctx.Err())
	}
	if res.Shared {
		zctx.From(ctx).Debug("Shared product fetch", zap.String("id", id))
	}
	if res.Err != nil {
		return fetch.Resolve(catalog.Product{}, res.Err)
	}
	p, ok := res.Val.(*catalog.Product)
	if !ok || p == nil {
		return fetch.NotFound[catalog.Product](catalog.ErrNotFound)
	}
	return fetch.Success(*p)
}

// Phase tells the detail screen what to render.
type Phase uint8

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseNotFound
	PhaseReady
)

// View is the render-ready state of the detail screen.
type View struct {
	Phase    Phase
	Message  string
	Product  catalog.Product
	Carousel []string
	Price    string
	Stars    string
}

// DeriveView maps a product fetch state to a View.
func DeriveView(s fetch.State[catalog.Product]) View {
	switch s.Status {
	case fetch.StatusSuccess:
		p := s.Data
		return View{
			Phase:    PhaseReady,
			Product:  p,
			Carousel: p.Carousel(),
			Price:    catalog.FormatPrice(p.Price),
			Stars:    catalog.Stars(p.Rating),
		}
	case fetch.StatusNotFound:
		return View{Phase: PhaseNotFound, Message: NotFoundMessage}
	case fetch.StatusFailure:
		return View{Phase: PhaseError, Message: ErrorMessage}
	default:
		return View{Phase: PhaseLoading}
	}
}

// Screen is the state container of one detail screen instance. It fetches
// once per product id it is shown with; only the latest id may change the
// state.
type Screen struct {
	fetcher  *Fetcher
	onChange func()

	mu    sync.Mutex
	id    string
	seq   uint64
	state fetch.State[catalog.Product]

	inflight sync.WaitGroup
}

// NewScreen returns an idle Screen. onChange may be nil.
func NewScreen(fetcher *Fetcher, onChange func()) *Screen {
	if onChange == nil {
		onChange = func() {}
	}
	return &Screen{
		fetcher:  fetcher,
		onChange: onChange,
		state:    fetch.Idle[catalog.Product](),
	}
}

// Show receives the product id from navigation. A fetch is issued only when
// id differs from the one currently shown.
func (s *Screen) Show(ctx context.Context, id string) {
	s.mu.Lock()
	if id == s.id && s.state.Status != fetch.StatusIdle {
		s.mu.Unlock()
		return
	}
	s.id = id
	s.seq++
	seq := s.seq
	s.state = fetch.Loading[catalog.Product]()
	s.mu.Unlock()
	s.onChange()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		state := s.fetcher.Fetch(ctx, id)

		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		s.state = state
		s.mu.Unlock()

		if state.Status == fetch.StatusFailure {
			zctx.From(ctx).Warn("Product fetch failed", zap.String("id", id), zap.Error(state.Err))
		}
		s.onChange()
	}()
}

// ProductID returns the id the screen was last shown with.
func (s *Screen) ProductID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// View derives the current View.
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeriveView(s.state)
}

// Wait blocks until every issued fetch has resolved.
func (s *Screen) Wait() {
	s.inflight.Wait()
}
