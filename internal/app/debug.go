package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/shopeasy/internal/domain/browse"
	"github.com/xenking/shopeasy/internal/domain/catalog"
	"github.com/xenking/shopeasy/pkg/health"
	"github.com/xenking/shopeasy/pkg/httpmiddleware"
)

// debugHandler routes the probes and the listing view dump.
func debugHandler(lg *zap.Logger, hl *health.Health, c *browse.Controller) http.Handler {
	r := chi.NewRouter()
	r.Get("/livez", hl.LiveEndpoint)
	r.Get("/readyz", hl.ReadyEndpoint)
	r.Get("/debug/view", viewEndpoint(c))

	return httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.ServerTiming(),
	)
}

func viewEndpoint(c *browse.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timing := httpmiddleware.StartTiming(r.Context(), "view", "Derive and encode list view")
		var e jx.Encoder
		encodeListView(&e, c.View(), c.Stats())
		timing.Stop()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(e.Bytes())
	}
}

func encodeListView(e *jx.Encoder, v browse.ListView, st browse.Stats) {
	e.ObjStart()
	e.FieldStart("phase")
	e.Str(v.Phase.String())
	if v.Message != "" {
		e.FieldStart("message")
		e.Str(v.Message)
	}
	e.FieldStart("search_text")
	e.Str(v.SearchText)
	e.FieldStart("highlighted")
	e.Str(v.HighlightedSlug)

	e.FieldStart("categories")
	e.ArrStart()
	for _, c := range v.Categories {
		e.ObjStart()
		e.FieldStart("slug")
		e.Str(c.Slug)
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("active")
		e.Bool(c.Active)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("products")
	e.ArrStart()
	for _, p := range v.Products {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("title")
		e.Str(p.Title)
		e.FieldStart("price")
		e.Str(catalog.FormatPrice(p.Price))
		e.FieldStart("stars")
		e.Str(catalog.Stars(p.Rating))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("stats")
	e.ObjStart()
	e.FieldStart("requested")
	e.UInt64(st.Requested)
	e.FieldStart("applied")
	e.UInt64(st.Applied)
	e.FieldStart("stale")
	e.UInt64(st.Stale)
	e.ObjEnd()

	e.ObjEnd()
}

// serveDebug runs srv until ctx is done, then shuts it down within timeout.
func serveDebug(ctx context.Context, lg *zap.Logger, srv *http.Server, hl *health.Health, timeout time.Duration) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		hl.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		lg.Info("Shutting down debug listener", zap.Duration("timeout", timeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("Debug listener shutdown error", zap.Error(err))
		}
		hl.Stop()
	}()

	lg.Info("Debug listener started", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "debug listener")
	}
	<-shutdownDone
	return nil
}
