// Package app wires configuration, telemetry, the catalog client and the
// terminal session together.
package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shopeasy/internal/cli"
	"github.com/xenking/shopeasy/internal/domain/browse"
	"github.com/xenking/shopeasy/internal/domain/detail"
	"github.com/xenking/shopeasy/internal/domain/profile"
	"github.com/xenking/shopeasy/internal/storage/dummyjson"
	"github.com/xenking/shopeasy/pkg/health"
)

// Run creates all dependencies and runs the terminal session on in/out until
// the user quits or ctx is cancelled. The debug listener, when configured,
// stops together with the session.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, in io.Reader, out io.Writer) error {
	lg.Info("Initializing",
		zap.String("catalog", cfg.CatalogURL),
		zap.Duration("timeout", cfg.Timeout),
	)
	ctx = zctx.Base(ctx, lg)

	client, err := dummyjson.NewClient(dummyjson.Config{
		BaseURL:        cfg.CatalogURL,
		Timeout:        cfg.Timeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create catalog client")
	}

	var controller *browse.Controller
	controller = browse.NewController(client,
		browse.WithMeterProvider(m.MeterProvider()),
		browse.WithOnChange(func() {
			lg.Debug("Listing changed", zap.Stringer("phase", controller.View().Phase))
		}),
	)
	screen := detail.NewScreen(detail.NewFetcher(client), nil)
	editor := profile.NewEditor(cfg.Profile.Profile())
	session := cli.NewSession(controller, screen, editor, out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Quitting the session stops everything else.
		defer cancel()
		return session.Run(gctx, in)
	})

	if cfg.DebugAddr != "" {
		hl := health.New()
		hl.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
		hl.AddReadinessCheck("catalog", cfg.Timeout, health.ReachableCheck("catalog", func(ctx context.Context) error {
			_, err := client.Categories(ctx)
			return err
		}))
		hl.Start(gctx, 30*time.Second)
		hl.SetReady(true)

		srv := &http.Server{
			Addr:              cfg.DebugAddr,
			Handler:           debugHandler(lg, hl, controller),
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       5 * time.Second,
			WriteTimeout:      10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		g.Go(func() error {
			return serveDebug(gctx, lg, srv, hl, cfg.Graceful.ShutdownTimeout)
		})
	}

	return g.Wait()
}
