// Command catalog-dump writes a JSON snapshot of the remote catalog.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shopeasy/internal/snapshot"
	"github.com/xenking/shopeasy/internal/storage/dummyjson"
)

func main() {
	var (
		catalogURL  string
		out         string
		concurrency int
		timeout     time.Duration
	)
	flag.StringVar(&catalogURL, "catalog-url", dummyjson.DefaultBaseURL, "catalog service base URL")
	flag.StringVar(&out, "out", "catalog.json.gz", "output file, gzip-compressed when it ends in .gz")
	flag.IntVar(&concurrency, "concurrency", snapshot.DefaultConcurrency, "parallel category fetches")
	flag.DurationVar(&timeout, "timeout", dummyjson.DefaultTimeout, "per-request timeout")
	flag.Parse()

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		client, err := dummyjson.NewClient(dummyjson.Config{
			BaseURL:        catalogURL,
			Timeout:        timeout,
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
		if err != nil {
			return errors.Wrap(err, "create catalog client")
		}
		return run(zctx.Base(ctx, lg), client, out, concurrency)
	})
}

func run(ctx context.Context, client *dummyjson.Client, out string, concurrency int) (rerr error) {
	lg := zctx.From(ctx)
	start := time.Now()

	c, err := snapshot.Collect(ctx, client, concurrency)
	if err != nil {
		return errors.Wrap(err, "collect catalog")
	}

	w, err := snapshot.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close snapshot")
		}
	}()
	if err := snapshot.Write(w, c); err != nil {
		return err
	}

	lg.Info("Snapshot written",
		zap.String("path", out),
		zap.Int("categories", len(c.Sections)),
		zap.Int("products", len(c.Products)),
		zap.Int("duplicates", c.Duplicates),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
