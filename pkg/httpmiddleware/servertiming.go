package httpmiddleware

import (
	"context"
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTiming adds a Server-Timing header built from the metrics handlers
// record with StartTiming.
func ServerTiming() Middleware {
	return func(next http.Handler) http.Handler {
		return servertiming.Middleware(next, nil)
	}
}

// Timing is a running Server-Timing metric. The zero value is a no-op.
type Timing struct {
	metric *servertiming.Metric
}

// Stop ends the metric. It must be called before the response header is
// written for the metric to be reported.
func (t Timing) Stop() {
	if t.metric != nil {
		t.metric.Stop()
	}
}

// StartTiming starts a named metric when ServerTiming wraps the request.
func StartTiming(ctx context.Context, name, desc string) Timing {
	h := servertiming.FromContext(ctx)
	if h == nil {
		return Timing{}
	}
	return Timing{metric: h.NewMetric(name).WithDesc(desc).Start()}
}
