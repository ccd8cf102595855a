// Package health serves liveness and readiness probes for the debug listener.
//
// Every registered probe runs on its own goroutine at a fixed interval. A
// probe flips to unhealthy after failureThreshold consecutive failures and
// back after successThreshold consecutive successes, so a single slow
// catalog response does not flap readiness.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc returns nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// probe is one registered check. Counters belong to the single goroutine
// calling run; healthy and lastErr are read concurrently by handlers.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) err() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// run executes the check once and reports whether the health flag changed.
func (p *probe) run(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)

	was := p.healthy.Load()
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
	} else {
		p.fails = 0
		p.oks++
		if p.oks >= successThreshold {
			p.healthy.Store(true)
		}
	}
	return was != p.healthy.Load()
}

// Health holds the probes of one process.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check answering whether the process works.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a check answering whether dependencies such
// as the catalog service are reachable.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start runs every registered probe immediately and then at interval until
// Stop or ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go loop(ctx, p, interval)
	}
}

func loop(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg := zctx.From(ctx).With(zap.String("check", p.name))
	for {
		if p.run(ctx) {
			if p.healthy.Load() {
				lg.Info("Health check recovered")
			} else {
				lg.Warn("Health check failing", zap.Error(p.err()))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the probe goroutines. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the process is marked ready and every readiness
// probe is healthy.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(h.snapshot(true))) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(h.snapshot(false)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(h.snapshot(true))
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func (h *Health) snapshot(readiness bool) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	src := h.liveness
	if readiness {
		src = h.readiness
	}
	return append([]*probe(nil), src...)
}

func (h *Health) failures(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if p.healthy.Load() {
			continue
		}
		if err := p.err(); err != nil {
			failures[p.name] = err.Error()
		} else {
			failures[p.name] = "check is unhealthy"
		}
	}
	return failures
}

// writeStatus renders {"status":"ok"} or
// {"status":"unhealthy","checks":{name:error}} with 503.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	if len(failures) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	// Status is already sent; a failed write means the client went away.
	_, _ = w.Write(e.Bytes())
}
