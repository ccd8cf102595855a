package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func runTimes(p *probe, n int) {
	for range n {
		p.run(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)
	h.AddLivenessCheck("flaky", time.Second, failing("temporary"))

	runTimes(h.liveness[1], failureThreshold-1)
	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code, "below threshold stays healthy")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	runTimes(h.liveness[1], 1)
	w = serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"flaky":"temporary"}}`, w.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("catalog", time.Second, ReachableCheck("catalog", func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}))

	w := serve(h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)
	assert.True(t, h.IsReady())

	runTimes(h.readiness[0], failureThreshold)
	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t,
		`{"status":"unhealthy","checks":{"catalog":"catalog unreachable: dial tcp: connection refused"}}`,
		w.Body.String(),
	)
	assert.False(t, h.IsReady())
}

func TestProbe_Recovers(t *testing.T) {
	down := true
	p := newProbe("catalog", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	assert.Nil(t, p.err())

	for i := range failureThreshold {
		changed := p.run(context.Background())
		assert.Equal(t, i == failureThreshold-1, changed)
	}
	assert.False(t, p.healthy.Load())
	assert.EqualError(t, p.err(), "down")

	down = false
	assert.True(t, p.run(context.Background()))
	assert.True(t, p.healthy.Load())
	assert.NoError(t, p.err())
}

func TestProbe_Timeout(t *testing.T) {
	p := newProbe("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p.run(context.Background())
	assert.ErrorIs(t, p.err(), context.DeadlineExceeded)
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))
	h.AddReadinessCheck("catalog", time.Second, passing)
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				serve(h.LiveEndpoint)
				serve(h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()

	h.Stop()
	h.Stop()
	assert.True(t, h.IsReady())
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}
