package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	h := RequestID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestID_RejectsInvalidHeader(t *testing.T) {
	h := RequestID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 129))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

type recordingTransport struct {
	got *http.Request
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.got = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestTransport(t *testing.T) {
	t.Run("GeneratesID", func(t *testing.T) {
		rec := &recordingTransport{}
		tr := &Transport{Base: rec}

		req := httptest.NewRequest(http.MethodGet, "http://catalog/products", nil)
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		_, err = uuid.Parse(rec.got.Header.Get(RequestIDHeader))
		require.NoError(t, err)
		assert.Empty(t, req.Header.Get(RequestIDHeader), "caller request must not be mutated")
	})
	t.Run("UsesContextID", func(t *testing.T) {
		rec := &recordingTransport{}
		tr := &Transport{Base: rec}

		req := httptest.NewRequest(http.MethodGet, "http://catalog/products", nil)
		req = req.WithContext(WithRequestID(req.Context(), "session-1"))
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, "session-1", rec.got.Header.Get(RequestIDHeader))
	})
	t.Run("KeepsExplicitHeader", func(t *testing.T) {
		rec := &recordingTransport{}
		tr := &Transport{Base: rec}

		req := httptest.NewRequest(http.MethodGet, "http://catalog/products", nil)
		req.Header.Set(RequestIDHeader, "explicit")
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Same(t, req, rec.got)
	})
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestRecovery_ReportsRequestID(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID(), Recovery())

	req := httptest.NewRequest(http.MethodGet, "/debug/view", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"internal error","request_id":"req-42"}`, w.Body.String())
}

func TestRecovery_RepanicsOnAbort(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
