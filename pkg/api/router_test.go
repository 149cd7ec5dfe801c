package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scriptd/scriptd/pkg/api/handlers"
	"github.com/scriptd/scriptd/pkg/logger"
	"github.com/scriptd/scriptd/pkg/metrics"
	"github.com/scriptd/scriptd/pkg/multicast"
	"github.com/scriptd/scriptd/pkg/script"
)

func newTestRouter(t *testing.T) (http.Handler, *multicast.Pool) {
	t.Helper()
	log := logger.New(&logger.Config{Level: logger.InfoLevel, Format: "json", Output: "stdout"})
	pool := multicast.NewPool()
	t.Cleanup(pool.Close)

	reg := script.NewRegistry()
	mgr := metrics.NewManager(metrics.DefaultConfig())

	return NewRouter(log, &Handlers{
		Health:          handlers.NewHealthHandler(pool),
		Threads:         handlers.NewThreadHandler(reg),
		Multicasts:      handlers.NewMulticastHandler(pool, log),
		Metrics:         mgr.Handler(),
		MetricsRecorder: mgr,
	}), pool
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/threads", http.StatusOK},
		{http.MethodGet, "/api/v1/threads/nope", http.StatusNotFound},
		{http.MethodPost, "/api/v1/threads/nope/start", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.want)
		}
	}
}

func TestRouter_RequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}

func TestRouter_HealthReflectsPool(t *testing.T) {
	router, pool := newTestRouter(t)
	pool.Close()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz status = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}
