package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(skip ...string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware(skip...))
	r.Get("/api/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"took":1}`))
	})
	r.Get("/api/search/suggest", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# scrape"))
	})
	return r
}

func serve(h http.Handler, method, target string) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, http.NoBody))
	return rr.Code
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/search", "200"))

	if code := serve(r, "GET", "/api/search?q=go&w=a,b"); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/search", "200"))
	if after-before != 1 {
		t.Errorf("requests_total delta = %v, want 1", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_RecordsExplicitStatus(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/search/suggest", "503"))

	serve(r, "GET", "/api/search/suggest?q=x")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/search/suggest", "503"))
	if after-before != 1 {
		t.Errorf("requests_total{503} delta = %v, want 1", after-before)
	}
}

func TestMiddleware_UnknownPathsShareOneLabel(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))

	serve(r, "GET", "/wp-admin/setup.php")
	serve(r, "GET", "/api/search/nope")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	if after-before != 2 {
		t.Errorf("unmatched delta = %v, want 2", after-before)
	}
}

func TestMiddleware_SkipsListedPaths(t *testing.T) {
	r := newRouter("/metrics")
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200"))

	if code := serve(r, "GET", "/metrics"); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200"))
	if after != before {
		t.Errorf("skipped path was counted: %v -> %v", before, after)
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	var during float64
	r.Get("/api/search", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(httpInFlight)
		w.WriteHeader(http.StatusOK)
	})

	base := testutil.ToFloat64(httpInFlight)
	serve(r, "GET", "/api/search")

	if during != base+1 {
		t.Errorf("in-flight during request = %v, want %v", during, base+1)
	}
	if got := testutil.ToFloat64(httpInFlight); got != base {
		t.Errorf("in-flight after request = %v, want %v", got, base)
	}
}
