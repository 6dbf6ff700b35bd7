package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrape returns the text exposition of the default registry
func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/protocols/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"FOLFOX", "XELOX"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/protocols/"+name, nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", w.Code)
		}
	}

	body := scrape(t)
	want := `http_request_total{method="GET",path="/v1/protocols/{name}",status="404"} 2`
	if !strings.Contains(body, want) {
		t.Errorf("Expected %q in metrics output", want)
	}
	if strings.Contains(body, `path="/v1/protocols/FOLFOX"`) {
		t.Error("Raw paths must not be used as labels")
	}
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	if !strings.Contains(scrape(t), `path="unmatched",status="404"`) {
		t.Error("Unmatched requests should share the 'unmatched' label")
	}
}

func TestObserveSchedule(t *testing.T) {
	ObserveSchedule("metrics_test", 2, 5)

	body := scrape(t)
	if !strings.Contains(body, `schedules_built_total{source="metrics_test"} 1`) {
		t.Error("Expected one schedule recorded for the test source")
	}
	if !strings.Contains(body, `schedule_entries_total{group="treatment"}`) {
		t.Error("Expected treatment entries to be recorded")
	}
}
