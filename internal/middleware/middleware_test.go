package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tunevault/internal/metrics"
)

func TestResponseWriterCapturesStatus(t *testing.T) {
	t.Parallel()

	handler := Logging(true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		if _, err := w.Write([]byte("short and stout")); err != nil {
			t.Errorf("write: %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/teapot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()

	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/things", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestMetricsRecordsRouteTemplate(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/api/v1/widgets/{id:[0-9]+}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/widgets/42", nil))

	tpl := "/api/v1/widgets/{id:[0-9]+}"
	got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", tpl, "200"))
	if got != 1 {
		t.Errorf("requests_total{path=%q} = %v, want 1", tpl, got)
	}
	if n := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200")); n != 0 {
		t.Errorf("requests_total{path=\"unmatched\"} = %v, want 0", n)
	}
}

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"/api/v1/songs", "/api/v1/songs"},
		{"/bad\npath", "/badpath"},
		{"/tab\there", "/tabhere"},
		{"clean", "clean"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.input); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsHealthPath(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/health", "/healthz", "/livez", "/readyz"} {
		if !isHealthPath(p) {
			t.Errorf("isHealthPath(%q) = false", p)
		}
	}
	for _, p := range []string{"/", "/api/v1/songs", "/healthy"} {
		if isHealthPath(p) {
			t.Errorf("isHealthPath(%q) = true", p)
		}
	}
}
