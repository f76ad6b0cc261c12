package httpobs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skywalker-88/stormgate-ddos/internal/httpobs"
)

func TestHealthAndMetricsRoutes(t *testing.T) {
	ts := httptest.NewServer(httpobs.NewRouter())
	t.Cleanup(ts.Close)

	for _, p := range []string{"/health", "/metrics"} {
		resp, err := http.Get(ts.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", p, resp.StatusCode)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := httptest.NewServer(httpobs.NewRouter())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}
