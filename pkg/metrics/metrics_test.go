package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSearch(t *testing.T) {
	m := New()
	m.ObserveSearch(OutcomeFound, 800*time.Millisecond)
	m.ObserveSearch(OutcomeFound, 10*time.Millisecond)
	m.ObserveSearch(OutcomeNotFound, time.Second)

	if got := testutil.ToFloat64(m.Searches.WithLabelValues(OutcomeFound)); got != 2 {
		t.Errorf("found searches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Searches.WithLabelValues(OutcomeNotFound)); got != 1 {
		t.Errorf("not_found searches = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.SearchDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET /profiles/{id}", 200, time.Millisecond)
	m.ObserveHTTP("GET /profiles/{id}", 404, time.Millisecond)
	m.ObserveHTTP("", 404, time.Millisecond)

	tests := []struct {
		route, code string
		want        float64
	}{
		{"GET /profiles/{id}", "200", 1},
		{"GET /profiles/{id}", "404", 1},
		{"unmatched", "404", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tt.route, tt.code)); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.route, tt.code, got, tt.want)
		}
	}
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.Unlocks.WithLabelValues("Toyota").Inc()
	m.CatalogProfiles.Set(17)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`cardna_premium_unlocks_total{brand="Toyota"} 1`,
		"cardna_catalog_profiles 17",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNewIsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.QuickFinds.WithLabelValues("matched").Inc()
	if got := testutil.ToFloat64(b.QuickFinds.WithLabelValues("matched")); got != 0 {
		t.Fatalf("registries share state: %v", got)
	}
}
