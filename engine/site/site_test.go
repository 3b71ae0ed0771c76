package site

import (
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/search"
	"github.com/WessleyAI/cardna/pkg/metrics"
)

const supraID = "toyota-supra-a80-mk4-2jz-gte"

type testSite struct {
	handler http.Handler
	cat     *catalog.Catalog
}

func newTestSite(t *testing.T, opts search.Options) testSite {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	svc := search.New(cat, opts, nil, m, logger)
	srv, err := New(svc, cat, m, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return testSite{handler: srv.Routes(), cat: cat}
}

func (s testSite) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s testSite) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return s.do(t, http.MethodGet, target, nil)
}

func mustContain(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

func mustNotContain(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}

func TestLanding(t *testing.T) {
	s := newTestSite(t, search.Options{})

	rec := s.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	mustContain(t, body,
		`href="/#search"`, `href="/#features"`, `href="/#pricing"`,
		`id="search"`, `id="features"`, `id="pricing"`,
		"Select Brand", `<option value="Toyota">`,
		`<select name="model" data-level="model" disabled>`,
		"Search DNA Profile",
		"Intelligence That Matters", "Vulnerability Database", "Searchable Database",
		"$4.99", "$9.99", "Most Popular",
		"Privacy Policy", "Terms of Service",
	)
	if !strings.Contains(body, `formaction="/search" data-busy="Analyzing..." disabled`) {
		t.Error("search button should be disabled with an empty selection")
	}
}

func TestLandingCascade(t *testing.T) {
	s := newTestSite(t, search.Options{})

	body := s.get(t, "/?brand=Honda").Body.String()
	mustContain(t, body, `<option value="Civic">`, `<option value="S2000">`, `<option value="Honda" selected>`)
	mustNotContain(t, body, `<option value="Supra">`, `<option value="M3">`)

	// A brand change drops the stale model.
	body = s.get(t, "/?brand=Honda&model=Civic&changed=brand").Body.String()
	mustContain(t, body, `<option value="Civic">`)
	mustNotContain(t, body, `<option value="Civic" selected>`)

	q := url.Values{
		"brand": {"Toyota"}, "model": {"Supra"}, "generation": {"A80 (Mk4)"}, "engine_code": {"2JZ-GTE"},
	}
	body = s.get(t, "/?"+q.Encode()).Body.String()
	mustNotContain(t, body, `data-busy="Analyzing..." disabled`)
}

func TestSearch(t *testing.T) {
	s := newTestSite(t, search.Options{})

	q := url.Values{"brand": {"Toyota"}, "model": {"Supra"}, "generation": {"A80 (Mk4)"}, "engine_code": {"2JZ-GTE"}}
	rec := s.get(t, "/search?"+q.Encode())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/profiles/"+supraID {
		t.Errorf("Location = %q", loc)
	}
}

func TestSearchIncomplete(t *testing.T) {
	s := newTestSite(t, search.Options{})

	rec := s.get(t, "/search?brand=Toyota&model=Supra")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	mustContain(t, rec.Body.String(), "Choose a brand, model, generation and engine code", `<option value="Supra" selected>`)
}

func TestSearchMissShowsLabelledAlternatives(t *testing.T) {
	s := newTestSite(t, search.Options{})

	q := url.Values{"brand": {"Toyota"}, "model": {"Supra"}, "generation": {"A80 (Mk4)"}, "engine_code": {"B58B30"}}
	rec := s.get(t, "/search?"+q.Encode())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	mustContain(t, body, "No profile for this selection", "Other Toyota engines",
		"not the one you asked for", `href="/profiles/`+supraID+`"`)
	mustNotContain(t, body, "/profiles/honda-", "/profiles/bmw-")
}

func TestSearchRateLimited(t *testing.T) {
	s := newTestSite(t, search.Options{Rate: 0.001, Burst: 1})

	q := url.Values{"brand": {"Honda"}, "model": {"S2000"}, "generation": {"AP1"}, "engine_code": {"F20C"}}
	if rec := s.get(t, "/search?"+q.Encode()); rec.Code != http.StatusSeeOther {
		t.Fatalf("first search status = %d", rec.Code)
	}
	rec := s.get(t, "/search?"+q.Encode())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestFind(t *testing.T) {
	s := newTestSite(t, search.Options{})

	tests := []struct {
		query    string
		status   int
		location string
	}{
		{"vw golf mk7", http.StatusSeeOther, "/profiles/volkswagen-golf-mk7-gti-ea888-chhb"},
		{"2jz supra", http.StatusSeeOther, "/profiles/" + supraID},
		{"", http.StatusSeeOther, "/#search"},
		{"lada niva", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := s.get(t, "/find?q="+url.QueryEscape(tt.query))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if loc := rec.Header().Get("Location"); loc != tt.location {
				t.Errorf("Location = %q, want %q", loc, tt.location)
			}
		})
	}
}

func TestProfilePaywall(t *testing.T) {
	s := newTestSite(t, search.Options{})
	p, _ := s.cat.ByID(supraID)
	vuln := template.HTMLEscapeString(p.Vulnerabilities[0])

	locked := s.get(t, "/profiles/"+supraID)
	if locked.Code != http.StatusOK {
		t.Fatalf("status = %d", locked.Code)
	}
	mustContain(t, locked.Body.String(),
		`href="/#search">Back to Search</a>`,
		"Supra A80 (Mk4)", "2JZ-GTE", "Low Risk", "2/10",
		"280 PS (206 kW)", "Technical Specifications", "6 cyl / 24V",
		"Unlock Actionable Insights", "Maintenance Secrets",
		"Buy This Profile - $4.99", "Subscribe - $9.99/mo",
		`action="/profiles/`+supraID+`/unlock"`,
		"More Toyota engines",
	)
	mustNotContain(t, locked.Body.String(), vuln, "Known Vulnerabilities")

	unlocked := s.get(t, "/profiles/"+supraID+"?premium=unlocked")
	if unlocked.Code != http.StatusOK {
		t.Fatalf("status = %d", unlocked.Code)
	}
	mustContain(t, unlocked.Body.String(), "Known Vulnerabilities", vuln,
		"Optimized Maintenance Schedule", "Tuning Potential", "Repair Cost Estimate")
	mustNotContain(t, unlocked.Body.String(), "Unlock Actionable Insights")
}

func TestEveryProfileRenders(t *testing.T) {
	s := newTestSite(t, search.Options{})
	for _, p := range s.cat.Profiles() {
		for _, suffix := range []string{"", "?premium=unlocked"} {
			rec := s.get(t, "/profiles/"+p.ID()+suffix)
			if rec.Code != http.StatusOK {
				t.Errorf("%s%s: status %d", p.ID(), suffix, rec.Code)
			}
		}
	}
}

func TestProfileUnknown(t *testing.T) {
	s := newTestSite(t, search.Options{})
	if rec := s.get(t, "/profiles/honda-nsx"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUnlock(t *testing.T) {
	s := newTestSite(t, search.Options{})

	rec := s.do(t, http.MethodPost, "/profiles/"+supraID+"/unlock", strings.NewReader("plan=full"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/profiles/"+supraID+"?premium=unlocked" {
		t.Errorf("Location = %q", loc)
	}

	if rec := s.do(t, http.MethodPost, "/profiles/"+supraID+"/unlock", strings.NewReader("plan=lifetime")); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown plan status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/profiles/nope/unlock", strings.NewReader("")); rec.Code != http.StatusNotFound {
		t.Errorf("unknown profile status = %d", rec.Code)
	}
	if rec := s.get(t, "/profiles/"+supraID+"/unlock"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET unlock status = %d", rec.Code)
	}
}

func TestPages(t *testing.T) {
	s := newTestSite(t, search.Options{})

	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"privacy", http.StatusOK, `<h1 id="privacy-policy">Privacy Policy</h1>`},
		{"terms", http.StatusOK, "Terms of Service"},
		{"contact", http.StatusOK, "<table>"},
		{"api", http.StatusOK, "/api/profiles/lookup"},
		{"careers", http.StatusNotFound, "Page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.get(t, "/pages/"+tt.name)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			mustContain(t, rec.Body.String(), tt.want)
		})
	}
}

func TestStatic(t *testing.T) {
	s := newTestSite(t, search.Options{})
	for _, f := range []string{"/static/style.css", "/static/search.js"} {
		if rec := s.get(t, f); rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", f, rec.Code)
		}
	}

	// A pending search disables its button so a second click cannot submit.
	js := s.get(t, "/static/search.js").Body.String()
	mustContain(t, js, "btn.disabled = true", "ev.preventDefault()")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAPIHealth(t *testing.T) {
	s := newTestSite(t, search.Options{})
	got := decode[map[string]any](t, s.get(t, "/api/health"))
	if got["status"] != "ok" || got["profiles"] != float64(s.cat.Len()) {
		t.Errorf("health = %v", got)
	}
}

func TestAPIOptions(t *testing.T) {
	s := newTestSite(t, search.Options{})

	type options struct {
		Brand     string   `json:"brand"`
		Models    []string `json:"models"`
		CanSearch bool     `json:"can_search"`
	}
	got := decode[options](t, s.get(t, "/api/catalog/options?brand=Honda"))
	want := options{Brand: "Honda", Models: []string{"Civic", "S2000"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	rec := s.get(t, "/api/catalog/options?brand=Lada")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decode[apiError](t, rec); e.Field != "brand" {
		t.Errorf("error = %+v", e)
	}
}

func TestAPILookup(t *testing.T) {
	s := newTestSite(t, search.Options{})

	q := url.Values{"brand": {"Toyota"}, "model": {"Supra"}, "generation": {"A80 (Mk4)"}, "engine_code": {"2JZ-GTE"}}
	rec := s.get(t, "/api/profiles/lookup?"+q.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	mustNotContain(t, body, `"vulnerabilities"`)
	var locked apiProfileResponse
	if err := json.Unmarshal([]byte(body), &locked); err != nil {
		t.Fatal(err)
	}
	if locked.Profile.ID != supraID || locked.Profile.RiskLevel != catalog.RiskLow {
		t.Errorf("profile = %+v", locked.Profile)
	}
	if locked.Premium.Unlocked || len(locked.Premium.Previews) != 3 {
		t.Errorf("premium = %+v", locked.Premium)
	}

	q.Set("premium", "unlocked")
	unlocked := decode[apiProfileResponse](t, s.get(t, "/api/profiles/lookup?"+q.Encode()))
	if !unlocked.Premium.Unlocked || unlocked.Premium.Content == nil || len(unlocked.Premium.Content.Vulnerabilities) == 0 {
		t.Errorf("unlocked premium = %+v", unlocked.Premium)
	}
}

func TestAPILookupMiss(t *testing.T) {
	s := newTestSite(t, search.Options{})

	q := url.Values{"brand": {"Toyota"}, "model": {"Corolla"}, "generation": {"E210"}, "engine_code": {"2JZ-GTE"}}
	rec := s.get(t, "/api/profiles/lookup?"+q.Encode())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	e := decode[apiError](t, rec)
	if e.Selection == nil || e.Selection.Model != "Corolla" {
		t.Errorf("selection = %+v", e.Selection)
	}
	if len(e.Suggestions) == 0 {
		t.Fatal("no suggestions")
	}
	for _, ref := range e.Suggestions {
		if ref.Brand != "Toyota" {
			t.Errorf("suggestion %s is not a Toyota", ref.ID)
		}
	}
}

func TestAPILookupIncomplete(t *testing.T) {
	s := newTestSite(t, search.Options{})

	rec := s.get(t, "/api/profiles/lookup?brand=Toyota&model=Supra&generation=A80+%28Mk4%29")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decode[apiError](t, rec); e.Field != "engine_code" {
		t.Errorf("error = %+v", e)
	}
}

func TestAPIProfile(t *testing.T) {
	s := newTestSite(t, search.Options{})

	got := decode[apiProfileResponse](t, s.get(t, "/api/profiles/honda-s2000-ap1-f20c?premium=unlocked"))
	if got.Profile.EngineCode != "F20C" || !got.Premium.Unlocked {
		t.Errorf("got %+v", got)
	}
	if rec := s.get(t, "/api/profiles/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestSite(t, search.Options{})
	s.get(t, "/profiles/"+supraID)

	rec := s.get(t, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	mustContain(t, rec.Body.String(), `cardna_http_requests_total{code="200",route="GET /profiles/{id}"} 1`)
}
