// Package site serves the CarDNA web front-end and its JSON API.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/domain"
	"github.com/WessleyAI/cardna/engine/premium"
	"github.com/WessleyAI/cardna/engine/search"
	"github.com/WessleyAI/cardna/engine/selector"
	"github.com/WessleyAI/cardna/pkg/metrics"
	"github.com/WessleyAI/cardna/pkg/mid"
	"github.com/WessleyAI/cardna/pkg/resilience"
)

// Server holds the handlers' dependencies.
type Server struct {
	svc     *search.Service
	cat     *catalog.Catalog
	views   map[string]*template.Template
	pages   map[string]Page
	static  http.Handler
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New parses the embedded templates and pages.
func New(svc *search.Service, cat *catalog.Catalog, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	views, err := parseViews(assets)
	if err != nil {
		return nil, err
	}
	pages, err := loadPages(assets)
	if err != nil {
		return nil, err
	}
	return &Server{
		svc:     svc,
		cat:     cat,
		views:   views,
		pages:   pages,
		static:  http.FileServerFS(assets),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Routes returns the site's handler. Every request is reported to the
// metrics under its route pattern.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /find", s.handleFind)
	mux.HandleFunc("GET /profiles/{id}", s.handleProfile)
	mux.HandleFunc("POST /profiles/{id}/unlock", s.handleUnlock)
	mux.HandleFunc("GET /pages/{name}", s.handlePage)
	mux.Handle("GET /static/", s.static)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/catalog/options", s.handleOptions)
	mux.HandleFunc("GET /api/profiles/lookup", s.handleLookup)
	mux.HandleFunc("GET /api/profiles/{id}", s.handleProfileJSON)

	mux.Handle("GET /metrics", s.metrics.Handler())

	return mid.Observe(s.metrics.ObserveHTTP)(mux)
}

// --- HTML handlers ---

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	st, errs := selector.Replay(s.cat, r.URL.Query())
	if len(errs) > 0 {
		s.logger.Debug("selector replay", "errors", errors.Join(errs...))
	}
	s.render(w, http.StatusOK, "landing", s.landing(st, r.URL.Query().Get("q"), ""))
}

func (s *Server) landing(st *selector.State, query, errMsg string) landingView {
	return landingView{
		layout:   newLayout("", "", s.now()),
		Form:     newSearchForm(st, query, errMsg),
		Features: features,
		Plans:    premium.Plans(),
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Search(r.Context(), selectionFrom(q))
	switch {
	case err == nil:
		http.Redirect(w, r, premium.ProfileURL(res.Profile.ID(), premium.Locked), http.StatusSeeOther)

	case errors.Is(err, domain.ErrIncompleteSelection):
		st, _ := selector.Replay(s.cat, q)
		s.render(w, http.StatusBadRequest, "landing",
			s.landing(st, "", "Choose a brand, model, generation and engine code to search."))

	case errors.Is(err, domain.ErrProfileNotFound):
		st, _ := selector.Replay(s.cat, q)
		heading := ""
		if res.Selection.Brand != "" {
			heading = "Other " + res.Selection.Brand + " engines"
		}
		s.render(w, http.StatusNotFound, "notfound", notFoundView{
			layout:              newLayout("Profile not found", "", s.now()),
			Selection:           res.Selection,
			AlternativesHeading: heading,
			Alternatives:        linksTo(res.Suggestions),
			Form:                newSearchForm(st, "", ""),
		})

	default:
		s.renderError(w, r, err)
	}
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Redirect(w, r, "/#search", http.StatusSeeOther)
		return
	}
	matches, err := s.svc.Find(r.Context(), query)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if len(matches) > 0 {
		http.Redirect(w, r, premium.ProfileURL(matches[0].Profile.ID(), premium.Locked), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusNotFound, "notfound", notFoundView{
		layout: newLayout("No match", "", s.now()),
		Query:  query,
		Form:   newSearchForm(selector.New(s.cat), query, ""),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	l := newLayout(p.Brand+" "+p.Title()+" "+p.EngineCode,
		fmt.Sprintf("%s %s engine profile: %s, %s.", p.Brand, p.EngineCode, p.Power, p.Torque), s.now())
	related := s.cat.SameBrand(p.Brand, p.Key())
	s.render(w, http.StatusOK, "profile", newProfileView(l, p, premium.ViewFrom(r.URL.Query()), related))
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, domain.NewValidationError("form", "", err))
		return
	}
	p, _, err := s.svc.Unlock(r.Context(), r.PathValue("id"), r.PostFormValue("plan"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, premium.ProfileURL(p.ID(), premium.Unlocked), http.StatusSeeOther)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages[r.PathValue("name")]
	if !ok {
		s.renderStatus(w, http.StatusNotFound, "Page not found", "There is no page at this address.")
		return
	}
	s.render(w, http.StatusOK, "page", pageView{
		layout:  newLayout(page.Title, "", s.now()),
		Content: page.Content,
	})
}

// --- rendering ---

func (s *Server) render(w http.ResponseWriter, status int, view string, data any) {
	t, ok := s.views[view]
	if !ok {
		s.logger.Error("unknown view", "view", view)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render failed", "view", view, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, heading, msg string) {
	s.render(w, status, "error", errorView{
		layout:  newLayout(heading, "", s.now()),
		Heading: heading,
		Message: msg,
	})
}

// renderError maps a service error to a status and an HTML error page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	switch status {
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", "1")
	case http.StatusInternalServerError:
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", mid.RequestIDFrom(r.Context()), "err", err)
	}
	s.renderStatus(w, status, http.StatusText(status), msg)
}

// statusFor maps errors to HTTP status codes and visitor-facing messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrIncompleteSelection):
		return http.StatusBadRequest, "Choose a brand, model, generation and engine code to search."
	case errors.Is(err, premium.ErrUnknownPlan):
		return http.StatusBadRequest, "That plan is not on offer."
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "We have no engine profile at this address."
	case errors.Is(err, resilience.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many searches right now. Try again in a moment."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "The analysis was interrupted. Please try again."
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "The request could not be understood."
	}
	return http.StatusInternalServerError, "Something went wrong on our side."
}

func selectionFrom(q interface{ Get(string) string }) domain.Selection {
	return domain.Selection{
		Brand:      q.Get(domain.FieldBrand),
		Model:      q.Get(domain.FieldModel),
		Generation: q.Get(domain.FieldGeneration),
		EngineCode: q.Get(domain.FieldEngineCode),
	}
}
