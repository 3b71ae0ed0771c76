package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/domain"
	"github.com/WessleyAI/cardna/engine/premium"
	"github.com/WessleyAI/cardna/engine/selector"
)

type apiError struct {
	Error       string            `json:"error"`
	Field       string            `json:"field,omitempty"`
	Selection   *domain.Selection `json:"selection,omitempty"`
	Suggestions []apiProfileRef   `json:"suggestions,omitempty"`
}

type apiProfile struct {
	ID string `json:"id"`
	catalog.Profile
	RiskLevel catalog.RiskLevel `json:"risk_level"`
	URL       string            `json:"url"`
}

type apiProfileRef struct {
	ID         string `json:"id"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Generation string `json:"generation"`
	EngineCode string `json:"engine_code"`
	URL        string `json:"url"`
}

type apiProfileResponse struct {
	Profile apiProfile      `json:"profile"`
	Premium premium.Section `json:"premium"`
}

type apiOptionsResponse struct {
	*selector.State
	CanSearch bool `json:"can_search"`
}

func newAPIProfile(p catalog.Profile) apiProfile {
	return apiProfile{
		ID:        p.ID(),
		Profile:   p,
		RiskLevel: p.Risk(),
		URL:       premium.ProfileURL(p.ID(), premium.Locked),
	}
}

func refsTo(ps []catalog.Profile) []apiProfileRef {
	out := make([]apiProfileRef, 0, len(ps))
	for _, p := range ps {
		out = append(out, apiProfileRef{
			ID:         p.ID(),
			Brand:      p.Brand,
			Model:      p.Model,
			Generation: p.Generation,
			EngineCode: p.EngineCode,
			URL:        premium.ProfileURL(p.ID(), premium.Locked),
		})
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "profiles": s.cat.Len()})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	st, errs := selector.Replay(s.cat, r.URL.Query())
	if len(errs) > 0 {
		s.writeError(w, r, errs[0])
		return
	}
	writeJSON(w, http.StatusOK, apiOptionsResponse{State: st, CanSearch: st.CanSearch()})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Search(r.Context(), selectionFrom(q))
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, apiError{
				Error:       err.Error(),
				Selection:   &res.Selection,
				Suggestions: refsTo(res.Suggestions),
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apiProfileResponse{
		Profile: newAPIProfile(*res.Profile),
		Premium: premium.Gate(*res.Profile, premium.ViewFrom(q)),
	})
}

func (s *Server) handleProfileJSON(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apiProfileResponse{
		Profile: newAPIProfile(p),
		Premium: premium.Gate(p, premium.ViewFrom(r.URL.Query())),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	body := apiError{Error: msg}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Error = ve.Wrapped.Error()
		body.Field = ve.Field
	}
	switch status {
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", "1")
	case http.StatusInternalServerError:
		s.logger.Error("api request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
