// Package search runs profile searches for the site: it validates the
// visitor's selection, throttles, simulates the analysis delay, resolves
// the exact profile and records the outcome.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/domain"
	"github.com/WessleyAI/cardna/engine/events"
	"github.com/WessleyAI/cardna/engine/premium"
	"github.com/WessleyAI/cardna/engine/quickfind"
	"github.com/WessleyAI/cardna/pkg/metrics"
	"github.com/WessleyAI/cardna/pkg/mid"
	"github.com/WessleyAI/cardna/pkg/resilience"
)

// Catalog is the read side of the profile dataset.
type Catalog interface {
	Lookup(sel domain.Selection) (catalog.Profile, error)
	ByID(id string) (catalog.Profile, bool)
	SameBrand(brand string, exclude domain.Selection) []catalog.Profile
	Profiles() []catalog.Profile
}

// Options configures searches.
type Options struct {
	// Delay is the simulated analysis time before a result is returned.
	Delay time.Duration
	// Rate and Burst throttle searches across all visitors. A zero Rate
	// disables throttling.
	Rate  float64
	Burst int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Delay: 800 * time.Millisecond,
		Rate:  20,
		Burst: 40,
	}
}

// Result is the outcome of a search. On a miss Profile is nil and
// Suggestions lists other profiles of the same brand; they are
// alternatives, never a stand-in for the requested profile.
type Result struct {
	Selection   domain.Selection  `json:"selection"`
	Profile     *catalog.Profile  `json:"profile,omitempty"`
	Suggestions []catalog.Profile `json:"suggestions,omitempty"`
	Elapsed     time.Duration     `json:"-"`
}

// Found reports whether the selection resolved to a profile.
func (r Result) Found() bool { return r.Profile != nil }

// Service answers searches against a catalog.
type Service struct {
	cat     Catalog
	opts    Options
	limiter *resilience.Limiter
	pub     events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a search Service. A nil publisher discards events; a nil
// logger uses slog.Default.
func New(cat Catalog, opts Options, pub events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		cat:     cat,
		opts:    opts,
		limiter: resilience.NewLimiter(resilience.LimiterOpts{Rate: opts.Rate, Burst: opts.Burst}),
		pub:     pub,
		metrics: m,
		logger:  logger,
	}
}

// Search resolves sel to exactly one profile.
//
// Errors: a *domain.ValidationError wrapping domain.ErrIncompleteSelection
// when a field is empty, resilience.ErrRateLimited when throttled, the
// context's error when ctx ends during the analysis delay, and a
// *domain.NotFoundError on a miss. A miss still returns a Result carrying
// the suggestions.
func (s *Service) Search(ctx context.Context, sel domain.Selection) (Result, error) {
	start := time.Now()
	sel = sel.Trimmed()
	res := Result{Selection: sel}

	outcome, err := s.search(ctx, &res)
	res.Elapsed = time.Since(start)
	s.metrics.ObserveSearch(outcome, res.Elapsed)

	switch outcome {
	case metrics.OutcomeFound, metrics.OutcomeNotFound:
		e := events.New(events.SearchPerformed)
		e.Selection = sel
		e.Matched = res.Found()
		if res.Found() {
			e.ProfileID = res.Profile.ID()
		}
		s.publish(ctx, e)
		s.logger.Info("search", "selection", sel.String(), "outcome", outcome, "elapsed", res.Elapsed)
	default:
		s.logger.Debug("search rejected", "selection", sel.String(), "outcome", outcome, "err", err)
	}
	return res, err
}

func (s *Service) search(ctx context.Context, res *Result) (string, error) {
	// 1. All four levels must be chosen.
	if err := domain.ValidateSelection(res.Selection); err != nil {
		return metrics.OutcomeIncomplete, err
	}

	// 2. Throttle. The limiter skips the analysis when no token is left.
	outcome := metrics.OutcomeRateLimited
	err := s.limiter.Call(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = s.analyze(ctx, res)
		return err
	})
	return outcome, err
}

func (s *Service) analyze(ctx context.Context, res *Result) (string, error) {
	// 3. Simulated analysis.
	if err := wait(ctx, s.opts.Delay); err != nil {
		return metrics.OutcomeCanceled, fmt.Errorf("search: analysis interrupted: %w", err)
	}

	// 4. Exact lookup.
	p, err := s.cat.Lookup(res.Selection)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			res.Suggestions = s.cat.SameBrand(res.Selection.Brand, res.Selection)
			return metrics.OutcomeNotFound, err
		}
		return metrics.OutcomeIncomplete, err
	}
	res.Profile = &p
	return metrics.OutcomeFound, nil
}

// Find resolves a free-text query. It is throttled like Search but skips
// the analysis delay.
func (s *Service) Find(ctx context.Context, query string) ([]quickfind.Match, error) {
	var matches []quickfind.Match
	err := s.limiter.Call(ctx, func(context.Context) error {
		matches = quickfind.Resolve(s.cat, query)
		return nil
	})
	if err != nil {
		s.metrics.QuickFinds.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return nil, err
	}

	e := events.New(events.QuickFind)
	e.Query = query
	result := "unmatched"
	if len(matches) > 0 {
		result = "matched"
		e.Matched = true
		e.Selection = matches[0].Profile.Key()
		e.ProfileID = matches[0].Profile.ID()
	}
	s.metrics.QuickFinds.WithLabelValues(result).Inc()
	s.publish(ctx, e)
	return matches, nil
}

// Profile returns the profile with the given id.
func (s *Service) Profile(id string) (catalog.Profile, error) {
	p, ok := s.cat.ByID(id)
	if !ok {
		return catalog.Profile{}, fmt.Errorf("search: profile %q: %w", id, domain.ErrProfileNotFound)
	}
	return p, nil
}

// Unlock records a simulated purchase of plan for the profile. Nothing is
// charged or stored; the caller switches the visitor to the unlocked view.
func (s *Service) Unlock(ctx context.Context, id, planID string) (catalog.Profile, premium.Plan, error) {
	p, err := s.Profile(id)
	if err != nil {
		return catalog.Profile{}, premium.Plan{}, err
	}
	plan, ok := premium.PlanByID(planID)
	if !ok {
		return catalog.Profile{}, premium.Plan{}, domain.NewValidationError("plan", planID, premium.ErrUnknownPlan)
	}

	s.metrics.Unlocks.WithLabelValues(p.Brand).Inc()
	e := events.New(events.PremiumUnlocked)
	e.Selection = p.Key()
	e.ProfileID = p.ID()
	e.Matched = true
	e.Plan = plan.ID
	s.publish(ctx, e)
	s.logger.Info("premium unlocked", "profile_id", e.ProfileID, "plan", plan.ID)
	return p, plan, nil
}

// publish hands e to the publisher. Failures are logged and counted, never
// returned to the visitor.
func (s *Service) publish(ctx context.Context, e events.Event) {
	e.RequestID = mid.RequestIDFrom(ctx)
	if err := s.pub.Publish(ctx, e); err != nil {
		s.metrics.EventsPublished.WithLabelValues(string(e.Type), "error").Inc()
		s.logger.Warn("event publish failed", "type", e.Type, "id", e.ID, "err", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(e.Type), "ok").Inc()
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
