// Package events defines the domain events emitted by searches and unlocks
// and the publishers that deliver them.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/cardna/engine/domain"
	"github.com/WessleyAI/cardna/pkg/natsutil"
	"github.com/WessleyAI/cardna/pkg/resilience"
)

// Type names an event. It is also the subject suffix on NATS.
type Type string

const (
	SearchPerformed Type = "search.performed"
	QuickFind       Type = "quickfind.performed"
	PremiumUnlocked Type = "premium.unlocked"
)

// Event is one occurrence published to subscribers.
type Event struct {
	ID        string           `json:"id"`
	Type      Type             `json:"type"`
	Time      time.Time        `json:"time"`
	Selection domain.Selection `json:"selection"`
	ProfileID string           `json:"profile_id,omitempty"`
	Matched   bool             `json:"matched"`
	Query     string           `json:"query,omitempty"`
	Plan      string           `json:"plan,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// New returns an event of type t with a fresh id and the current time.
func New(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, Time: time.Now().UTC()}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// LogPublisher writes events to a logger at debug level. It stands in for
// NATS when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, e Event) error {
	p.Logger.DebugContext(ctx, "event",
		"id", e.ID,
		"type", e.Type,
		"selection", e.Selection.String(),
		"profile_id", e.ProfileID,
		"matched", e.Matched,
	)
	return nil
}

// NATSPublisher publishes events as JSON on "<prefix>.<type>". A circuit
// breaker stops publishing attempts while the broker keeps failing.
type NATSPublisher struct {
	conn    natsutil.MsgPublisher
	prefix  string
	breaker *resilience.Breaker
}

// NewNATSPublisher returns a publisher over conn. Breaker transitions are
// logged.
func NewNATSPublisher(conn natsutil.MsgPublisher, prefix string, logger *slog.Logger) *NATSPublisher {
	opts := resilience.DefaultBreakerOpts
	opts.OnStateChange = func(from, to resilience.State) {
		logger.Warn("event publisher breaker", "from", from.String(), "to", to.String())
	}
	return &NATSPublisher{
		conn:    conn,
		prefix:  prefix,
		breaker: resilience.NewBreaker(opts),
	}
}

// Subject returns the subject events of type t are published on.
func (p *NATSPublisher) Subject(t Type) string {
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	err := p.breaker.Call(ctx, func(ctx context.Context) error {
		return natsutil.Publish(ctx, p.conn, p.Subject(e.Type), e)
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", e.Type, err)
	}
	return nil
}

// Watch subscribes to every event type under prefix.
func Watch(nc *nats.Conn, prefix string, fn func(context.Context, Event)) (*nats.Subscription, error) {
	sub, err := natsutil.Subscribe(nc, prefix+".>", fn)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe %s.>: %w", prefix, err)
	}
	return sub, nil
}
