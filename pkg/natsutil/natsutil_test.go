package natsutil

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type testEvent struct {
	Type      string `json:"type"`
	ProfileID string `json:"profile_id"`
}

type recorder struct {
	msgs []*nats.Msg
	err  error
}

func (r *recorder) PublishMsg(m *nats.Msg) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeader(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})

	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	rec := &recorder{}
	in := testEvent{Type: "search.performed", ProfileID: "toyota-supra-a80-mk4-2jz-gte"}

	if err := Publish(context.Background(), rec, "cardna.search.performed", in); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(rec.msgs))
	}
	if got := rec.msgs[0].Subject; got != "cardna.search.performed" {
		t.Errorf("subject = %q", got)
	}

	_, out, err := Decode[testEvent](rec.msgs[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishError(t *testing.T) {
	boom := errors.New("connection closed")
	err := Publish(context.Background(), &recorder{err: boom}, "x", testEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}

func TestPublishUnencodable(t *testing.T) {
	rec := &recorder{}
	if err := Publish(context.Background(), rec, "x", make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
	if len(rec.msgs) != 0 {
		t.Fatal("unencodable value was published")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, _, err := Decode[testEvent](&nats.Msg{Subject: "x", Data: []byte("{")}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTracePropagation(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg, err := NewMsg(ctx, "cardna.premium.unlocked", testEvent{Type: "premium.unlocked"})
	if err != nil {
		t.Fatalf("NewMsg: %v", err)
	}
	if msg.Header.Get("traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}

	got, _, err := Decode[testEvent](msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id := trace.SpanContextFromContext(got).TraceID(); id != traceID {
		t.Errorf("trace id = %s, want %s", id, traceID)
	}
}
