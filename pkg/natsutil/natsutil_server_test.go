package natsutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/WessleyAI/cardna/pkg/natsutil/natstest"
)

type delivery struct {
	ctx context.Context
	e   testEvent
}

func TestSubscribeDeliversTypedMessages(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	srv := natstest.Start(t)
	nc, err := Connect(srv.ClientURL(), "natsutil-test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(nc.Close)

	ch := make(chan delivery, 2)
	sub, err := Subscribe(nc, "cardna.>", func(ctx context.Context, e testEvent) {
		ch <- delivery{ctx, e}
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	// Malformed payloads are dropped without reaching the handler.
	if err := nc.Publish("cardna.search.performed", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	want := testEvent{Type: "search.performed", ProfileID: "honda-s2000-ap1-f20c"}
	if err := Publish(ctx, nc, "cardna.search.performed", want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if diff := cmp.Diff(want, got.e); diff != "" {
			t.Errorf("event mismatch (-want +got):\n%s", diff)
		}
		if id := trace.SpanContextFromContext(got.ctx).TraceID(); id != traceID {
			t.Errorf("trace id = %s, want %s", id, traceID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	select {
	case extra := <-ch:
		t.Errorf("unexpected second delivery: %+v", extra.e)
	case <-time.After(50 * time.Millisecond):
	}
}
