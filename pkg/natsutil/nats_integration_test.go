//go:build integration

package natsutil

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func TestNATS_PubSub(t *testing.T) {
	nc, err := Connect(natsURL(), "cardna-integration", slog.Default())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(nc.Close)

	ch := make(chan testEvent, 1)
	sub, err := Subscribe(nc, "integ.cardna.>", func(_ context.Context, e testEvent) {
		ch <- e
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	want := testEvent{Type: "search.performed", ProfileID: "honda-s2000-ap1-f20c"}
	if err := Publish(context.Background(), nc, "integ.cardna.search.performed", want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
