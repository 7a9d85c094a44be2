package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPublishReachesSubscribers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, RefreshChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	n := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer n.Close()
	n.Publish(ctx, "battle_resolved")

	select {
	case msg := <-sub.Channel():
		if msg.Payload != "battle_resolved" {
			t.Fatalf("payload = %q, want battle_resolved", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no refresh message received")
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.Publish(context.Background(), "noop")
	if err := n.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestNewEmptyURL(t *testing.T) {
	n, err := New("")
	if err != nil {
		t.Fatalf("empty url: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil notifier for empty url")
	}
}

func TestNewConnects(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	n, err := New(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n == nil {
		t.Fatalf("expected notifier")
	}
	defer n.Close()
}
