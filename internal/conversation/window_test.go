package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func windows(t *testing.T) map[string]Window {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Window{
		"memory": NewMemoryWindow(DefaultWindowSize),
		"redis":  NewRedisWindow(client, DefaultWindowSize, time.Hour),
	}
}

func TestWindowKeepsLastTenInOrder(t *testing.T) {
	for name, w := range windows(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= DefaultWindowSize+5; i++ {
				if err := w.Append(ctx, "u1", Turn{Role: ChatRoleUser, Text: fmt.Sprintf("m%d", i)}); err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}
			got, err := w.Recent(ctx, "u1", 0)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(got) != DefaultWindowSize {
				t.Fatalf("expected %d turns, got %d", DefaultWindowSize, len(got))
			}
			for i, turn := range got {
				want := fmt.Sprintf("m%d", i+6)
				if turn.Text != want {
					t.Fatalf("position %d: expected %s, got %s", i, want, turn.Text)
				}
			}
		})
	}
}

func TestWindowRecentLimitsToNewest(t *testing.T) {
	for name, w := range windows(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 4; i++ {
				_ = w.Append(ctx, "u1", Turn{Role: ChatRoleAssistant, Text: fmt.Sprintf("a%d", i)})
			}
			got, err := w.Recent(ctx, "u1", 2)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(got) != 2 || got[0].Text != "a3" || got[1].Text != "a4" {
				t.Fatalf("unexpected turns %+v", got)
			}
			if got[0].Timestamp.IsZero() {
				t.Fatalf("expected timestamp to be filled")
			}
		})
	}
}

func TestWindowIsolatesUsers(t *testing.T) {
	for name, w := range windows(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = w.Append(ctx, "u1", Turn{Role: ChatRoleUser, Text: "hola"})
			got, err := w.Recent(ctx, "u2", 0)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty window, got %+v", got)
			}
		})
	}
}

func TestRedisWindowSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	w := NewRedisWindow(client, 3, time.Hour)
	if err := w.Append(context.Background(), "u1", Turn{Role: ChatRoleUser, Text: "hola"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ttl := mr.TTL(windowKey("u1")); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}
}
