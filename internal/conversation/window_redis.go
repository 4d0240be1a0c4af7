package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const windowKeyPrefix = "context_window:"

// RedisWindow stores each user's window as a capped Redis list so history
// survives restarts.
type RedisWindow struct {
	redis  *redis.Client
	tracer trace.Tracer
	size   int64
	ttl    time.Duration
}

// NewRedisWindow keeps at most size turns per user; ttl of zero disables expiry.
func NewRedisWindow(client *redis.Client, size int, ttl time.Duration) *RedisWindow {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &RedisWindow{
		redis:  client,
		tracer: otel.Tracer("autoclinic.internal.conversation.window"),
		size:   int64(size),
		ttl:    ttl,
	}
}

func (w *RedisWindow) Append(ctx context.Context, userID string, turn Turn) error {
	if userID == "" {
		return errors.New("conversation: window userID required")
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("conversation: marshal turn: %w", err)
	}

	ctx, span := w.tracer.Start(ctx, "conversation.window.append")
	defer span.End()

	key := windowKey(userID)
	pipe := w.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -w.size, -1)
	if w.ttl > 0 {
		pipe.Expire(ctx, key, w.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append turn: %w", err)
	}
	return nil
}

func (w *RedisWindow) Recent(ctx context.Context, userID string, n int) ([]Turn, error) {
	if userID == "" {
		return nil, errors.New("conversation: window userID required")
	}
	ctx, span := w.tracer.Start(ctx, "conversation.window.recent")
	defer span.End()

	start := int64(0)
	if n > 0 {
		start = -int64(n)
	}
	raw, err := w.redis.LRange(ctx, windowKey(userID), start, -1).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: load window: %w", err)
	}

	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, turn)
	}
	return out, nil
}

func windowKey(userID string) string {
	return windowKeyPrefix + userID
}
