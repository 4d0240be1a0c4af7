package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionKeyPrefix = "session:"
	pausedSetKey     = "sessions:paused"

	fieldPaused    = "paused_for_human"
	fieldMode      = "mode"
	fieldTopic     = "topic"
	fieldStep      = "wizard_step"
	fieldData      = "wizard_data"
	fieldAwaiting  = "awaiting_code"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps each session in a hash so a patch only rewrites the
// fields it carries. Paused users are mirrored into a set for operators.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("autoclinic.internal.session.redis"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	fields, err := s.redis.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	st := newState(userID)
	st.PausedForHuman = fields[fieldPaused] == "1"
	if mode := fields[fieldMode]; mode != "" {
		st.Mode = Mode(mode)
	}
	st.Topic = fields[fieldTopic]
	if raw := fields[fieldStep]; raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("session: corrupt wizard step %q: %w", raw, err)
		}
		st.WizardStep = step
	}
	if raw := fields[fieldData]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &st.WizardData); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("session: failed to decode wizard data: %w", err)
		}
	}
	st.AwaitingCode = fields[fieldAwaiting] == "1"
	if raw := fields[fieldUpdatedAt]; raw != "" {
		st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, patch Patch) error {
	if patch.Empty() {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	values := map[string]any{fieldUpdatedAt: s.now().Format(time.RFC3339Nano)}
	if patch.PausedForHuman != nil {
		values[fieldPaused] = flag(*patch.PausedForHuman)
	}
	if patch.Mode != nil {
		values[fieldMode] = string(*patch.Mode)
	}
	if patch.Topic != nil {
		values[fieldTopic] = *patch.Topic
	}
	if patch.WizardStep != nil {
		values[fieldStep] = strconv.Itoa(*patch.WizardStep)
	}
	if patch.WizardData != nil {
		data, err := json.Marshal(patch.WizardData)
		if err != nil {
			return fmt.Errorf("session: failed to marshal wizard data: %w", err)
		}
		values[fieldData] = string(data)
	}
	if patch.AwaitingCode != nil {
		values[fieldAwaiting] = flag(*patch.AwaitingCode)
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, sessionKey(userID), values)
	if patch.PausedForHuman != nil {
		if *patch.PausedForHuman {
			pipe.SAdd(ctx, pausedSetKey, userID)
		} else {
			pipe.SRem(ctx, pausedSetKey, userID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to save %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.Save(ctx, userID, ClearPatch())
}

func (s *RedisStore) ListPaused(ctx context.Context) ([]string, error) {
	members, err := s.redis.SMembers(ctx, pausedSetKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("session: failed to list paused: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
