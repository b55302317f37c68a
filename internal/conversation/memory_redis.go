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

const memoryKeyPrefix = "luxuryleads:conversation:"

// RedisMemory stores each window as a capped Redis list with a sliding TTL.
type RedisMemory struct {
	redis    *redis.Client
	tracer   trace.Tracer
	maxTurns int64
	ttl      time.Duration
	now      func() time.Time
}

func NewRedisMemory(client *redis.Client, maxTurns int, ttl time.Duration) *RedisMemory {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if maxTurns <= 0 {
		maxTurns = 50
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMemory{
		redis:    client,
		tracer:   otel.Tracer("luxuryleads.internal.conversation.memory"),
		maxTurns: int64(maxTurns),
		ttl:      ttl,
		now:      time.Now,
	}
}

func memoryKey(key string) string {
	return memoryKeyPrefix + key
}

func (m *RedisMemory) AppendTurn(ctx context.Context, key, role, text string) error {
	if err := validateTurn(key, role); err != nil {
		return err
	}
	data, err := json.Marshal(Turn{Role: role, Text: text, At: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("conversation: marshal turn: %w", err)
	}

	ctx, span := m.tracer.Start(ctx, "conversation.memory.append")
	defer span.End()

	rkey := memoryKey(key)
	pipe := m.redis.TxPipeline()
	pipe.RPush(ctx, rkey, data)
	pipe.LTrim(ctx, rkey, -m.maxTurns, -1)
	pipe.Expire(ctx, rkey, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append turn: %w", err)
	}
	return nil
}

func (m *RedisMemory) RecentContext(ctx context.Context, key string, n int) ([]Turn, error) {
	if n <= 0 {
		return []Turn{}, nil
	}
	return m.list(ctx, key, -int64(n))
}

func (m *RedisMemory) Window(ctx context.Context, key string) ([]Turn, error) {
	return m.list(ctx, key, 0)
}

func (m *RedisMemory) list(ctx context.Context, key string, start int64) ([]Turn, error) {
	ctx, span := m.tracer.Start(ctx, "conversation.memory.list")
	defer span.End()

	raw, err := m.redis.LRange(ctx, memoryKey(key), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Turn{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list turns: %w", err)
	}

	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *RedisMemory) Len(ctx context.Context, key string) (int, error) {
	n, err := m.redis.LLen(ctx, memoryKey(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("conversation: count turns: %w", err)
	}
	return int(n), nil
}

func (m *RedisMemory) Clear(ctx context.Context, key string) error {
	if err := m.redis.Del(ctx, memoryKey(key)).Err(); err != nil {
		return fmt.Errorf("conversation: clear turns: %w", err)
	}
	return nil
}
