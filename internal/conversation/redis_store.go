package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/maiyu/lanchonete-bot/internal/menu"
)

// RedisStore keeps conversation state in Redis so that state survives a
// restart and can be shared by replicas. Snapshots expire after the
// configured TTL; an expired conversation simply starts over from the
// initial state, which is indistinguishable from a first contact.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed state store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("lanchonete.internal.conversation.redis_store"),
	}
}

var _ StateStore = (*RedisStore)(nil)

func stateKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

// Get implements StateStore with get-or-create semantics.
func (s *RedisStore) Get(ctx context.Context, id string) (State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.state_get")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(id)).Bytes()
	if err == redis.Nil {
		return s.write(ctx, id, NewState())
	}
	if err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("conversation: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	if state.Order == nil {
		// Order must never be nil regardless of what was stored.
		state.Order = []menu.Item{}
	}
	return state, nil
}

// Update implements StateStore.
func (s *RedisStore) Update(ctx context.Context, id string, state State) (State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.state_update")
	defer span.End()
	return s.write(ctx, id, cloneState(state))
}

// Reset implements StateStore.
func (s *RedisStore) Reset(ctx context.Context, id string) (State, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.state_reset")
	defer span.End()
	return s.write(ctx, id, NewState())
}

func (s *RedisStore) write(ctx context.Context, id string, state State) (State, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return State{}, fmt.Errorf("conversation: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(id), data, s.ttl).Err(); err != nil {
		return State{}, fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return state, nil
}
