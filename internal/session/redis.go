package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps abandoned drafts from accumulating forever.
const DefaultTTL = 24 * time.Hour

// RedisStore keeps working sessions in Redis as JSON documents.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func sessionKey(owner uuid.UUID) string {
	return fmt.Sprintf("mealmatchy:session:%s", owner)
}

func (s *RedisStore) Get(ctx context.Context, owner uuid.UUID) (*Draft, error) {
	data, err := s.client.Get(ctx, sessionKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		// A corrupt session is treated as no session at all.
		return nil, nil
	}
	return &draft, nil
}

func (s *RedisStore) Put(ctx context.Context, owner uuid.UUID, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(owner), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, owner uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
