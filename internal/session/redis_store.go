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

const (
	sessionKeyPrefix = "mindmesh:session:" // Key prefix for session data: mindmesh:session:{id}
	stateKeyPrefix   = "mindmesh:state:"   // UI state blobs: mindmesh:state:{id}:{kind}
	DefaultTTL       = 7 * 24 * time.Hour
)

// RedisStore handles Redis operations for sessions
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new RedisStore
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores a new session, assigning an id when missing
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by its ID
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Update rewrites an existing session and refreshes its TTL
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	exists, err := r.client.Exists(ctx, r.sessionKey(s.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}

	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes a session together with all of its state
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	kinds, err := r.client.SMembers(ctx, r.stateIndexKey(id)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to list session state: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(id))
	for _, kind := range kinds {
		pipe.Del(ctx, r.stateKey(id, kind))
	}
	pipe.Del(ctx, r.stateIndexKey(id))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveState stores one kind of UI state for the session
func (r *RedisStore) SaveState(ctx context.Context, sessionID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s state: %w", kind, err)
	}

	indexKey := r.stateIndexKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.stateKey(sessionID, kind), data, r.ttl)
	pipe.SAdd(ctx, indexKey, kind)
	pipe.Expire(ctx, indexKey, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save %s state: %w", kind, err)
	}
	return nil
}

// LoadState decodes one kind of UI state into v
func (r *RedisStore) LoadState(ctx context.Context, sessionID, kind string, v any) error {
	data, err := r.client.Get(ctx, r.stateKey(sessionID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrStateNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s state: %w", kind, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s state: %w", kind, err)
	}
	return nil
}

// DeleteState drops one kind of UI state
func (r *RedisStore) DeleteState(ctx context.Context, sessionID, kind string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.stateKey(sessionID, kind))
	pipe.SRem(ctx, r.stateIndexKey(sessionID), kind)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete %s state: %w", kind, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Helper methods for key generation
func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, id)
}

func (r *RedisStore) stateKey(id, kind string) string {
	return fmt.Sprintf("%s%s:%s", stateKeyPrefix, id, kind)
}

func (r *RedisStore) stateIndexKey(id string) string {
	return fmt.Sprintf("%s%s:states", sessionKeyPrefix, id)
}
