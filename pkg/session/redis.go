package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/hrportal/pkg/auth"
)

// DefaultKeyPrefix namespaces session keys
const DefaultKeyPrefix = "hrportal:session:"

// RedisStore keeps sessions as JSON values with a Redis TTL
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: DefaultKeyPrefix}
}

// NewRedisClient parses url and verifies the connection
func NewRedisClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, token string) (*auth.Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var session auth.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// If unmarshal fails, delete corrupt data
		s.client.Del(ctx, s.key(token))
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.Token = token
	return &session, nil
}

// Put implements Store
func (s *RedisStore) Put(ctx context.Context, session *auth.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
