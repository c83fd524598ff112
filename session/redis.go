package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockease/client-go/core"
)

// RedisStore keeps the session in a Redis hash so that multiple processes
// (or replicas of a gateway) share one authenticated identity. The triple
// lives in a single hash key: HSET writes it in one command and DEL clears
// it in one command, which preserves the all-or-nothing contract.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    core.Logger
}

// NewRedisStore creates a Redis-backed session store from a redis URL,
// e.g. "redis://localhost:6379/2". The connection is verified with a ping.
func NewRedisStore(redisURL, namespace string, logger core.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if namespace == "" {
		namespace = "stockease:session"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}, nil
}

func (r *RedisStore) key() string {
	return r.namespace + ":current"
}

// Get retrieves the stored session. Redis being unreachable degrades to the
// zero session: a transient storage failure must not be read as a logout.
func (r *RedisStore) Get(ctx context.Context) (Session, error) {
	result, err := r.client.HGetAll(ctx, r.key()).Result()
	if err != nil {
		r.logger.Warn("Session storage unavailable, treating as unauthenticated", map[string]interface{}{
			"operation": "session_get",
			"error":     err.Error(),
		})
		return Session{}, nil
	}

	return Session{
		Token:    result["token"],
		Username: result["username"],
		Role:     result["role"],
	}, nil
}

// Set stores the session triple in one HSET
func (r *RedisStore) Set(ctx context.Context, s Session) error {
	err := r.client.HSet(ctx, r.key(), map[string]interface{}{
		"token":    s.Token,
		"username": s.Username,
		"role":     s.Role,
	}).Err()
	if err != nil {
		r.logger.Warn("Session storage unavailable, write skipped", map[string]interface{}{
			"operation": "session_set",
			"error":     err.Error(),
		})
	}
	return nil
}

// Clear deletes the session hash. Idempotent: deleting a missing key is a
// no-op in Redis.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		r.logger.Warn("Session storage unavailable, clear skipped", map[string]interface{}{
			"operation": "session_clear",
			"error":     err.Error(),
		})
	}
	return nil
}

// Close releases the underlying Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
