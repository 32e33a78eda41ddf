package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

// Config for the redis-backed login limiter.
type Config struct {
	Enabled       bool
	RedisURL      string
	Attempts      int
	Window        time.Duration
	BlockDuration time.Duration
}

type redisLoginLimiter struct {
	client        *redis.Client
	logger        logger.Logger
	attempts      int
	window        time.Duration
	blockDuration time.Duration
}

// NewLoginLimiter connects to redis and returns a limiter, or a noop
// implementation when disabled.
func NewLoginLimiter(config Config, log logger.Logger) (outbound.LoginLimiter, error) {
	if !config.Enabled {
		log.Info(context.Background(), "login rate limiting disabled", nil)
		return &noopLoginLimiter{}, nil
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info(ctx, "login rate limiting service initialized", map[string]interface{}{
		"attempts":       config.Attempts,
		"window":         config.Window.String(),
		"block_duration": config.BlockDuration.String(),
	})

	return &redisLoginLimiter{
		client:        client,
		logger:        log,
		attempts:      config.Attempts,
		window:        config.Window,
		blockDuration: config.BlockDuration,
	}, nil
}

func (s *redisLoginLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, blockKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}

func (s *redisLoginLimiter) RegisterFailure(ctx context.Context, key string) error {
	pipeline := s.client.Pipeline()
	incrCmd := pipeline.Incr(ctx, key)
	pipeline.Expire(ctx, key, s.window)
	if _, err := pipeline.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment login failures: %w", err)
	}

	if int(incrCmd.Val()) < s.attempts {
		return nil
	}

	if err := s.client.Set(ctx, blockKey(key), time.Now().Unix(), s.blockDuration).Err(); err != nil {
		return fmt.Errorf("failed to block key: %w", err)
	}
	s.logger.Warn(ctx, "login attempts exceeded, key blocked", map[string]interface{}{
		"key":      key,
		"duration": s.blockDuration.String(),
	})
	return nil
}

func (s *redisLoginLimiter) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

func blockKey(key string) string {
	return fmt.Sprintf("blocked:%s", key)
}

// noopLoginLimiter is used when rate limiting is disabled.
type noopLoginLimiter struct{}

func (n *noopLoginLimiter) IsBlocked(ctx context.Context, key string) (bool, error) { return false, nil }
func (n *noopLoginLimiter) RegisterFailure(ctx context.Context, key string) error   { return nil }
func (n *noopLoginLimiter) Reset(ctx context.Context, key string) error             { return nil }
