package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Timeout  time.Duration
}

// Redis stores amounts as fixed two-place decimal strings. Backend failures are logged and
// treated as misses so scoring never depends on the cache being up.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(cfg RedisConfig, logger *zap.Logger) *Redis {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &Redis{client: rdb, ttl: cfg.TTL, logger: logger}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (float64, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		r.logger.Warn("cache value is not a number", zap.String("key", key), zap.String("value", val))
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Set writes a cent amount. A non-positive TTL stores without expiry.
func (r *Redis) Set(ctx context.Context, key string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("cache set %s: amount %v is not finite", key, value)
	}
	return r.client.Set(ctx, key, decimal.NewFromFloat(value).StringFixed(2), r.ttl).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
