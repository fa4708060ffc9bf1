// Package app wires configuration into the store, cache and parameter set
// shared by the command line tools and the API.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"reimburse/internal/cache"
	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/store"
)

const storePrefix = "store:"

// Env holds the opened resources. Store and Cache are nil when disabled.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *store.Store
	Cache  cache.Cache
}

// Open connects the database and builds the cache. An empty database path
// disables the store. A redis backend that does not answer is logged and
// kept, since misses fall through to the calculator.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Env, error) {
	env := &Env{Config: cfg, Logger: logger}

	if cfg.Database.Path != "" {
		st, err := store.Open(ctx, store.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	switch cfg.Cache.Backend {
	case "memory":
		env.Cache = cache.NewMemory(cfg.Cache.Size, cfg.Cache.TTL)
	case "redis":
		r := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		}, logger)
		if err := r.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, serving uncached", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		}
		env.Cache = r
	}
	return env, nil
}

// Close releases every opened resource and reports all failures.
func (e *Env) Close() error {
	var err error
	if e.Cache != nil {
		err = multierr.Append(err, e.Cache.Close())
	}
	if e.Store != nil {
		err = multierr.Append(err, e.Store.Close())
	}
	return err
}

// Parameters resolves a source: a preset name, a YAML path, or
// "store:<version>" ("store:latest" for the newest set).
func (e *Env) Parameters(ctx context.Context, source string) (*calculator.Parameters, error) {
	if !strings.HasPrefix(source, storePrefix) {
		return calculator.Resolve(source)
	}
	if e.Store == nil {
		return nil, fmt.Errorf("parameter source %q needs a database", source)
	}
	version := strings.TrimPrefix(source, storePrefix)
	var (
		set *store.ParameterSet
		err error
	)
	if version == "latest" {
		set, err = e.Store.LatestParameters(ctx)
	} else {
		set, err = e.Store.GetParameters(ctx, version)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", source, err)
	}
	return set.Params, nil
}
