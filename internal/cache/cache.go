// Package cache memoizes computed reimbursements keyed by parameter
// fingerprint and trip.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"reimburse/internal/calculator"
)

//go:generate mockgen -source=cache.go -destination=mock_cache.go -package=cache

type Cache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, value float64) error
	Close() error
}

// Key identifies a trip under one parameter fingerprint. Any change to the
// active values changes the fingerprint, even when the version name is reused.
func Key(fingerprint string, t calculator.Trip) string {
	return "reimburse:" + fingerprint + ":" + t.Key()
}

// Memory is an in-process LRU bounded by entry count. Entries older than the
// TTL are misses; a zero TTL keeps them until evicted.
type Memory struct {
	lru *expirable.LRU[string, float64]
}

func NewMemory(limit int, ttl time.Duration) *Memory {
	if limit <= 0 {
		limit = 10000
	}
	return &Memory{lru: expirable.NewLRU[string, float64](limit, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (float64, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Set(_ context.Context, key string, value float64) error {
	m.lru.Add(key, value)
	return nil
}

func (m *Memory) Len() int { return m.lru.Len() }

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
