package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reimburse/internal/cache"
	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func TestOpenAndClose(t *testing.T) {
	env, err := Open(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, env.Store)
	assert.IsType(t, &cache.Memory{}, env.Cache)
	assert.NoError(t, env.Close())
}

func TestOpenWithoutStoreOrCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = ""
	cfg.Cache.Backend = "none"
	env, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, env.Store)
	assert.Nil(t, env.Cache)
	assert.NoError(t, env.Close())

	_, err = env.Parameters(context.Background(), "store:latest")
	assert.Error(t, err)
}

func TestParametersSources(t *testing.T) {
	ctx := context.Background()
	env, err := Open(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer env.Close()

	p, err := env.Parameters(ctx, "baseline")
	require.NoError(t, err)
	assert.Equal(t, calculator.VersionBaseline, p.Version)

	_, err = env.Parameters(ctx, "store:latest")
	assert.ErrorIs(t, err, store.ErrNotFound)

	tuned, err := calculator.Optimized().With("day1_mile_rate", 0.6)
	require.NoError(t, err)
	tuned.Version = "tuned"
	_, err = env.Store.SaveParameters(ctx, tuned, "test", nil)
	require.NoError(t, err)

	got, err := env.Parameters(ctx, "store:tuned")
	require.NoError(t, err)
	assert.Equal(t, 0.6, got.SingleDay.MileRate)

	latest, err := env.Parameters(ctx, "store:latest")
	require.NoError(t, err)
	assert.Equal(t, "tuned", latest.Version)

	_, err = env.Parameters(ctx, "store:missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
