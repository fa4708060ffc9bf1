package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reimburse/internal/calculator"
	"reimburse/internal/evaluate"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "params.db")
	s, err := Open(context.Background(), Config{Path: path, MaxOpenConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Close())

	again, err := Open(context.Background(), Config{Path: path}, zap.NewNop())
	require.NoError(t, err)
	defer again.Close()

	var n int
	require.NoError(t, again.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	migrations, err := loadMigrations()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), n)
	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "parameter_sets", migrations[0].name)
}

func TestSaveAndGet(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	mae := 12.5
	saved, err := s.SaveParameters(ctx, calculator.Optimized(), "seed", &mae)
	require.NoError(t, err)
	assert.Positive(t, saved.ID)

	got, err := s.GetParameters(ctx, calculator.VersionOptimized)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "seed", got.Source)
	require.NotNil(t, got.MAE)
	assert.Equal(t, 12.5, *got.MAE)
	assert.Equal(t, calculator.Optimized(), got.Params)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.SaveParameters(ctx, calculator.Optimized(), "again", nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.GetParameters(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, _ := openTemp(t)
	p := calculator.Baseline()
	p.Version = ""
	_, err := s.SaveParameters(context.Background(), p, "", nil)
	assert.ErrorIs(t, err, calculator.ErrInvalidParameters)
}

func TestLatestAndList(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	_, err := s.LatestParameters(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, v := range []string{"a", "b", "c"} {
		p := calculator.Baseline()
		p.Version = v
		_, err := s.SaveParameters(ctx, p, "test", nil)
		require.NoError(t, err)
	}

	latest, err := s.LatestParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Version)
	assert.Nil(t, latest.MAE)

	all, err := s.ListParameters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Version)
	assert.Equal(t, "a", all[2].Version)

	two, err := s.ListParameters(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestEvaluations(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	_, err := s.SaveParameters(ctx, calculator.Baseline(), "preset", nil)
	require.NoError(t, err)

	st := evaluate.Stats{N: 100, Exact: 10, Close: 30, MeanError: 4.5, MaxError: 40}
	ev, err := s.RecordEvaluation(ctx, calculator.VersionBaseline, "public_cases.json", st)
	require.NoError(t, err)
	assert.InDelta(t, 4.5*100+90*0.1, ev.Score, 1e-9)

	_, err = s.RecordEvaluation(ctx, calculator.VersionBaseline, "holdout.json", evaluate.Stats{N: 10, MeanError: 2})
	require.NoError(t, err)

	evs, err := s.Evaluations(ctx, calculator.VersionBaseline)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "public_cases.json", evs[0].Dataset)
	assert.Equal(t, 100, evs[0].Cases)

	set, err := s.GetParameters(ctx, calculator.VersionBaseline)
	require.NoError(t, err)
	require.NotNil(t, set.MAE)
	assert.Equal(t, 2.0, *set.MAE)

	_, err = s.RecordEvaluation(ctx, "nope", "x", st)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteParameters(ctx, calculator.VersionBaseline))
	evs, err = s.Evaluations(ctx, calculator.VersionBaseline)
	require.NoError(t, err)
	assert.Empty(t, evs)
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM evaluations").Scan(&n))
	assert.Zero(t, n, "evaluations cascade with their set")

	assert.ErrorIs(t, s.DeleteParameters(ctx, calculator.VersionBaseline), ErrNotFound)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), Config{}, zap.NewNop())
	assert.Error(t, err)
}
