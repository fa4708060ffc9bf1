package calculator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorLayout(t *testing.T) {
	names := Names()
	require.Len(t, names, 51)
	assert.Equal(t, "day1_mile_rate", names[0])
	assert.Equal(t, "day7_cap_default", names[len(names)-1])
	assert.Len(t, Bounds(), len(names))

	total := 0
	for _, b := range Buckets {
		total += len(NamesFor(b))
	}
	assert.Equal(t, len(names), total)
	assert.Len(t, NamesFor(BucketLong), 18)
}

func TestVectorRoundTrip(t *testing.T) {
	p := Optimized()
	back, err := FromVector(p.Version, p.Vector())
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = FromVector("short", []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestBaselineWithinBounds(t *testing.T) {
	v := Baseline().Vector()
	for i, b := range Bounds() {
		assert.GreaterOrEqual(t, v[i], b.Lo, Names()[i])
		assert.LessOrEqual(t, v[i], b.Hi, Names()[i])
	}
}

func TestWithAndGet(t *testing.T) {
	p := Optimized()
	q, err := p.With("day7_cap_10plus", 2100)
	require.NoError(t, err)

	got, err := q.Get("day7_cap_10plus")
	require.NoError(t, err)
	assert.Equal(t, 2100.0, got)
	assert.Equal(t, 2000.0, p.Long.Cap10Plus)

	_, err = p.With("day9_nope", 1)
	require.ErrorIs(t, err, ErrUnknownParameter)
	_, err = p.Get("day9_nope")
	require.ErrorIs(t, err, ErrUnknownParameter)
}

func TestClamp(t *testing.T) {
	v := Optimized().Vector()
	v[0] = -10
	v[2] = 10000
	Clamp(v)
	assert.Equal(t, 0.1, v[0])
	assert.Equal(t, 800.0, v[2])
	assert.Equal(t, 0.6969, v[1])
}

func TestParameterFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params", "best.yaml")
	require.NoError(t, SaveParameters(path, Optimized()))

	got, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, Optimized(), got)
}

func TestResolve(t *testing.T) {
	p, err := Resolve("baseline")
	require.NoError(t, err)
	assert.Equal(t, VersionBaseline, p.Version)

	p, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, VersionOptimized, p.Version)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTripKey(t *testing.T) {
	assert.Equal(t, "3_93_1.42", Trip{Days: 3, Miles: 93, Receipts: 1.42}.Key())
	assert.Equal(t, "14_1000000_2321.49", Trip{Days: 14, Miles: 1e6, Receipts: 2321.49}.Key())
	assert.Equal(t, "5_100_5.0", Trip{Days: 5, Miles: 100, Receipts: 5}.Key())
	assert.Equal(t, "1_47.5_0.0", Trip{Days: 1, Miles: 47.5, Receipts: 0}.Key())
}

func TestFingerprint(t *testing.T) {
	a := Optimized()
	b := Optimized()
	b.Version = "renamed"
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), Baseline().Fingerprint())

	b.SingleDay.MileRate = 5
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
