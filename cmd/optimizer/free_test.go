package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/calculator"
)

func TestParseFree(t *testing.T) {
	got, err := parseFree("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseFree("day2_base, day7_bonus")
	require.NoError(t, err)
	assert.Equal(t, []string{"day2_base", "day7_bonus"}, got)

	got, err = parseFree("2d,day7_bonus")
	require.NoError(t, err)
	assert.Equal(t, append(calculator.NamesFor(calculator.BucketTwoDay), "day7_bonus"), got)

	_, err = parseFree("day9_rate")
	assert.ErrorIs(t, err, calculator.ErrUnknownParameter)
}

func TestRatioGridWithinBounds(t *testing.T) {
	names := calculator.Names()
	bounds := calculator.Bounds()
	idx := map[string]int{}
	for i, n := range names {
		idx[n] = i
	}
	for _, axis := range ratioGrid(7) {
		b := bounds[idx[axis.Name]]
		require.Len(t, axis.Values, 7)
		assert.Equal(t, b.Lo, axis.Values[0])
		assert.Equal(t, b.Hi, axis.Values[len(axis.Values)-1])
	}
	assert.Equal(t, "all 51", formatFree(nil))
}
