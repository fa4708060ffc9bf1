package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/calculator"
)

func TestParseTrip(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    calculator.Trip
		wantErr bool
	}{
		{"plain", []string{"3", "93", "1.42"}, calculator.Trip{Days: 3, Miles: 93, Receipts: 1.42}, false},
		{"whole float days", []string{"5.0", "0", "0"}, calculator.Trip{Days: 5}, false},
		{"zero days", []string{"0", "10", "10"}, calculator.Trip{Miles: 10, Receipts: 10}, false},
		{"fractional days", []string{"2.5", "10", "10"}, calculator.Trip{}, true},
		{"huge days", []string{"1e300", "10", "10"}, calculator.Trip{}, true},
		{"huge negative days", []string{"-1e300", "10", "10"}, calculator.Trip{}, true},
		{"days just past int range", []string{"9.3e18", "10", "10"}, calculator.Trip{}, true},
		{"negative days", []string{"-3", "10", "10"}, calculator.Trip{Days: -3, Miles: 10, Receipts: 10}, false},
		{"bad miles", []string{"2", "ten", "10"}, calculator.Trip{}, true},
		{"negative receipts", []string{"2", "10", "-1"}, calculator.Trip{}, true},
		{"nan", []string{"2", "NaN", "1"}, calculator.Trip{}, true},
		{"too few", []string{"2", "10"}, calculator.Trip{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTrip(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseTrip(nil)
	assert.ErrorIs(t, err, errUsage)
}
