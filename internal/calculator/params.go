package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameters is returned when a parameter set holds a non-finite value.
var ErrInvalidParameters = errors.New("invalid reimbursement parameters")

// Parameters holds every tunable constant of the five branches. Values are
// plain data: copy before changing and hand the copy to a Calculator.
type Parameters struct {
	Version   string          `json:"version" yaml:"version"`
	SingleDay SingleDayParams `json:"single_day" yaml:"single_day"`
	TwoDay    TwoDayParams    `json:"two_day" yaml:"two_day"`
	ThreeDay  ThreeDayParams  `json:"three_day" yaml:"three_day"`
	Mid       MidParams       `json:"mid" yaml:"mid"`
	Long      LongParams      `json:"long" yaml:"long"`
}

type SingleDayParams struct {
	MileRate              float64 `json:"mile_rate" yaml:"mile_rate"`
	ReceiptRate           float64 `json:"receipt_rate" yaml:"receipt_rate"`
	HighMilesThreshold    float64 `json:"high_miles_threshold" yaml:"high_miles_threshold"`
	HighMilesPenalty      float64 `json:"high_miles_penalty" yaml:"high_miles_penalty"`
	HighReceiptsThreshold float64 `json:"high_receipts_threshold" yaml:"high_receipts_threshold"`
	HighReceiptsPenalty   float64 `json:"high_receipts_penalty" yaml:"high_receipts_penalty"`
	RatioThreshold        float64 `json:"ratio_threshold" yaml:"ratio_threshold"`
	RatioPenalty          float64 `json:"ratio_penalty" yaml:"ratio_penalty"`
}

type TwoDayParams struct {
	BaseAmount         float64 `json:"base_amount" yaml:"base_amount"`
	MileRate           float64 `json:"mile_rate" yaml:"mile_rate"`
	ReceiptRate        float64 `json:"receipt_rate" yaml:"receipt_rate"`
	LowMilesThreshold  float64 `json:"low_miles_threshold" yaml:"low_miles_threshold"`
	LowMilesBonus      float64 `json:"low_miles_bonus" yaml:"low_miles_bonus"`
	HighMilesThreshold float64 `json:"high_miles_threshold" yaml:"high_miles_threshold"`
	HighMilesPenalty   float64 `json:"high_miles_penalty" yaml:"high_miles_penalty"`
}

type ThreeDayParams struct {
	BaseAmount            float64 `json:"base_amount" yaml:"base_amount"`
	MileRate              float64 `json:"mile_rate" yaml:"mile_rate"`
	ReceiptRate           float64 `json:"receipt_rate" yaml:"receipt_rate"`
	LowReceiptsThreshold  float64 `json:"low_receipts_threshold" yaml:"low_receipts_threshold"`
	LowReceiptsBonus      float64 `json:"low_receipts_bonus" yaml:"low_receipts_bonus"`
	HighMilesThreshold    float64 `json:"high_miles_threshold" yaml:"high_miles_threshold"`
	HighMilesPenalty      float64 `json:"high_miles_penalty" yaml:"high_miles_penalty"`
	HighReceiptsThreshold float64 `json:"high_receipts_threshold" yaml:"high_receipts_threshold"`
	HighReceiptsPenalty   float64 `json:"high_receipts_penalty" yaml:"high_receipts_penalty"`
}

type MidParams struct {
	DailyRate             float64 `json:"daily_rate" yaml:"daily_rate"`
	MileRate              float64 `json:"mile_rate" yaml:"mile_rate"`
	ReceiptRate           float64 `json:"receipt_rate" yaml:"receipt_rate"`
	LowMilesThreshold     float64 `json:"low_miles_threshold" yaml:"low_miles_threshold"`
	LowMilesBonus         float64 `json:"low_miles_bonus" yaml:"low_miles_bonus"`
	HighMilesThreshold    float64 `json:"high_miles_threshold" yaml:"high_miles_threshold"`
	HighMilesPenalty      float64 `json:"high_miles_penalty" yaml:"high_miles_penalty"`
	HighReceiptsThreshold float64 `json:"high_receipts_threshold" yaml:"high_receipts_threshold"`
	HighReceiptsPenalty   float64 `json:"high_receipts_penalty" yaml:"high_receipts_penalty"`
}

type LongParams struct {
	DailyRate                  float64 `json:"daily_rate" yaml:"daily_rate"`
	MileRate                   float64 `json:"mile_rate" yaml:"mile_rate"`
	ReceiptRate                float64 `json:"receipt_rate" yaml:"receipt_rate"`
	Bonus                      float64 `json:"bonus" yaml:"bonus"`
	HustleRatioThreshold       float64 `json:"hustle_ratio_threshold" yaml:"hustle_ratio_threshold"`
	HustleMileBonus            float64 `json:"hustle_mile_bonus" yaml:"hustle_mile_bonus"`
	HustleBonusAmount          float64 `json:"hustle_bonus_amount" yaml:"hustle_bonus_amount"`
	HighDailySpendingThreshold float64 `json:"high_daily_spending_threshold" yaml:"high_daily_spending_threshold"`
	HighDailySpendingPenalty   float64 `json:"high_daily_spending_penalty" yaml:"high_daily_spending_penalty"`
	VacationPenalty            float64 `json:"vacation_penalty" yaml:"vacation_penalty"`
	HighMilesThreshold         float64 `json:"high_miles_threshold" yaml:"high_miles_threshold"`
	HighMilesPenalty           float64 `json:"high_miles_penalty" yaml:"high_miles_penalty"`
	HighReceiptsThreshold      float64 `json:"high_receipts_threshold" yaml:"high_receipts_threshold"`
	HighReceiptsPenalty        float64 `json:"high_receipts_penalty" yaml:"high_receipts_penalty"`
	Cap10Plus                  float64 `json:"cap_10_plus" yaml:"cap_10_plus"`
	Cap7to9Base                float64 `json:"cap_7_to_9_base" yaml:"cap_7_to_9_base"`
	CapPerDay                  float64 `json:"cap_per_day" yaml:"cap_per_day"`
	// CapDefault mirrors the optimizer vector; dispatch never reaches it.
	CapDefault float64 `json:"cap_default" yaml:"cap_default"`
}

const (
	VersionBaseline  = "baseline-v1"
	VersionOptimized = "de-optimized-v1"
)

// Baseline returns the manually tuned parameter set.
func Baseline() *Parameters {
	return &Parameters{
		Version: VersionBaseline,
		SingleDay: SingleDayParams{
			MileRate:              0.5,
			ReceiptRate:           0.6,
			HighMilesThreshold:    400,
			HighMilesPenalty:      0.9,
			HighReceiptsThreshold: 1000,
			HighReceiptsPenalty:   0.9,
			RatioThreshold:        0.8,
			RatioPenalty:          0.4,
		},
		TwoDay: TwoDayParams{
			BaseAmount:         40,
			MileRate:           0.8,
			ReceiptRate:        0.6,
			LowMilesThreshold:  75,
			LowMilesBonus:      1.1,
			HighMilesThreshold: 300,
			HighMilesPenalty:   0.8,
		},
		ThreeDay: ThreeDayParams{
			BaseAmount:            100,
			MileRate:              0.6,
			ReceiptRate:           0.8,
			LowReceiptsThreshold:  500,
			LowReceiptsBonus:      1.1,
			HighMilesThreshold:    800,
			HighMilesPenalty:      0.8,
			HighReceiptsThreshold: 1500,
			HighReceiptsPenalty:   0.7,
		},
		Mid: MidParams{
			DailyRate:             50,
			MileRate:              0.6,
			ReceiptRate:           0.6,
			LowMilesThreshold:     600,
			LowMilesBonus:         1.1,
			HighMilesThreshold:    1000,
			HighMilesPenalty:      0.9,
			HighReceiptsThreshold: 2000,
			HighReceiptsPenalty:   0.8,
		},
		Long: LongParams{
			DailyRate:                  50,
			MileRate:                   0.55,
			ReceiptRate:                0.65,
			Bonus:                      50,
			HustleRatioThreshold:       0.8,
			HustleMileBonus:            1.05,
			HustleBonusAmount:          25,
			HighDailySpendingThreshold: 120,
			HighDailySpendingPenalty:   0.9,
			VacationPenalty:            0.9,
			HighMilesThreshold:         800,
			HighMilesPenalty:           0.8,
			HighReceiptsThreshold:      1500,
			HighReceiptsPenalty:        0.75,
			Cap10Plus:                  2000,
			Cap7to9Base:                1800,
			CapPerDay:                  25,
			CapDefault:                 1500,
		},
	}
}

// Optimized returns the differential-evolution result, the canonical set.
func Optimized() *Parameters {
	return &Parameters{
		Version: VersionOptimized,
		SingleDay: SingleDayParams{
			MileRate:              0.5006,
			ReceiptRate:           0.6969,
			HighMilesThreshold:    186.1,
			HighMilesPenalty:      0.9043,
			HighReceiptsThreshold: 1770.4,
			HighReceiptsPenalty:   0.7614,
			RatioThreshold:        1.3621,
			RatioPenalty:          0.8,
		},
		TwoDay: TwoDayParams{
			BaseAmount:         67.10,
			MileRate:           0.8181,
			ReceiptRate:        0.6038,
			LowMilesThreshold:  120.2,
			LowMilesBonus:      1.0948,
			HighMilesThreshold: 375.4,
			HighMilesPenalty:   0.7971,
		},
		ThreeDay: ThreeDayParams{
			BaseAmount:            146.35,
			MileRate:              0.3748,
			ReceiptRate:           0.8115,
			LowReceiptsThreshold:  257.6,
			LowReceiptsBonus:      1.3,
			HighMilesThreshold:    1054.9,
			HighMilesPenalty:      0.8087,
			HighReceiptsThreshold: 1756.9,
			HighReceiptsPenalty:   0.7014,
		},
		Mid: MidParams{
			DailyRate:             69.452,
			MileRate:              0.4786,
			ReceiptRate:           0.5925,
			LowMilesThreshold:     786.4,
			LowMilesBonus:         1.0893,
			HighMilesThreshold:    1364.6,
			HighMilesPenalty:      0.5967,
			HighReceiptsThreshold: 1988.5,
			HighReceiptsPenalty:   0.8019,
		},
		Long: LongParams{
			DailyRate:                  38.070,
			MileRate:                   0.5547,
			ReceiptRate:                0.8547,
			Bonus:                      28.267,
			HustleRatioThreshold:       0.7006,
			HustleMileBonus:            1.2,
			HustleBonusAmount:          8.144,
			HighDailySpendingThreshold: 165.7,
			HighDailySpendingPenalty:   0.9014,
			VacationPenalty:            0.9099,
			HighMilesThreshold:         897.8,
			HighMilesPenalty:           1.0,
			HighReceiptsThreshold:      1888.2,
			HighReceiptsPenalty:        0.6597,
			Cap10Plus:                  2000.0,
			Cap7to9Base:                1586.825,
			CapPerDay:                  32.398,
			CapDefault:                 1505.544,
		},
	}
}

// Clone returns an independent copy. Parameters holds no reference types, so
// a value copy is deep.
func (p *Parameters) Clone() *Parameters {
	c := *p
	return &c
}

// Validate rejects parameter sets that would make the formula non-finite.
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil", ErrInvalidParameters)
	}
	for i, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParameters, fields[i].name, v)
		}
	}
	return nil
}
