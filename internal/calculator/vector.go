package calculator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
)

// ErrUnknownParameter is returned for a name outside the optimizer vector.
var ErrUnknownParameter = errors.New("unknown parameter")

// Bound is the closed search interval of one parameter.
type Bound struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

func (b Bound) Clamp(v float64) float64 {
	if v < b.Lo {
		return b.Lo
	}
	if v > b.Hi {
		return b.Hi
	}
	return v
}

type field struct {
	name   string
	bucket Bucket
	bound  Bound
	ref    func(*Parameters) *float64
}

// fields is the optimizer vector layout. Order is part of the file format of
// stored runs: append only.
var fields = []field{
	{"day1_mile_rate", BucketSingleDay, Bound{0.1, 2.0}, func(p *Parameters) *float64 { return &p.SingleDay.MileRate }},
	{"day1_receipt_rate", BucketSingleDay, Bound{0.1, 2.0}, func(p *Parameters) *float64 { return &p.SingleDay.ReceiptRate }},
	{"day1_high_miles_threshold", BucketSingleDay, Bound{100, 800}, func(p *Parameters) *float64 { return &p.SingleDay.HighMilesThreshold }},
	{"day1_high_miles_penalty", BucketSingleDay, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.SingleDay.HighMilesPenalty }},
	{"day1_high_receipts_threshold", BucketSingleDay, Bound{500, 2000}, func(p *Parameters) *float64 { return &p.SingleDay.HighReceiptsThreshold }},
	{"day1_high_receipts_penalty", BucketSingleDay, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.SingleDay.HighReceiptsPenalty }},
	{"day1_ratio_threshold", BucketSingleDay, Bound{0.3, 1.5}, func(p *Parameters) *float64 { return &p.SingleDay.RatioThreshold }},
	{"day1_ratio_penalty", BucketSingleDay, Bound{0.1, 0.8}, func(p *Parameters) *float64 { return &p.SingleDay.RatioPenalty }},

	{"day2_base", BucketTwoDay, Bound{0, 100}, func(p *Parameters) *float64 { return &p.TwoDay.BaseAmount }},
	{"day2_mile_rate", BucketTwoDay, Bound{0.1, 1.5}, func(p *Parameters) *float64 { return &p.TwoDay.MileRate }},
	{"day2_receipt_rate", BucketTwoDay, Bound{0.1, 1.5}, func(p *Parameters) *float64 { return &p.TwoDay.ReceiptRate }},
	{"day2_low_miles_threshold", BucketTwoDay, Bound{25, 150}, func(p *Parameters) *float64 { return &p.TwoDay.LowMilesThreshold }},
	{"day2_low_miles_bonus", BucketTwoDay, Bound{1.0, 1.3}, func(p *Parameters) *float64 { return &p.TwoDay.LowMilesBonus }},
	{"day2_high_miles_threshold", BucketTwoDay, Bound{100, 500}, func(p *Parameters) *float64 { return &p.TwoDay.HighMilesThreshold }},
	{"day2_high_miles_penalty", BucketTwoDay, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.TwoDay.HighMilesPenalty }},

	{"day3_base", BucketThreeDay, Bound{0, 200}, func(p *Parameters) *float64 { return &p.ThreeDay.BaseAmount }},
	{"day3_mile_rate", BucketThreeDay, Bound{0.1, 1.2}, func(p *Parameters) *float64 { return &p.ThreeDay.MileRate }},
	{"day3_receipt_rate", BucketThreeDay, Bound{0.1, 1.2}, func(p *Parameters) *float64 { return &p.ThreeDay.ReceiptRate }},
	{"day3_low_receipts_threshold", BucketThreeDay, Bound{200, 800}, func(p *Parameters) *float64 { return &p.ThreeDay.LowReceiptsThreshold }},
	{"day3_low_receipts_bonus", BucketThreeDay, Bound{1.0, 1.3}, func(p *Parameters) *float64 { return &p.ThreeDay.LowReceiptsBonus }},
	{"day3_high_miles_threshold", BucketThreeDay, Bound{400, 1200}, func(p *Parameters) *float64 { return &p.ThreeDay.HighMilesThreshold }},
	{"day3_high_miles_penalty", BucketThreeDay, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.ThreeDay.HighMilesPenalty }},
	{"day3_high_receipts_threshold", BucketThreeDay, Bound{800, 2500}, func(p *Parameters) *float64 { return &p.ThreeDay.HighReceiptsThreshold }},
	{"day3_high_receipts_penalty", BucketThreeDay, Bound{0.4, 1.0}, func(p *Parameters) *float64 { return &p.ThreeDay.HighReceiptsPenalty }},

	{"day46_daily_rate", BucketMid, Bound{20, 80}, func(p *Parameters) *float64 { return &p.Mid.DailyRate }},
	{"day46_mile_rate", BucketMid, Bound{0.1, 1.0}, func(p *Parameters) *float64 { return &p.Mid.MileRate }},
	{"day46_receipt_rate", BucketMid, Bound{0.1, 1.0}, func(p *Parameters) *float64 { return &p.Mid.ReceiptRate }},
	{"day46_low_miles_threshold", BucketMid, Bound{300, 800}, func(p *Parameters) *float64 { return &p.Mid.LowMilesThreshold }},
	{"day46_low_miles_bonus", BucketMid, Bound{1.0, 1.3}, func(p *Parameters) *float64 { return &p.Mid.LowMilesBonus }},
	{"day46_high_miles_threshold", BucketMid, Bound{600, 1500}, func(p *Parameters) *float64 { return &p.Mid.HighMilesThreshold }},
	{"day46_high_miles_penalty", BucketMid, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.Mid.HighMilesPenalty }},
	{"day46_high_receipts_threshold", BucketMid, Bound{1000, 3000}, func(p *Parameters) *float64 { return &p.Mid.HighReceiptsThreshold }},
	{"day46_high_receipts_penalty", BucketMid, Bound{0.4, 1.0}, func(p *Parameters) *float64 { return &p.Mid.HighReceiptsPenalty }},

	{"day7_daily_rate", BucketLong, Bound{20, 80}, func(p *Parameters) *float64 { return &p.Long.DailyRate }},
	{"day7_mile_rate", BucketLong, Bound{0.1, 1.0}, func(p *Parameters) *float64 { return &p.Long.MileRate }},
	{"day7_receipt_rate", BucketLong, Bound{0.1, 1.0}, func(p *Parameters) *float64 { return &p.Long.ReceiptRate }},
	{"day7_bonus", BucketLong, Bound{0, 100}, func(p *Parameters) *float64 { return &p.Long.Bonus }},
	{"day7_hustle_ratio_threshold", BucketLong, Bound{0.3, 1.5}, func(p *Parameters) *float64 { return &p.Long.HustleRatioThreshold }},
	{"day7_hustle_mile_bonus", BucketLong, Bound{1.0, 1.2}, func(p *Parameters) *float64 { return &p.Long.HustleMileBonus }},
	{"day7_hustle_bonus_amount", BucketLong, Bound{0, 100}, func(p *Parameters) *float64 { return &p.Long.HustleBonusAmount }},
	{"day7_high_daily_spending_threshold", BucketLong, Bound{80, 200}, func(p *Parameters) *float64 { return &p.Long.HighDailySpendingThreshold }},
	{"day7_high_daily_spending_penalty", BucketLong, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.Long.HighDailySpendingPenalty }},
	{"day7_vacation_penalty", BucketLong, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.Long.VacationPenalty }},
	{"day7_high_miles_threshold", BucketLong, Bound{400, 1200}, func(p *Parameters) *float64 { return &p.Long.HighMilesThreshold }},
	{"day7_high_miles_penalty", BucketLong, Bound{0.5, 1.0}, func(p *Parameters) *float64 { return &p.Long.HighMilesPenalty }},
	{"day7_high_receipts_threshold", BucketLong, Bound{800, 2500}, func(p *Parameters) *float64 { return &p.Long.HighReceiptsThreshold }},
	{"day7_high_receipts_penalty", BucketLong, Bound{0.4, 1.0}, func(p *Parameters) *float64 { return &p.Long.HighReceiptsPenalty }},
	{"day7_cap_10plus", BucketLong, Bound{1500, 2500}, func(p *Parameters) *float64 { return &p.Long.Cap10Plus }},
	{"day7_cap_7to9", BucketLong, Bound{1200, 2200}, func(p *Parameters) *float64 { return &p.Long.Cap7to9Base }},
	{"day7_cap_per_day", BucketLong, Bound{10, 50}, func(p *Parameters) *float64 { return &p.Long.CapPerDay }},
	{"day7_cap_default", BucketLong, Bound{1000, 2000}, func(p *Parameters) *float64 { return &p.Long.CapDefault }},
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(fields))
	for i, f := range fields {
		m[f.name] = i
	}
	return m
}()

// Names returns the optimizer vector names in order.
func Names() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

// Bounds returns the search bounds aligned with Names.
func Bounds() []Bound {
	out := make([]Bound, len(fields))
	for i, f := range fields {
		out[i] = f.bound
	}
	return out
}

// NamesFor returns the vector names read by one bucket's branch.
func NamesFor(b Bucket) []string {
	var out []string
	for _, f := range fields {
		if f.bucket == b {
			out = append(out, f.name)
		}
	}
	return out
}

func (p *Parameters) Vector() []float64 {
	out := make([]float64, len(fields))
	for i, f := range fields {
		out[i] = *f.ref(p)
	}
	return out
}

// Fingerprint hashes the parameter values, ignoring Version. Sets with equal
// values share a fingerprint whatever they are called.
func (p *Parameters) Fingerprint() string {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range p.Vector() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// FromVector builds a parameter set from an optimizer vector.
func FromVector(version string, v []float64) (*Parameters, error) {
	if len(v) != len(fields) {
		return nil, fmt.Errorf("%w: vector has %d values, want %d", ErrInvalidParameters, len(v), len(fields))
	}
	p := &Parameters{Version: version}
	for i, f := range fields {
		*f.ref(p) = v[i]
	}
	return p, nil
}

// Get reads one named value.
func (p *Parameters) Get(name string) (float64, error) {
	i, ok := fieldIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return *fields[i].ref(p), nil
}

// With returns a copy of p with one named value replaced.
func (p *Parameters) With(name string, value float64) (*Parameters, error) {
	i, ok := fieldIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	c := p.Clone()
	*fields[i].ref(c) = value
	return c, nil
}

// Clamp projects v onto the search bounds in place and returns it.
func Clamp(v []float64) []float64 {
	for i := range v {
		if i < len(fields) {
			v[i] = fields[i].bound.Clamp(v[i])
		}
	}
	return v
}
