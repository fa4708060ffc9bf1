package optimize

import (
	"math"

	"reimburse/internal/calculator"
)

// ParamChange is one parameter that moved between two sets.
type ParamChange struct {
	Name string  `json:"name"`
	Old  float64 `json:"old"`
	New  float64 `json:"new"`
	// Pct is the relative change in percent; 100 when Old is zero.
	Pct float64 `json:"pct"`
}

// Changes lists parameters whose relative change exceeds minPct, in vector
// order.
func Changes(old, new *calculator.Parameters, minPct float64) []ParamChange {
	names := calculator.Names()
	ov, nv := old.Vector(), new.Vector()
	var out []ParamChange
	for i, name := range names {
		if ov[i] == nv[i] {
			continue
		}
		pct := 100.0
		if ov[i] != 0 {
			pct = math.Abs(nv[i]-ov[i]) / math.Abs(ov[i]) * 100
		}
		if pct > minPct {
			out = append(out, ParamChange{Name: name, Old: ov[i], New: nv[i], Pct: pct})
		}
	}
	return out
}
