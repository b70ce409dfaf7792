package classifier

import (
	"math"

	"purchase-drivers/internal/taxonomy"
)

// Proportions is each driver's share of the total score.
type Proportions map[taxonomy.Driver]float64

// Strings keys the proportions by driver name, for serialization.
func (p Proportions) Strings() map[string]float64 {
	out := make(map[string]float64, len(p))
	for d, v := range p {
		out[string(d)] = v
	}
	return out
}

// Normalize divides every score by the total, rounded to 4 decimals.
// A zero total yields all zeros rather than a uniform split.
func Normalize(scores DriverScores) Proportions {
	total := scores.Total()
	if total == 0 {
		total = 1
	}
	out := make(Proportions, len(scores))
	for d, v := range scores {
		out[d] = round4(float64(v) / float64(total))
	}
	return out
}

func round4(v float64) float64 {
	return math.RoundToEven(v*1e4) / 1e4
}
