package inspection

import "math"

// Trend classifies the direction and steadiness of an ordered measurement
// sequence. Stable, Increasing, and Decreasing are mutually exclusive;
// Fluctuating is derived independently and may combine with any of them.
type Trend struct {
	Stable      bool    `json:"stable"`
	Increasing  bool    `json:"increasing"`
	Decreasing  bool    `json:"decreasing"`
	Fluctuating bool    `json:"fluctuating"`
	AvgDiff     float64 `json:"avgDiff"`
	StdDev      float64 `json:"stdDev"`
}

// ClassifyTrend examines successive differences of the values: their mean
// decides direction, their population standard deviation decides steadiness.
// Fewer than two values yield all-false flags.
func ClassifyTrend(values []float64) Trend {
	if len(values) < 2 {
		return Trend{}
	}

	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}

	var sum float64
	for _, d := range diffs {
		sum += d
	}
	avg := sum / float64(len(diffs))

	var variance float64
	for _, d := range diffs {
		variance += (d - avg) * (d - avg)
	}
	variance /= float64(len(diffs))
	stdDev := math.Sqrt(variance)

	t := Trend{AvgDiff: avg, StdDev: stdDev}
	switch {
	// <= so a perfectly flat sequence (zero mean, zero deviation) is stable.
	case math.Abs(avg) <= 0.1*stdDev:
		t.Stable = true
	case avg > 0:
		t.Increasing = true
	default:
		t.Decreasing = true
	}
	if stdDev > 2*math.Abs(avg) {
		t.Fluctuating = true
	}
	return t
}
