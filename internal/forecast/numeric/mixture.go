package numeric

import (
	"fmt"
	"sort"
)

// Scenario is one weighted component of a mixture forecast: a triangular
// distribution over [LowerBound, UpperBound] peaking at Mode.
type Scenario struct {
	Mode       float64
	LowerBound float64
	UpperBound float64
	Weight     float64
}

// cdf evaluates this scenario's triangular CDF at x.
func (s Scenario) cdf(x float64) float64 {
	switch {
	case x <= s.LowerBound:
		return 0
	case x >= s.UpperBound:
		return 1
	case x <= s.Mode:
		if s.Mode == s.LowerBound {
			return 0
		}
		return (x - s.LowerBound) * (x - s.LowerBound) / ((s.UpperBound - s.LowerBound) * (s.Mode - s.LowerBound))
	default:
		if s.Mode == s.UpperBound {
			return 1
		}
		return 1 - (s.UpperBound-x)*(s.UpperBound-x)/((s.UpperBound-s.LowerBound)*(s.UpperBound-s.Mode))
	}
}

// mixtureCDF evaluates the weight-averaged CDF of a set of scenarios at x.
func mixtureCDF(scenarios []Scenario, x float64) float64 {
	total := 0.0
	for _, s := range scenarios {
		total += s.Weight * s.cdf(x)
	}
	return total
}

var standardPercentileMarks = []int{10, 20, 40, 60, 80, 90}

// MixtureToPercentiles collapses a weighted scenario mixture into the six
// standard percentile marks (10/20/40/60/80/90) by piecewise-linear
// inversion of the mixture's weight-averaged CDF, so it can feed the same
// Distribution.CDF pipeline as a directly declared percentile forecast.
//
// Weights must sum to 1 (within floating-point tolerance).
func MixtureToPercentiles(scenarios []Scenario, lowerBound, upperBound float64) (map[int]float64, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("mixture must have at least one scenario")
	}
	sum := 0.0
	for _, s := range scenarios {
		sum += s.Weight
	}
	if sum < 0.99 || sum > 1.01 {
		return nil, fmt.Errorf("scenario weights must sum to 1, got %g", sum)
	}

	const steps = 2000
	xs := make([]float64, steps+1)
	cdfs := make([]float64, steps+1)
	step := (upperBound - lowerBound) / float64(steps)
	for i := 0; i <= steps; i++ {
		x := lowerBound + float64(i)*step
		xs[i] = x
		cdfs[i] = mixtureCDF(scenarios, x)
	}

	invert := func(target float64) float64 {
		idx := sort.SearchFloat64s(cdfs, target)
		if idx <= 0 {
			return xs[0]
		}
		if idx >= len(cdfs) {
			return xs[len(xs)-1]
		}
		loCDF, hiCDF := cdfs[idx-1], cdfs[idx]
		if hiCDF == loCDF {
			return xs[idx]
		}
		frac := (target - loCDF) / (hiCDF - loCDF)
		return xs[idx-1] + frac*(xs[idx]-xs[idx-1])
	}

	out := make(map[int]float64, len(standardPercentileMarks))
	for _, mark := range standardPercentileMarks {
		out[mark] = invert(float64(mark) / 100)
	}
	return out, nil
}
