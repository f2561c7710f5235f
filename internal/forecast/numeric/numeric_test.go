package numeric

import (
	"math"
	"testing"
)

func TestDistributionCDF_LinearClosedBounds(t *testing.T) {
	dist := &Distribution{
		DeclaredPercentiles: []Percentile{
			{Percentile: 0.1, Value: 100},
			{Percentile: 0.2, Value: 120},
			{Percentile: 0.4, Value: 150},
			{Percentile: 0.6, Value: 180},
			{Percentile: 0.8, Value: 220},
			{Percentile: 0.9, Value: 280},
		},
		OpenUpperBound: false,
		OpenLowerBound: false,
		UpperBound:     500,
		LowerBound:     0,
		StandardizeCDF: true,
	}

	cdf, err := dist.CDF()
	if err != nil {
		t.Fatalf("CDF() error: %v", err)
	}
	if len(cdf) != DefaultCDFSize {
		t.Fatalf("expected %d points, got %d", DefaultCDFSize, len(cdf))
	}
	if cdf[0].Percentile != 0 {
		t.Errorf("expected CDF to start at 0 for closed lower bound, got %g", cdf[0].Percentile)
	}
	if math.Abs(cdf[len(cdf)-1].Percentile-1) > 1e-6 {
		t.Errorf("expected CDF to end near 1, got %g", cdf[len(cdf)-1].Percentile)
	}
	for i := 1; i < len(cdf); i++ {
		if cdf[i].Percentile < cdf[i-1].Percentile {
			t.Fatalf("CDF not monotonic at index %d: %g < %g", i, cdf[i].Percentile, cdf[i-1].Percentile)
		}
	}
}

func TestDistributionCDF_OpenBoundsHaveSpilloverMass(t *testing.T) {
	dist := &Distribution{
		DeclaredPercentiles: []Percentile{
			{Percentile: 0.1, Value: 100},
			{Percentile: 0.5, Value: 150},
			{Percentile: 0.9, Value: 250},
		},
		OpenUpperBound: true,
		OpenLowerBound: true,
		UpperBound:     500,
		LowerBound:     0,
		StandardizeCDF: true,
	}

	cdf, err := dist.CDF()
	if err != nil {
		t.Fatalf("CDF() error: %v", err)
	}
	if cdf[0].Percentile <= 0 {
		t.Errorf("expected positive mass below the open lower bound, got %g", cdf[0].Percentile)
	}
	if cdf[len(cdf)-1].Percentile >= 1 {
		t.Errorf("expected residual mass above the open upper bound, got %g", cdf[len(cdf)-1].Percentile)
	}
}

func TestDistributionCDF_LogScaled(t *testing.T) {
	zeroPoint := -10.0
	dist := &Distribution{
		DeclaredPercentiles: []Percentile{
			{Percentile: 0.1, Value: 10},
			{Percentile: 0.5, Value: 100},
			{Percentile: 0.9, Value: 1000},
		},
		OpenUpperBound: false,
		OpenLowerBound: false,
		UpperBound:     10000,
		LowerBound:     1,
		ZeroPoint:      &zeroPoint,
		StandardizeCDF: true,
	}

	cdf, err := dist.CDF()
	if err != nil {
		t.Fatalf("CDF() error: %v", err)
	}
	if len(cdf) != DefaultCDFSize {
		t.Fatalf("expected %d points, got %d", DefaultCDFSize, len(cdf))
	}
}

func TestValidate_RejectsNonIncreasingPercentiles(t *testing.T) {
	dist := &Distribution{
		DeclaredPercentiles: []Percentile{
			{Percentile: 0.5, Value: 100},
			{Percentile: 0.4, Value: 120},
		},
		UpperBound: 500,
		LowerBound: 0,
	}
	if err := dist.Validate(); err == nil {
		t.Fatal("expected error for non-increasing percentiles")
	}
}

func TestValidate_RejectsTooFewPercentiles(t *testing.T) {
	dist := &Distribution{
		DeclaredPercentiles: []Percentile{{Percentile: 0.5, Value: 100}},
		UpperBound:          500,
		LowerBound:          0,
	}
	if err := dist.Validate(); err == nil {
		t.Fatal("expected error for fewer than 2 percentiles")
	}
}

func TestPercentilesToCDF(t *testing.T) {
	cdf, err := PercentilesToCDF(map[int]float64{
		10: 100, 20: 120, 40: 150, 60: 180, 80: 220, 90: 280,
	}, 500, 0, true, false, nil, 201)
	if err != nil {
		t.Fatalf("PercentilesToCDF() error: %v", err)
	}
	if len(cdf) != 201 {
		t.Fatalf("expected 201 points, got %d", len(cdf))
	}
}

func TestMixtureToPercentiles(t *testing.T) {
	scenarios := []Scenario{
		{Mode: 50, LowerBound: 0, UpperBound: 100, Weight: 0.5},
		{Mode: 150, LowerBound: 50, UpperBound: 300, Weight: 0.5},
	}
	percentiles, err := MixtureToPercentiles(scenarios, 0, 300)
	if err != nil {
		t.Fatalf("MixtureToPercentiles() error: %v", err)
	}
	for _, mark := range standardPercentileMarks {
		if _, ok := percentiles[mark]; !ok {
			t.Errorf("missing percentile mark %d", mark)
		}
	}
	if percentiles[10] >= percentiles[90] {
		t.Errorf("expected p10 < p90, got p10=%g p90=%g", percentiles[10], percentiles[90])
	}
}

func TestMixtureToPercentiles_RejectsBadWeights(t *testing.T) {
	scenarios := []Scenario{{Mode: 50, LowerBound: 0, UpperBound: 100, Weight: 0.3}}
	if _, err := MixtureToPercentiles(scenarios, 0, 100); err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}
}
