package orchestrator

import (
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/forecast/numeric"
	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// synthesizeCDF builds the dense, standardized CDF the platform expects for
// numeric/discrete questions, from whichever of percentiles or a scenario
// mixture the model submitted.
func synthesizeCDF(f *models.Forecast, qc composition.QuestionContext) ([]float64, error) {
	bounds := qc.NumericBounds
	rangeMin, ok1 := floatField(bounds, "range_min")
	rangeMax, ok2 := floatField(bounds, "range_max")
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("numeric question is missing range bounds; cannot synthesize a CDF")
	}
	openLower, _ := boolField(bounds, "open_lower_bound")
	openUpper, _ := boolField(bounds, "open_upper_bound")
	cdfSize := numeric.DefaultCDFSize
	if size, ok := intField(bounds, "cdf_size"); ok && size > 0 {
		cdfSize = size
	}
	var zeroPoint *float64
	if zp, ok := floatField(bounds, "zero_point"); ok {
		zeroPoint = &zp
	}

	var percentileValues map[int]float64
	switch {
	case len(f.Mixture) > 0:
		scenarios := make([]numeric.Scenario, len(f.Mixture))
		for i, m := range f.Mixture {
			scenarios[i] = numeric.Scenario{Mode: m.Mode, LowerBound: m.LowerBound, UpperBound: m.UpperBound, Weight: m.Weight}
		}
		values, err := numeric.MixtureToPercentiles(scenarios, rangeMin, rangeMax)
		if err != nil {
			return nil, fmt.Errorf("mixture to percentiles: %w", err)
		}
		percentileValues = values

	case f.Percentiles != nil:
		p := f.Percentiles
		percentileValues = map[int]float64{10: p.P10, 20: p.P20, 40: p.P40, 60: p.P60, 80: p.P80, 90: p.P90}

	default:
		return nil, fmt.Errorf("forecast has neither percentiles nor a mixture")
	}

	return numeric.PercentilesToCDF(percentileValues, rangeMax, rangeMin, openUpper, openLower, zeroPoint, cdfSize)
}

func floatField(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func boolField(m map[string]interface{}, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func intField(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
