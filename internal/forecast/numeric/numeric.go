// Package numeric converts sparse percentile estimates (or scenario
// mixtures) into the dense cumulative-distribution-function format
// required by the tournament platform's numeric and discrete question
// wire payload.
package numeric

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultCDFSize is the number of points in a numeric question's CDF.
	DefaultCDFSize = 201
	// DefaultInboundOutcomeCount is DefaultCDFSize-1, the platform's default
	// discretization for continuous questions.
	DefaultInboundOutcomeCount = DefaultCDFSize - 1
	// MaxNumericPMFValue bounds how much probability mass may sit between
	// two adjacent CDF points at the default resolution.
	MaxNumericPMFValue = 0.2

	minPercentileSpacing = 5e-05
	boundaryWigglePct    = 0.25
)

// maxPMFValueForSize scales MaxNumericPMFValue down for CDFs with fewer
// points (discrete questions), optionally including a 5% safety margin.
func maxPMFValueForSize(cdfSize int, includeWiggleRoom bool) float64 {
	inboundOutcomeCount := cdfSize - 1
	cap := MaxNumericPMFValue * (float64(DefaultInboundOutcomeCount) / float64(inboundOutcomeCount))
	if includeWiggleRoom {
		return cap * 0.95
	}
	return cap
}

// Percentile is a single point in a probability distribution: "percentile
// fraction of outcomes are below value".
type Percentile struct {
	Percentile float64 // cumulative probability in [0,1]
	Value      float64 // real-world value at this percentile
}

// Distribution converts a sparse set of declared percentiles into a full
// CDF satisfying the platform's wire-format rules (boundary mass,
// minimum/maximum PMF per step, monotonicity).
type Distribution struct {
	DeclaredPercentiles []Percentile
	OpenUpperBound      bool
	OpenLowerBound      bool
	UpperBound          float64
	LowerBound          float64
	// ZeroPoint, when set, marks a log-scaled question's anchor; the
	// value axis maps to CDF location logarithmically rather than linearly.
	ZeroPoint *float64
	// CDFSize is the number of output points. Zero means DefaultCDFSize.
	CDFSize int
	// StandardizeCDF applies the platform's boundary/cap/renormalize rules.
	StandardizeCDF bool
}

func (d *Distribution) size() int {
	if d.CDFSize == 0 {
		return DefaultCDFSize
	}
	return d.CDFSize
}

// Validate checks the distribution's declared percentiles for the
// invariants the platform enforces: strictly increasing percentile and
// value, adequate spacing, and values not log-invalid or wildly outside
// the question's range.
func (d *Distribution) Validate() error {
	if err := d.checkIncreasing(); err != nil {
		return err
	}
	if err := d.checkLogScaledFields(); err != nil {
		return err
	}
	if err := d.checkSpacing(); err != nil {
		return err
	}
	if d.StandardizeCDF {
		if err := d.checkTooFarFromBounds(d.DeclaredPercentiles); err != nil {
			return err
		}
		if len(d.DeclaredPercentiles) == d.size() {
			if err := d.checkDistributionTooTall(d.DeclaredPercentiles); err != nil {
				return err
			}
		}
	}
	d.DeclaredPercentiles = d.resolveRepeatingValues(d.DeclaredPercentiles)
	return nil
}

func (d *Distribution) checkIncreasing() error {
	p := d.DeclaredPercentiles
	if len(p) < 2 {
		return fmt.Errorf("numeric distribution must have at least 2 percentiles")
	}
	for i := 0; i < len(p)-1; i++ {
		if p[i].Percentile >= p[i+1].Percentile {
			return fmt.Errorf("percentiles must be in strictly increasing order")
		}
		if p[i].Value > p[i+1].Value {
			return fmt.Errorf("values must be in strictly increasing order")
		}
	}
	return nil
}

func (d *Distribution) checkSpacing() error {
	p := d.DeclaredPercentiles
	for i := 0; i < len(p)-1; i++ {
		spacing := math.Abs(p[i+1].Percentile - p[i].Percentile)
		if spacing < minPercentileSpacing {
			return fmt.Errorf("percentiles at indices %d and %d are too close: CDF must increase by at least %g at every step", i, i+1, minPercentileSpacing)
		}
	}
	return nil
}

func (d *Distribution) checkLogScaledFields() error {
	if d.ZeroPoint != nil && d.LowerBound <= *d.ZeroPoint {
		return fmt.Errorf("lower bound %g must be greater than zero point %g for log-scaled questions", d.LowerBound, *d.ZeroPoint)
	}
	if d.ZeroPoint != nil {
		for _, p := range d.DeclaredPercentiles {
			if p.Value < *d.ZeroPoint {
				return fmt.Errorf("percentile value %g is below zero point %g", p.Value, *d.ZeroPoint)
			}
		}
	}
	return nil
}

func (d *Distribution) checkTooFarFromBounds(percentiles []Percentile) error {
	rangeSize := d.UpperBound - d.LowerBound
	wiggle := rangeSize * boundaryWigglePct
	upperWithWiggle := d.UpperBound + wiggle
	lowerWithWiggle := d.LowerBound - wiggle

	within := 0
	for _, p := range percentiles {
		if p.Value >= lowerWithWiggle && p.Value <= upperWithWiggle {
			within++
		}
	}
	if within == 0 {
		return fmt.Errorf("no percentiles within %.0f%% of question range [%g, %g]", boundaryWigglePct*100, d.LowerBound, d.UpperBound)
	}

	maxBuffer := rangeSize * 2
	for _, p := range percentiles {
		if p.Value < d.LowerBound-maxBuffer || p.Value > d.UpperBound+maxBuffer {
			return fmt.Errorf("percentile value %g far exceeds question bounds [%g, %g]", p.Value, d.LowerBound, d.UpperBound)
		}
	}
	return nil
}

func (d *Distribution) checkDistributionTooTall(cdf []Percentile) error {
	if len(cdf) != d.size() {
		return fmt.Errorf("CDF size mismatch: expected %d, got %d", d.size(), len(cdf))
	}
	cap := maxPMFValueForSize(len(cdf), false)
	for i := 0; i < len(cdf)-1; i++ {
		pmf := cdf[i+1].Percentile - cdf[i].Percentile
		if pmf > cap {
			return fmt.Errorf("distribution too concentrated: PMF between values %g and %g is %.4f, exceeds max %.4f", cdf[i].Value, cdf[i+1].Value, pmf, cap)
		}
	}
	return nil
}

// resolveRepeatingValues nudges repeated values apart by a tiny epsilon so
// downstream interpolation never divides by a zero-width interval.
func (d *Distribution) resolveRepeatingValues(percentiles []Percentile) []Percentile {
	counts := map[float64]int{}
	for _, p := range percentiles {
		counts[p.Value]++
	}

	out := make([]Percentile, 0, len(percentiles))
	for _, p := range percentiles {
		if counts[p.Value] == 1 {
			out = append(out, p)
			continue
		}

		const epsilon = 1e-10
		switch {
		case p.Value > d.LowerBound && p.Value < d.UpperBound:
			greaterEpsilon := 1e-6
			out = append(out, Percentile{Value: p.Value - (1-p.Percentile)*greaterEpsilon, Percentile: p.Percentile})
		case p.Value >= d.UpperBound:
			out = append(out, Percentile{Value: d.UpperBound + epsilon*p.Percentile, Percentile: p.Percentile})
		case p.Value <= d.LowerBound:
			out = append(out, Percentile{Value: d.LowerBound - epsilon*(1-p.Percentile), Percentile: p.Percentile})
		default:
			out = append(out, p)
		}
	}
	return out
}

// addBoundaryPercentiles inserts explicit percentiles at the question's
// closed bounds (or a half-distance percentile past the declared extreme
// for open bounds), matching the platform's boundary-mass convention.
func (d *Distribution) addBoundaryPercentiles(input []Percentile) []Percentile {
	rangeSize := math.Abs(d.UpperBound - d.LowerBound)
	buffer := 0.01 * rangeSize
	if rangeSize > 100 {
		buffer = 1
	}

	byPct := map[float64]float64{}
	for _, p := range input {
		byPct[p.Percentile*100] = p.Value
	}

	pctMax, pctMin := -math.MaxFloat64, math.MaxFloat64
	for pct := range byPct {
		if pct > pctMax {
			pctMax = pct
		}
		if pct < pctMin {
			pctMin = pct
		}
	}

	for pct, value := range byPct {
		if !d.OpenLowerBound && value <= d.LowerBound+buffer {
			byPct[pct] = d.LowerBound + buffer
		}
		if !d.OpenUpperBound && value >= d.UpperBound-buffer {
			byPct[pct] = d.UpperBound - buffer
		}
	}

	if d.OpenUpperBound {
		if d.UpperBound > byPct[pctMax] {
			halfway := 100 - 0.5*(100-pctMax)
			byPct[halfway] = d.UpperBound
		}
	} else {
		byPct[100] = d.UpperBound
	}

	if d.OpenLowerBound {
		if d.LowerBound < byPct[pctMin] {
			halfway := 0.5 * pctMin
			byPct[halfway] = d.LowerBound
		}
	} else {
		byPct[0] = d.LowerBound
	}

	pcts := make([]float64, 0, len(byPct))
	for pct := range byPct {
		pcts = append(pcts, pct)
	}
	sort.Float64s(pcts)

	out := make([]Percentile, 0, len(pcts))
	for _, pct := range pcts {
		out = append(out, Percentile{Percentile: pct / 100, Value: byPct[pct]})
	}
	return out
}

// nominalToCDFLocation maps a real-world value onto the unit CDF x-axis,
// handling both linear and log-scaled (ZeroPoint set) questions.
func (d *Distribution) nominalToCDFLocation(value float64) float64 {
	rangeMax, rangeMin := d.UpperBound, d.LowerBound
	if d.ZeroPoint == nil {
		return (value - rangeMin) / (rangeMax - rangeMin)
	}
	zeroPoint := *d.ZeroPoint
	derivRatio := (rangeMax - zeroPoint) / (rangeMin - zeroPoint)
	if value == zeroPoint {
		value += 1e-10
	}
	return (math.Log((value-rangeMin)*(derivRatio-1)+(rangeMax-rangeMin)) - math.Log(rangeMax-rangeMin)) / math.Log(derivRatio)
}

// cdfLocationToNominal is the inverse of nominalToCDFLocation.
func (d *Distribution) cdfLocationToNominal(location float64) (float64, error) {
	rangeMax, rangeMin := d.UpperBound, d.LowerBound
	var scaled float64
	if d.ZeroPoint == nil {
		scaled = rangeMin + (rangeMax-rangeMin)*location
	} else {
		zeroPoint := *d.ZeroPoint
		derivRatio := (rangeMax - zeroPoint) / (rangeMin - zeroPoint)
		scaled = rangeMin + (rangeMax-rangeMin)*(math.Pow(derivRatio, location)-1)/(derivRatio-1)
	}
	if math.IsNaN(scaled) {
		return 0, fmt.Errorf("scaled location is NaN for CDF location %g", location)
	}
	return scaled, nil
}

// cdfAt returns the CDF height at a given x-axis location via linear
// interpolation between the boundary-augmented declared percentiles.
func (d *Distribution) cdfAt(location float64) (float64, error) {
	bounded := d.addBoundaryPercentiles(d.DeclaredPercentiles)

	type locHeight struct {
		loc, height float64
	}
	points := make([]locHeight, 0, len(bounded))
	for _, p := range bounded {
		points = append(points, locHeight{loc: d.nominalToCDFLocation(p.Value), height: p.Percentile})
	}

	const epsilon = 1e-10
	prev := points[0]
	for i := 1; i < len(points); i++ {
		cur := points[i]
		if prev.loc-epsilon <= location && location <= cur.loc+epsilon {
			result := prev.height + (cur.height-prev.height)*(location-prev.loc)/(cur.loc-prev.loc)
			if math.IsNaN(result) {
				return 0, fmt.Errorf("NaN result for CDF location %g", location)
			}
			return result, nil
		}
		prev = cur
	}
	return 0, fmt.Errorf("CDF location %g not found in range", location)
}

// standardize applies the platform's standardization rules: zero mass
// outside closed bounds, minimum mass outside open bounds, a minimum
// per-step increase, and a capped-and-renormalized maximum per-step PMF.
func (d *Distribution) standardize(cdf []float64) []float64 {
	n := len(cdf)
	lowerOpen, upperOpen := d.OpenLowerBound, d.OpenUpperBound

	scaleLowerTo := cdf[0]
	if lowerOpen {
		scaleLowerTo = 0.0
	}
	scaleUpperTo := cdf[n-1]
	if upperOpen {
		scaleUpperTo = 1.0
	}
	rescaledInboundMass := scaleUpperTo - scaleLowerTo

	applyMinimum := func(f, location float64) float64 {
		rescaled := (f - scaleLowerTo) / rescaledInboundMass
		switch {
		case lowerOpen && upperOpen:
			return 0.988*rescaled + 0.01*location + 0.001
		case lowerOpen:
			return 0.989*rescaled + 0.01*location + 0.001
		case upperOpen:
			return 0.989*rescaled + 0.01*location
		default:
			return 0.99*rescaled + 0.01*location
		}
	}

	out := make([]float64, n)
	for i := range cdf {
		out[i] = applyMinimum(cdf[i], float64(i)/float64(n-1))
	}

	pmf := make([]float64, n+1)
	pmf[0] = out[0]
	for i := 1; i < n; i++ {
		pmf[i] = out[i] - out[i-1]
	}
	pmf[n] = 1 - out[n-1]

	cap := maxPMFValueForSize(n, true)

	capPMF := func(scale float64) []float64 {
		capped := make([]float64, len(pmf))
		capped[0] = pmf[0]
		capped[len(pmf)-1] = pmf[len(pmf)-1]
		for i := 1; i < len(pmf)-1; i++ {
			capped[i] = math.Min(cap, scale*pmf[i])
		}
		return capped
	}
	cappedSum := func(scale float64) float64 {
		sum := 0.0
		for _, v := range capPMF(scale) {
			sum += v
		}
		return sum
	}

	lo, hi, scale := 1.0, 1.0, 1.0
	for cappedSum(hi) < 1.0 {
		hi *= 1.2
	}
	for i := 0; i < 100; i++ {
		scale = 0.5 * (lo + hi)
		s := cappedSum(scale)
		if s < 1.0 {
			lo = scale
		} else {
			hi = scale
		}
		if s == 1.0 || (hi-lo) < 2e-5 {
			break
		}
	}

	capped := capPMF(scale)
	innerSum := 0.0
	for i := 1; i < len(capped)-1; i++ {
		innerSum += capped[i]
	}
	if innerSum > 0 {
		factor := (out[n-1] - out[0]) / innerSum
		for i := 1; i < len(capped)-1; i++ {
			capped[i] *= factor
		}
	}

	result := make([]float64, n)
	running := 0.0
	for i := 0; i < n; i++ {
		running += capped[i]
		result[i] = round10(running)
	}
	return result
}

func round10(v float64) float64 {
	const factor = 1e10
	return math.Round(v*factor) / factor
}

// CDF generates the full dense CDF from the declared percentiles:
// DefaultCDFSize (or CDFSize) Percentile points whose Percentile field is
// the CDF height and whose Value field is the corresponding real-world
// value.
func (d *Distribution) CDF() ([]Percentile, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	size := d.size()
	continuous := make([]float64, size)
	xaxis := make([]float64, size)

	for i := 0; i < size; i++ {
		location := float64(i) / float64(size-1)
		height, err := d.cdfAt(location)
		if err != nil {
			return nil, err
		}
		continuous[i] = height
		value, err := d.cdfLocationToNominal(location)
		if err != nil {
			return nil, err
		}
		xaxis[i] = value
	}

	if d.StandardizeCDF {
		continuous = d.standardize(continuous)
	}

	out := make([]Percentile, size)
	for i := range out {
		out[i] = Percentile{Value: xaxis[i], Percentile: continuous[i]}
	}
	return out, nil
}

// CDFFloats generates the CDF and returns just the height values, the
// format required by the platform's continuous_cdf wire field.
func (d *Distribution) CDFFloats() ([]float64, error) {
	cdf, err := d.CDF()
	if err != nil {
		return nil, err
	}
	floats := make([]float64, len(cdf))
	for i, p := range cdf {
		floats[i] = p.Percentile
	}
	return floats, nil
}

// PercentilesToCDF is a convenience wrapper for the common case of a sparse
// percentile map (e.g. {10: 100, 20: 120, ..., 90: 280}) keyed by integer
// percentile (0-100).
func PercentilesToCDF(percentileValues map[int]float64, upperBound, lowerBound float64, openUpperBound, openLowerBound bool, zeroPoint *float64, cdfSize int) ([]float64, error) {
	keys := make([]int, 0, len(percentileValues))
	for k := range percentileValues {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	percentiles := make([]Percentile, 0, len(keys))
	for _, k := range keys {
		percentiles = append(percentiles, Percentile{Percentile: float64(k) / 100, Value: percentileValues[k]})
	}

	dist := &Distribution{
		DeclaredPercentiles: percentiles,
		OpenUpperBound:      openUpperBound,
		OpenLowerBound:      openLowerBound,
		UpperBound:          upperBound,
		LowerBound:          lowerBound,
		ZeroPoint:           zeroPoint,
		CDFSize:             cdfSize,
		StandardizeCDF:      true,
	}
	return dist.CDFFloats()
}
