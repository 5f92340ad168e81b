package stats

import "math"

// ComparisonResult is the outcome of testing one variant against control.
type ComparisonResult struct {
	IsSignificant       bool
	ConfidencePercent   float64 // (1 - p) * 100
	PValue              float64
	ZScore              float64
	RelativeLiftPercent float64
	AbsoluteLiftPercent float64
}

// Compare performs a pooled two-proportion z-test of variant against
// control and returns the z statistic and the two-tailed p-value.
//
// When either side has no views, or the pooled standard error is zero
// (for example both rates are 0 or both are 1), there is no evidence of a
// difference and Compare returns (0, 1).
func Compare(control, variant VariantObservation) (zScore, pValue float64) {
	if control.Views <= 0 || variant.Views <= 0 {
		return 0, 1
	}

	pControl := control.Rate()
	pVariant := variant.Rate()

	// Pooled proportion under null hypothesis (pControl = pVariant)
	pooledP := float64(control.Conversions+variant.Conversions) / float64(control.Views+variant.Views)

	se := math.Sqrt(pooledP * (1 - pooledP) * (1/float64(control.Views) + 1/float64(variant.Views)))
	if se == 0 || math.IsNaN(se) {
		return 0, 1
	}

	zScore = (pVariant - pControl) / se
	pValue = clamp01(2 * (1 - NormalCDF(math.Abs(zScore))))

	return zScore, pValue
}

// CompareVariants runs Compare and derives confidence and lift.
// thresholdPercent is on the 0-100 scale, e.g. 95.
func CompareVariants(control, variant VariantObservation, thresholdPercent float64) ComparisonResult {
	zScore, pValue := Compare(control, variant)
	confidence := (1 - pValue) * 100

	controlRate := control.Rate()
	variantRate := variant.Rate()

	relativeLift := 0.0
	if controlRate > 0 {
		relativeLift = (variantRate - controlRate) / controlRate * 100
	}

	return ComparisonResult{
		IsSignificant:       confidence >= thresholdPercent,
		ConfidencePercent:   confidence,
		PValue:              pValue,
		ZScore:              zScore,
		RelativeLiftPercent: relativeLift,
		AbsoluteLiftPercent: (variantRate - controlRate) * 100,
	}
}
