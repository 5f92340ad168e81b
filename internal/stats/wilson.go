package stats

import "math"

// z95 is the conventional 95% two-sided critical value used for
// per-variant rate intervals.
const z95 = 1.96

// EstimateRate returns the conversion rate and its 95% Wilson score
// interval. With no views it returns (0, {0, 0}).
func EstimateRate(conversions, views int) (float64, ConfidenceInterval) {
	if views <= 0 {
		return 0, ConfidenceInterval{}
	}
	lower, upper := wilson(conversions, views, z95)
	return ConversionRate(conversions, views), ConfidenceInterval{Lower: lower, Upper: upper}
}

// WilsonInterval calculates the Wilson score confidence interval
// for a binomial proportion. It's more accurate for small samples
// than the normal approximation.
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 0
	}
	return wilson(successes, trials, ZScore(confidence))
}

func wilson(successes, trials int, z float64) (lower, upper float64) {
	p := float64(successes) / float64(trials)
	n := float64(trials)

	denominator := 1 + z*z/n
	center := (p + z*z/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	return clamp01(center - spread), clamp01(center + spread)
}
