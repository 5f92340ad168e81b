package stats

import "math"

// Coefficients for Abramowitz and Stegun, Handbook of Mathematical
// Functions, formula 26.2.17. Maximum absolute error is about 7.5e-8.
const (
	asP  = 0.2316419
	asB1 = 0.319381530
	asB2 = -0.356563782
	asB3 = 1.781477937
	asB4 = -1.821255978
	asB5 = 1.330274429
)

// NormalPDF returns the standard normal density at z.
func NormalPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// NormalCDF approximates the cumulative distribution function
// of the standard normal distribution.
//
// NormalCDF(0) is exactly 0.5 and NormalCDF(-z) == 1-NormalCDF(z) because
// the upper tail is computed for |z| and reflected.
func NormalCDF(z float64) float64 {
	switch {
	case math.IsNaN(z):
		return math.NaN()
	case math.IsInf(z, 1):
		return 1
	case math.IsInf(z, -1):
		return 0
	case z == 0:
		return 0.5
	}

	x := math.Abs(z)
	t := 1.0 / (1.0 + asP*x)
	poly := ((((asB5*t+asB4)*t+asB3)*t+asB2)*t + asB1) * t
	upper := NormalPDF(x) * poly

	if z > 0 {
		return 1 - upper
	}
	return upper
}

// Acklam's rational approximation for the inverse normal CDF,
// relative error about 1.15e-9 over (0, 1).
var (
	acklamA = [6]float64{-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00}
	acklamB = [5]float64{-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01}
	acklamC = [6]float64{-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00}
	acklamD = [4]float64{7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00}
)

const acklamLow = 0.02425

// InverseNormalCDF returns z such that NormalCDF(z) ≈ p.
// It returns -Inf at 0, +Inf at 1 and NaN outside [0, 1].
func InverseNormalCDF(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0 || p > 1:
		return math.NaN()
	case p == 0:
		return math.Inf(-1)
	case p == 1:
		return math.Inf(1)
	case p == 0.5:
		return 0
	}

	a, b, c, d := acklamA, acklamB, acklamC, acklamD

	if p < acklamLow {
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
	if p <= 1-acklamLow {
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
	q := math.Sqrt(-2 * math.Log(1-p))
	return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
		((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
}

// ZScore returns the two-sided critical value for a confidence level.
// Common values:
//   - 0.90 -> 1.645
//   - 0.95 -> 1.960
//   - 0.99 -> 2.576
func ZScore(confidence float64) float64 {
	return InverseNormalCDF((1 + confidence) / 2)
}
