package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Uniform Beta(1, 1) prior.
const (
	DefaultPriorAlpha = 1.0
	DefaultPriorBeta  = 1.0
)

// PosteriorEstimate summarises a Beta posterior over a conversion rate.
type PosteriorEstimate struct {
	Alpha float64
	Beta  float64
	Mean  float64
	Lower float64
	Upper float64
}

type priorConfig struct {
	alpha float64
	beta  float64
}

// PriorOption customises the Beta prior.
type PriorOption func(*priorConfig)

// WithPrior sets the Beta prior parameters. Both must be positive.
func WithPrior(alpha, beta float64) PriorOption {
	return func(c *priorConfig) {
		c.alpha = alpha
		c.beta = beta
	}
}

func resolvePrior(opts []PriorOption) (priorConfig, error) {
	cfg := priorConfig{alpha: DefaultPriorAlpha, beta: DefaultPriorBeta}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !(cfg.alpha > 0) || !(cfg.beta > 0) || math.IsInf(cfg.alpha, 0) || math.IsInf(cfg.beta, 0) {
		return priorConfig{}, fmt.Errorf("%w: alpha=%v beta=%v", ErrInvalidPrior, cfg.alpha, cfg.beta)
	}
	return cfg, nil
}

func (c priorConfig) update(conversions, views int) (float64, float64, error) {
	obs := VariantObservation{Views: views, Conversions: conversions}
	if err := obs.Validate(); err != nil {
		return 0, 0, err
	}
	return c.alpha + float64(conversions), c.beta + float64(views-conversions), nil
}

func posteriorParams(conversions, views int, opts []PriorOption) (float64, float64, error) {
	prior, err := resolvePrior(opts)
	if err != nil {
		return 0, 0, err
	}
	return prior.update(conversions, views)
}

// BetaMean returns the mean of Beta(a, b).
func BetaMean(a, b float64) float64 {
	return a / (a + b)
}

// BetaVariance returns the variance of Beta(a, b).
func BetaVariance(a, b float64) float64 {
	s := a + b
	return a * b / (s * s * (s + 1))
}

// Posterior returns the Beta-Binomial posterior with a 95% credible
// interval from the normal approximation to the Beta distribution.
// The approximation is reasonable once both posterior parameters are
// around 10 or more; for small counts it under-covers, use PosteriorExact.
func Posterior(conversions, views int, opts ...PriorOption) (PosteriorEstimate, error) {
	a, b, err := posteriorParams(conversions, views, opts)
	if err != nil {
		return PosteriorEstimate{}, err
	}

	mean := BetaMean(a, b)
	margin := z95 * math.Sqrt(BetaVariance(a, b))

	return PosteriorEstimate{
		Alpha: a,
		Beta:  b,
		Mean:  mean,
		Lower: clamp01(mean - margin),
		Upper: clamp01(mean + margin),
	}, nil
}

// PosteriorExact is Posterior with the interval taken from the exact
// 2.5% and 97.5% quantiles of the Beta posterior.
func PosteriorExact(conversions, views int, opts ...PriorOption) (PosteriorEstimate, error) {
	a, b, err := posteriorParams(conversions, views, opts)
	if err != nil {
		return PosteriorEstimate{}, err
	}

	dist := distuv.Beta{Alpha: a, Beta: b}
	return PosteriorEstimate{
		Alpha: a,
		Beta:  b,
		Mean:  BetaMean(a, b),
		Lower: dist.Quantile(0.025),
		Upper: dist.Quantile(0.975),
	}, nil
}

// ExpectedLoss returns, for each variant, how far its posterior mean falls
// short of the best posterior mean: max(0, maxMean - mean). This is a
// mean-based approximation; the true expected loss integrates over the
// joint posterior.
//
// An invalid prior is returned as is; count errors are wrapped in an
// *ObservationError naming the variant.
func ExpectedLoss(variants []VariantObservation, opts ...PriorOption) ([]float64, error) {
	prior, err := resolvePrior(opts)
	if err != nil {
		return nil, err
	}

	means := make([]float64, len(variants))
	maxMean := 0.0
	for i, v := range variants {
		a, b, err := prior.update(v.Conversions, v.Views)
		if err != nil {
			return nil, &ObservationError{Index: i, Name: v.Name, Err: err}
		}
		means[i] = BetaMean(a, b)
		if means[i] > maxMean {
			maxMean = means[i]
		}
	}

	losses := make([]float64, len(variants))
	for i, m := range means {
		losses[i] = math.Max(0, maxMean-m)
	}
	return losses, nil
}

// BestPosterior returns the index with the smallest expected loss, the
// lowest index on ties, or -1 for an empty slice.
func BestPosterior(losses []float64) int {
	best := -1
	for i, l := range losses {
		if best < 0 || l < losses[best] {
			best = i
		}
	}
	return best
}
