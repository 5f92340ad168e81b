package stats

import (
	"fmt"
	"math"
)

// Planning defaults.
const (
	DefaultMinimumDetectableEffect = 0.10
	DefaultAlpha                   = 0.05
	DefaultPower                   = 0.80
	DefaultVariantCount            = 2
	DefaultDailyTraffic            = 1000
)

// SampleSizePlan is the number of observations an experiment needs.
type SampleSizePlan struct {
	PerVariant    int
	Total         int
	EstimatedDays int
}

type planConfig struct {
	mde          float64
	alpha        float64
	power        float64
	variantCount int
	dailyTraffic int
}

// PlanOption customises PlanSampleSize.
type PlanOption func(*planConfig)

// WithMinimumDetectableEffect sets the relative lift to detect (0.10 = +10%).
func WithMinimumDetectableEffect(mde float64) PlanOption {
	return func(c *planConfig) { c.mde = mde }
}

// WithAlpha sets the two-tailed significance level.
func WithAlpha(alpha float64) PlanOption {
	return func(c *planConfig) { c.alpha = alpha }
}

// WithPower sets the desired statistical power.
func WithPower(power float64) PlanOption {
	return func(c *planConfig) { c.power = power }
}

// WithVariantCount sets the number of arms, control included.
func WithVariantCount(n int) PlanOption {
	return func(c *planConfig) { c.variantCount = n }
}

// WithDailyTraffic sets the expected daily views per variant.
func WithDailyTraffic(views int) PlanOption {
	return func(c *planConfig) { c.dailyTraffic = views }
}

// PlanSampleSize estimates the views each variant needs to detect a
// relative lift of the minimum detectable effect over baselineRate.
//
// Critical values are derived from the inverse normal CDF, so non-default
// alpha and power are honoured. For more than two variants the per-variant
// size is scaled by ln(variantCount). That is a heuristic for multiple
// comparisons, not an exact Bonferroni correction.
func PlanSampleSize(baselineRate float64, opts ...PlanOption) (SampleSizePlan, error) {
	cfg := planConfig{
		mde:          DefaultMinimumDetectableEffect,
		alpha:        DefaultAlpha,
		power:        DefaultPower,
		variantCount: DefaultVariantCount,
		dailyTraffic: DefaultDailyTraffic,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p1 := baselineRate
	p2 := p1 * (1 + cfg.mde)

	switch {
	case !(p1 > 0 && p1 < 1):
		return SampleSizePlan{}, fmt.Errorf("%w: baseline rate %v must be in (0, 1)", ErrInvalidPlan, p1)
	case !(cfg.mde > 0):
		return SampleSizePlan{}, fmt.Errorf("%w: minimum detectable effect %v must be positive", ErrInvalidPlan, cfg.mde)
	case p2 >= 1:
		return SampleSizePlan{}, fmt.Errorf("%w: target rate %v must be below 1", ErrInvalidPlan, p2)
	case !(cfg.alpha > 0 && cfg.alpha < 1):
		return SampleSizePlan{}, fmt.Errorf("%w: alpha %v must be in (0, 1)", ErrInvalidPlan, cfg.alpha)
	case !(cfg.power > 0 && cfg.power < 1):
		return SampleSizePlan{}, fmt.Errorf("%w: power %v must be in (0, 1)", ErrInvalidPlan, cfg.power)
	case cfg.variantCount < 2:
		return SampleSizePlan{}, fmt.Errorf("%w: variant count %d must be at least 2", ErrInvalidPlan, cfg.variantCount)
	case cfg.dailyTraffic < 1:
		return SampleSizePlan{}, fmt.Errorf("%w: daily traffic %d must be positive", ErrInvalidPlan, cfg.dailyTraffic)
	}

	zAlpha := InverseNormalCDF(1 - cfg.alpha/2)
	zBeta := InverseNormalCDF(cfg.power)

	pooled := (p1 + p2) / 2
	diff := p2 - p1
	n := math.Ceil(2 * pooled * (1 - pooled) * (zAlpha + zBeta) * (zAlpha + zBeta) / (diff * diff))

	if cfg.variantCount > 2 {
		n = math.Ceil(n * math.Log(float64(cfg.variantCount)))
	}
	if n < 1 {
		n = 1
	}
	if !(n < float64(math.MaxInt)/float64(cfg.variantCount)) {
		return SampleSizePlan{}, fmt.Errorf("%w: baseline rate %v needs more views than can be counted", ErrInvalidPlan, p1)
	}

	perVariant := int(n)
	return SampleSizePlan{
		PerVariant:    perVariant,
		Total:         perVariant * cfg.variantCount,
		EstimatedDays: int(math.Ceil(n / float64(cfg.dailyTraffic))),
	}, nil
}
