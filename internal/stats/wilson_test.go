package stats_test

import (
	"testing"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"pgregory.net/rapid"
)

func TestEstimateRate_QuarterConversion(t *testing.T) {
	rate, ci := stats.EstimateRate(25, 100)

	if rate != 0.25 {
		t.Errorf("expected rate 0.25, got %f", rate)
	}
	if ci.Lower <= 0.15 || ci.Upper >= 0.35 {
		t.Errorf("interval [%f, %f] not within (0.15, 0.35)", ci.Lower, ci.Upper)
	}
	if !(ci.Lower < rate && rate < ci.Upper) {
		t.Errorf("rate %f not strictly inside [%f, %f]", rate, ci.Lower, ci.Upper)
	}
}

func TestEstimateRate_ZeroViews(t *testing.T) {
	rate, ci := stats.EstimateRate(0, 0)

	if rate != 0 || ci.Lower != 0 || ci.Upper != 0 {
		t.Errorf("expected (0, {0, 0}), got (%f, {%f, %f})", rate, ci.Lower, ci.Upper)
	}
}

func TestEstimateRate_Bounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		views := rapid.IntRange(1, 1_000_000).Draw(rt, "views")
		conversions := rapid.IntRange(0, views).Draw(rt, "conversions")

		rate, ci := stats.EstimateRate(conversions, views)
		if ci.Lower < 0 || ci.Upper > 1 || ci.Lower > ci.Upper {
			rt.Fatalf("invalid interval [%v, %v]", ci.Lower, ci.Upper)
		}
		if rate < ci.Lower-1e-12 || rate > ci.Upper+1e-12 {
			rt.Fatalf("rate %v outside [%v, %v]", rate, ci.Lower, ci.Upper)
		}
	})
}

func TestWilsonInterval_50PercentConversion(t *testing.T) {
	// 50 successes out of 100 trials
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	// Expected: approximately [0.40, 0.60] with some tolerance
	if lower < 0.38 || lower > 0.42 {
		t.Errorf("lower bound %f not in expected range [0.38, 0.42]", lower)
	}
	if upper < 0.58 || upper > 0.62 {
		t.Errorf("upper bound %f not in expected range [0.58, 0.62]", upper)
	}
}

func TestWilsonInterval_LowConversion(t *testing.T) {
	lower, upper := stats.WilsonInterval(5, 100, 0.95)

	if lower < 0.01 || lower > 0.03 {
		t.Errorf("lower bound %f not in expected range [0.01, 0.03]", lower)
	}
	if upper < 0.09 || upper > 0.13 {
		t.Errorf("upper bound %f not in expected range [0.09, 0.13]", upper)
	}
}

func TestWilsonInterval_ZeroSuccesses(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 100, 0.95)

	if lower != 0 {
		t.Errorf("expected lower bound 0, got %f", lower)
	}
	if upper < 0.01 || upper > 0.05 {
		t.Errorf("upper bound %f not in expected range [0.01, 0.05]", upper)
	}
}

func TestWilsonInterval_AllSuccesses(t *testing.T) {
	lower, upper := stats.WilsonInterval(100, 100, 0.95)

	if lower < 0.95 || lower > 0.99 {
		t.Errorf("lower bound %f not in expected range [0.95, 0.99]", lower)
	}
	if upper > 1.0 {
		t.Errorf("upper bound %f exceeds 1", upper)
	}
}

func TestWilsonInterval_HigherConfidenceIsWider(t *testing.T) {
	l90, u90 := stats.WilsonInterval(30, 200, 0.90)
	l99, u99 := stats.WilsonInterval(30, 200, 0.99)

	if u99-l99 <= u90-l90 {
		t.Errorf("99%% interval [%f, %f] should be wider than 90%% [%f, %f]", l99, u99, l90, u90)
	}
}

func TestWilsonInterval_SmallSample(t *testing.T) {
	lower, upper := stats.WilsonInterval(5, 10, 0.95)

	if width := upper - lower; width < 0.3 {
		t.Errorf("interval width %f too narrow for small sample", width)
	}
}
