package stats

// AnalyzeOptions configures Analyze. Every field is used as given; start
// from DefaultAnalyzeOptions and override what differs.
type AnalyzeOptions struct {
	MinimumSampleSize   int
	ConfidenceThreshold float64 // percent, e.g. 95
	PriorAlpha          float64
	PriorBeta           float64
	ExactPosterior      bool
}

// DefaultAnalyzeOptions returns a minimum of 100 views, a 95% threshold and
// a uniform Beta(1, 1) prior.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		MinimumSampleSize:   DefaultMinimumSampleSize,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		PriorAlpha:          DefaultPriorAlpha,
		PriorBeta:           DefaultPriorBeta,
	}
}

// Report represents statistical analysis of an experiment
type Report struct {
	Variants       []VariantResult
	Verdict        WinnerVerdict
	LeadingVariant int // highest observed rate, ties to the lowest index
	BestPosterior  int // smallest expected loss
}

// VariantResult contains statistics for a single variant
type VariantResult struct {
	Index        int
	Name         string
	Views        int
	Conversions  int
	Rate         float64
	Interval     ConfidenceInterval
	Posterior    PosteriorEstimate
	ExpectedLoss float64
	// Comparison against control; nil for the control itself or when
	// data is insufficient.
	Comparison *ComparisonResult
}

// Analyze calculates full statistics for an experiment: per-variant
// estimates, Bayesian posteriors and the winner verdict.
//
// Policy errors are those of DetermineWinner; a non-positive prior returns
// ErrInvalidPrior.
func Analyze(variants []VariantObservation, opts AnalyzeOptions) (*Report, error) {
	verdict, err := DetermineWinner(variants, opts.MinimumSampleSize, opts.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	prior := WithPrior(opts.PriorAlpha, opts.PriorBeta)
	losses, err := ExpectedLoss(variants, prior)
	if err != nil {
		return nil, err
	}

	posterior := Posterior
	if opts.ExactPosterior {
		posterior = PosteriorExact
	}

	results := make([]VariantResult, len(variants))
	leading := 0
	for i, v := range variants {
		rate, ci := EstimateRate(v.Conversions, v.Views)
		// Counts and prior were validated above.
		post, err := posterior(v.Conversions, v.Views, prior)
		if err != nil {
			return nil, err
		}

		results[i] = VariantResult{
			Index:        i,
			Name:         v.Name,
			Views:        v.Views,
			Conversions:  v.Conversions,
			Rate:         rate,
			Interval:     ci,
			Posterior:    post,
			ExpectedLoss: losses[i],
		}
		if i > 0 && len(verdict.Results) == len(variants)-1 {
			c := verdict.Results[i-1]
			results[i].Comparison = &c
		}

		if rate > results[leading].Rate {
			leading = i
		}
	}

	return &Report{
		Variants:       results,
		Verdict:        verdict,
		LeadingVariant: leading,
		BestPosterior:  BestPosterior(losses),
	}, nil
}
