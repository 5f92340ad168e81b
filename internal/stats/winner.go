package stats

import "fmt"

// Defaults used by callers that do not configure the winner policy.
const (
	DefaultMinimumSampleSize   = 100
	DefaultConfidenceThreshold = 95.0
)

// WinnerVerdict is the outcome of comparing every variant against control.
//
// WinnerIndex is nil when no variant may be declared a winner yet. When it
// is non-nil and points at 0, the control itself was confirmed: every
// challenger performed significantly worse. Dashboards read that value as
// "keep control", so it is reported as a winner rather than as nil.
type WinnerVerdict struct {
	WinnerIndex       *int
	ConfidencePercent float64
	SufficientData    bool
	// Results[i] compares variants[i+1] against control.
	Results []ComparisonResult
}

// HasWinner reports whether a winner (including a confirmed control) was declared.
func (v WinnerVerdict) HasWinner() bool {
	return v.WinnerIndex != nil
}

// ControlConfirmed reports whether the declared winner is the control.
func (v WinnerVerdict) ControlConfirmed() bool {
	return v.WinnerIndex != nil && *v.WinnerIndex == 0
}

// DetermineWinner compares each variant against variants[0] (the control)
// and applies the winner policy:
//
//  1. If any variant has fewer than minimumSampleSize views, the verdict has
//     SufficientData false, no winner and no per-variant results.
//  2. Among variants that are significant at confidenceThresholdPercent and
//     have positive lift, the one with the highest conversion rate wins and
//     its confidence becomes the verdict confidence.
//  3. If no variant qualifies, the control is the implicit leader. When
//     every challenger is significantly worse than control, the verdict
//     confidence is the smallest of those confidences and the control is
//     reported as the winner (index 0). Otherwise confidence stays 0.
//  4. WinnerIndex is set only when the verdict confidence reaches the
//     threshold.
//
// Both policy values are used as given: a minimum of 0 treats any data as
// sufficient. It returns ErrTooFewVariants for fewer than two variants,
// ErrInvalidPolicy for a negative minimum or a threshold outside [0, 100],
// and an *ObservationError for negative counts or conversions above views.
func DetermineWinner(variants []VariantObservation, minimumSampleSize int, confidenceThresholdPercent float64) (WinnerVerdict, error) {
	if len(variants) < 2 {
		return WinnerVerdict{}, ErrTooFewVariants
	}
	if err := validatePolicy(minimumSampleSize, confidenceThresholdPercent); err != nil {
		return WinnerVerdict{}, err
	}
	if err := ValidateObservations(variants); err != nil {
		return WinnerVerdict{}, err
	}

	for _, v := range variants {
		if v.Views < minimumSampleSize {
			return WinnerVerdict{Results: []ComparisonResult{}}, nil
		}
	}

	control := variants[0]
	results := make([]ComparisonResult, 0, len(variants)-1)
	for _, v := range variants[1:] {
		results = append(results, CompareVariants(control, v, confidenceThresholdPercent))
	}

	bestIndex := 0
	bestConfidence := 0.0
	bestRate := control.Rate()

	for i, r := range results {
		idx := i + 1
		if !r.IsSignificant || r.RelativeLiftPercent <= 0 {
			continue
		}
		if rate := variants[idx].Rate(); rate > bestRate {
			bestRate = rate
			bestIndex = idx
			bestConfidence = r.ConfidencePercent
		}
	}

	if bestIndex == 0 {
		allWorse := true
		minConfidence := 100.0
		for _, r := range results {
			if !r.IsSignificant || r.RelativeLiftPercent >= 0 {
				allWorse = false
				break
			}
			if r.ConfidencePercent < minConfidence {
				minConfidence = r.ConfidencePercent
			}
		}
		if allWorse {
			bestConfidence = minConfidence
		}
	}

	verdict := WinnerVerdict{
		ConfidencePercent: bestConfidence,
		SufficientData:    true,
		Results:           results,
	}
	if bestConfidence >= confidenceThresholdPercent {
		winner := bestIndex
		verdict.WinnerIndex = &winner
	}

	return verdict, nil
}

func validatePolicy(minimumSampleSize int, confidenceThresholdPercent float64) error {
	if minimumSampleSize < 0 {
		return fmt.Errorf("%w: minimum sample size %d is negative", ErrInvalidPolicy, minimumSampleSize)
	}
	if !(confidenceThresholdPercent >= 0 && confidenceThresholdPercent <= 100) {
		return fmt.Errorf("%w: confidence threshold %v must be in [0, 100]", ErrInvalidPolicy, confidenceThresholdPercent)
	}
	return nil
}
