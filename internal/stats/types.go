package stats

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeCount          = errors.New("negative count")
	ErrConversionsExceedViews = errors.New("conversions exceed views")
	ErrTooFewVariants         = errors.New("at least 2 variants are required")
	ErrInvalidPrior           = errors.New("invalid prior")
	ErrInvalidPlan            = errors.New("invalid sample size plan")
	ErrInvalidPolicy          = errors.New("invalid winner policy")
)

// VariantObservation is an aggregate snapshot of one experiment arm.
// The engine never mutates it.
type VariantObservation struct {
	Name        string
	Views       int
	Conversions int
}

// Rate returns conversions/views, or 0 when there are no views.
func (v VariantObservation) Rate() float64 {
	return ConversionRate(v.Conversions, v.Views)
}

// Validate reports structural contract violations. Zero views is valid.
func (v VariantObservation) Validate() error {
	if v.Views < 0 || v.Conversions < 0 {
		return ErrNegativeCount
	}
	if v.Conversions > v.Views {
		return ErrConversionsExceedViews
	}
	return nil
}

// ObservationError identifies which variant failed validation.
type ObservationError struct {
	Index int
	Name  string
	Err   error
}

func (e *ObservationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("variant %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("variant %d: %v", e.Index, e.Err)
}

func (e *ObservationError) Unwrap() error {
	return e.Err
}

// ValidateObservations checks every observation and returns the first failure.
func ValidateObservations(variants []VariantObservation) error {
	for i, v := range variants {
		if err := v.Validate(); err != nil {
			return &ObservationError{Index: i, Name: v.Name, Err: err}
		}
	}
	return nil
}

// ConfidenceInterval is a closed interval within [0, 1].
type ConfidenceInterval struct {
	Lower float64
	Upper float64
}

// ConversionRate returns conversions/views, or 0 when views is 0.
func ConversionRate(conversions, views int) float64 {
	if views <= 0 {
		return 0
	}
	return float64(conversions) / float64(views)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
