package store

import (
	"context"

	"github.com/headline-goat/hlg-stats/internal/stats"
)

// Source supplies aggregate counts for the analysis engine.
type Source interface {
	GetExperiment(ctx context.Context, name string) (*Experiment, error)
	ListExperiments(ctx context.Context) ([]*Experiment, error)
	GetVariantStats(ctx context.Context, name string) ([]VariantStats, error)

	// Observations returns one entry per configured variant, control first.
	Observations(ctx context.Context, name string) ([]stats.VariantObservation, error)

	Close() error
}
