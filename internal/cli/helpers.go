package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/headline-goat/hlg-stats/internal/snapshot"
	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/headline-goat/hlg-stats/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// withStore opens the database, executes the function, and handles cleanup.
func (a *app) withStore(fn func(store.Source) error) error {
	s, err := store.Open(a.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// experimentData is what a command analyses: a name, optional metadata
// and the observations with control first.
type experimentData struct {
	Name         string
	Goal         string
	Experiment   *store.Experiment // nil when read from a snapshot file
	Observations []stats.VariantObservation
}

// loadExperiment reads observations from the snapshot file when one is
// given, otherwise from the database.
func (a *app) loadExperiment(ctx context.Context, args []string, file string) (*experimentData, error) {
	if file != "" {
		snap, err := snapshot.Load(file)
		if err != nil {
			return nil, err
		}
		name := snap.Name
		if len(args) > 0 {
			name = args[0]
		}
		a.log.WithFields(logrus.Fields{"file": file, "variants": len(snap.Variants)}).Debug("snapshot loaded")
		return &experimentData{Name: name, Goal: snap.Goal, Observations: snap.Observations()}, nil
	}

	if len(args) == 0 {
		return nil, errors.New("experiment name is required unless --file is given")
	}
	name := args[0]

	data := &experimentData{Name: name}
	err := a.withStore(func(s store.Source) error {
		exp, err := s.GetExperiment(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("test '%s' not found", name)
			}
			return fmt.Errorf("failed to get test: %w", err)
		}

		observations, err := s.Observations(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		data.Experiment = exp
		data.Goal = exp.ConversionGoal
		data.Observations = observations
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{"experiment": name, "variants": len(data.Observations)}).Debug("counts loaded from database")
	return data, nil
}

// analyze runs the engine with config defaults overridden by any flags the
// user set on cmd.
func (a *app) analyze(cmd *cobra.Command, data *experimentData, exact bool) (*stats.Report, error) {
	opts := a.cfg.AnalyzeOptions()
	opts.ExactPosterior = exact
	opts.MinimumSampleSize = a.effectiveMinSample(cmd)
	opts.ConfidenceThreshold = a.effectiveThreshold(cmd)

	for _, p := range []struct {
		flag string
		dst  *float64
	}{
		{"prior-alpha", &opts.PriorAlpha},
		{"prior-beta", &opts.PriorBeta},
	} {
		if !cmd.Flags().Changed(p.flag) {
			continue
		}
		v, _ := cmd.Flags().GetFloat64(p.flag)
		if v <= 0 {
			return nil, fmt.Errorf("--%s must be positive: %w", p.flag, stats.ErrInvalidPrior)
		}
		*p.dst = v
	}

	report, err := stats.Analyze(data.Observations, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze '%s': %w", data.Name, err)
	}

	fields := logrus.Fields{
		"experiment":      data.Name,
		"sufficient_data": report.Verdict.SufficientData,
		"confidence":      report.Verdict.ConfidencePercent,
		"min_sample":      opts.MinimumSampleSize,
		"threshold":       opts.ConfidenceThreshold,
	}
	if report.Verdict.WinnerIndex != nil {
		fields["winner"] = *report.Verdict.WinnerIndex
	}
	a.log.WithFields(fields).Debug("verdict computed")

	return report, nil
}

// addAnalysisFlags registers the policy flags shared by analysis commands.
func addAnalysisFlags(cmd *cobra.Command, file *string) {
	cmd.Flags().StringVarP(file, "file", "f", "", "read counts from a TOML snapshot instead of the database")
	cmd.Flags().Int("min-sample", 0, "minimum views per variant before a winner may be declared (default from config, 100)")
	cmd.Flags().Float64("threshold", 0, "confidence threshold in percent (default from config, 95)")
}

func addPriorFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("prior-alpha", 0, "Beta prior alpha (default from config, 1)")
	cmd.Flags().Float64("prior-beta", 0, "Beta prior beta (default from config, 1)")
}
