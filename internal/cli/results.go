package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/headline-goat/hlg-stats/internal/store"
	"github.com/spf13/cobra"
)

func newResultsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "results [name]",
		Short: "Show detailed results for a test",
		Long: `Show conversion rates, 95% Wilson intervals, lift and significance of
every variant against control, followed by the winner verdict.

Examples:
  hlg-stats results hero
  hlg-stats results --file testdata/hero.toml --threshold 99`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadExperiment(cmd.Context(), args, file)
			if err != nil {
				return err
			}

			report, err := a.analyze(cmd, data, false)
			if err != nil {
				return err
			}

			printResults(cmd.OutOrStdout(), data, report, a.effectiveThreshold(cmd), a.effectiveMinSample(cmd))
			return nil
		},
	}

	addAnalysisFlags(cmd, &file)

	return cmd
}

func printResults(w io.Writer, data *experimentData, report *stats.Report, threshold float64, minSample int) {
	st := newStyles(w)

	fmt.Fprintln(w, st.title.Render("TEST: "+data.Name))
	if exp := data.Experiment; exp != nil {
		fmt.Fprintf(w, "STATE: %s\n", exp.State)
	}
	if data.Goal != "" {
		fmt.Fprintf(w, "GOAL: %s\n", data.Goal)
	}
	if exp := data.Experiment; exp != nil {
		fmt.Fprintf(w, "CREATED: %s\n", exp.CreatedAt.Format("2006-01-02"))
		switch exp.State {
		case store.StatePaused:
			fmt.Fprintln(w, st.muted.Render("Test is paused; counts are not growing."))
		case store.StateCompleted:
			fmt.Fprintln(w, st.muted.Render("Test is completed."))
		}
		if name, ok := exp.DeclaredWinner(); ok {
			fmt.Fprintf(w, "DECLARED WINNER: %s\n", name)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.header.Render("VARIANT           VIEWS    CONVERSIONS  RATE     95% CI            LIFT     CONFIDENCE"))
	fmt.Fprintln(w, strings.Repeat("─", 86))

	verdict := report.Verdict
	for _, v := range report.Variants {
		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.Interval.Lower*100, v.Interval.Upper*100)
		if v.Views == 0 {
			ciStr = "N/A"
		}

		lift, conf := "control", ""
		if c := v.Comparison; c != nil {
			lift = formatSignedPercent(c.RelativeLiftPercent)
			conf = fmt.Sprintf("%.1f%%", c.ConfidencePercent)
		} else if v.Index > 0 {
			lift = "-"
		}

		line := fmt.Sprintf("%-16s  %-7d  %-11d  %-7s  %-16s  %-7s  %s",
			truncate(v.Name, 16),
			v.Views,
			v.Conversions,
			formatPercent(v.Rate),
			ciStr,
			lift,
			conf,
		)

		switch {
		case verdict.WinnerIndex != nil && *verdict.WinnerIndex == v.Index:
			line = st.winner.Render(line + "  ← WINNER")
		case v.Comparison != nil && v.Comparison.IsSignificant && v.Comparison.RelativeLiftPercent < 0:
			line = st.loser.Render(line)
		case v.Index == report.LeadingVariant && len(report.Variants) > 1 && verdict.WinnerIndex == nil:
			line += "  ← LEADING"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	msg := verdictMessage(report, threshold, minSample)
	if !verdict.HasWinner() {
		msg = st.muted.Render(msg)
	}
	fmt.Fprintln(w, msg)
}

func verdictMessage(report *stats.Report, threshold float64, minSample int) string {
	verdict := report.Verdict
	switch {
	case !verdict.SufficientData:
		return fmt.Sprintf("Statistical significance: Not enough data (every variant needs at least %s views)", formatNumber(minSample))
	case verdict.ControlConfirmed():
		return fmt.Sprintf("Statistical significance: %.1f%% confident control \"%s\" beats every challenger",
			verdict.ConfidencePercent, report.Variants[0].Name)
	case verdict.HasWinner():
		winner := report.Variants[*verdict.WinnerIndex]
		return fmt.Sprintf("Statistical significance: %.1f%% confident \"%s\" is the winner (%s lift)",
			verdict.ConfidencePercent, winner.Name, formatSignedPercent(winner.Comparison.RelativeLiftPercent))
	default:
		return fmt.Sprintf("Statistical significance: No variant is significant at %g%% yet", threshold)
	}
}

func (a *app) effectiveThreshold(cmd *cobra.Command) float64 {
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		return v
	}
	return a.cfg.Analysis.ConfidenceThreshold
}

func (a *app) effectiveMinSample(cmd *cobra.Command) int {
	if cmd.Flags().Changed("min-sample") {
		v, _ := cmd.Flags().GetInt("min-sample")
		return v
	}
	return a.cfg.Analysis.MinimumSampleSize
}
