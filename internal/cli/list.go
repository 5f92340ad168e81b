package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/headline-goat/hlg-stats/internal/store"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tests",
		Long:  `List all A/B tests in the database with their totals and current verdict.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s store.Source) error {
				ctx := cmd.Context()

				experiments, err := s.ListExperiments(ctx)
				if err != nil {
					return fmt.Errorf("failed to list tests: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(experiments) == 0 {
					fmt.Fprintln(out, "No tests yet.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSTATE\tVARIANTS\tVIEWS\tCONVERSIONS\tVERDICT\tCREATED")

				opts := a.cfg.AnalyzeOptions()
				for _, exp := range experiments {
					observations, err := s.Observations(ctx, exp.Name)
					if err != nil {
						return fmt.Errorf("failed to get stats for test %s: %w", exp.Name, err)
					}

					totalViews := 0
					totalConversions := 0
					for _, o := range observations {
						totalViews += o.Views
						totalConversions += o.Conversions
					}

					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
						exp.Name,
						strings.ToUpper(string(exp.State)),
						len(exp.Variants),
						formatNumber(totalViews),
						formatNumber(totalConversions),
						shortVerdict(observations, opts),
						exp.CreatedAt.Format("2006-01-02"),
					)
				}

				return w.Flush()
			})
		},
	}
}

// shortVerdict summarises DetermineWinner for a table cell.
func shortVerdict(observations []stats.VariantObservation, opts stats.AnalyzeOptions) string {
	verdict, err := stats.DetermineWinner(observations, opts.MinimumSampleSize, opts.ConfidenceThreshold)
	switch {
	case err != nil:
		return "invalid"
	case !verdict.SufficientData:
		return "collecting"
	case verdict.ControlConfirmed():
		return "control"
	case verdict.HasWinner():
		return fmt.Sprintf("%s (%.1f%%)", observations[*verdict.WinnerIndex].Name, verdict.ConfidencePercent)
	default:
		return "no winner"
	}
}
