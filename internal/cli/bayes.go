package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newBayesCmd(a *app) *cobra.Command {
	var (
		file  string
		exact bool
	)

	cmd := &cobra.Command{
		Use:   "bayes [name]",
		Short: "Show Beta-Binomial posteriors and expected loss",
		Long: `Show the posterior mean and 95% credible interval of each variant's
conversion rate, plus the expected loss of choosing it.

Intervals use the normal approximation to the Beta posterior unless --exact
is given. Expected loss is the gap between a variant's posterior mean and the
best posterior mean.

Example:
  hlg-stats bayes hero --exact --prior-alpha 2 --prior-beta 40`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadExperiment(cmd.Context(), args, file)
			if err != nil {
				return err
			}

			report, err := a.analyze(cmd, data, exact)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			st := newStyles(w)

			method := "normal approximation"
			if exact {
				method = "exact Beta quantiles"
			}
			fmt.Fprintln(w, st.title.Render("TEST: "+data.Name))
			fmt.Fprintf(w, "INTERVALS: %s\n\n", method)

			fmt.Fprintln(w, st.header.Render("VARIANT           MEAN     95% CREDIBLE      EXPECTED LOSS"))
			fmt.Fprintln(w, strings.Repeat("─", 60))

			for _, v := range report.Variants {
				line := fmt.Sprintf("%-16s  %-7s  %-16s  %.4f%%",
					truncate(v.Name, 16),
					formatPercent(v.Posterior.Mean),
					fmt.Sprintf("[%.1f%%, %.1f%%]", v.Posterior.Lower*100, v.Posterior.Upper*100),
					v.ExpectedLoss*100,
				)
				if v.Index == report.BestPosterior {
					line = st.winner.Render(line + "  ← BEST")
				}
				fmt.Fprintln(w, line)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read counts from a TOML snapshot instead of the database")
	cmd.Flags().BoolVar(&exact, "exact", false, "use exact Beta quantiles for credible intervals")
	addPriorFlags(cmd)

	return cmd
}
