package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		baseline     float64
		mde          float64
		alpha        float64
		power        float64
		variantCount int
		dailyTraffic int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Estimate the sample size a test needs",
		Long: `Estimate how many views each variant needs before a test can detect the
minimum detectable effect (a relative lift, 0.10 = +10%) at the given
significance level and power.

For more than two variants the per-variant size is scaled by ln(variants),
a heuristic correction for multiple comparisons.

Examples:
  hlg-stats plan --baseline 0.05
  hlg-stats plan --baseline 0.05 --mde 0.2 --variants 3 --daily-traffic 400`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("mde") {
				mde = a.cfg.Planning.MinimumDetectableEffect
			}
			if !flags.Changed("alpha") {
				alpha = a.cfg.Planning.Alpha
			}
			if !flags.Changed("power") {
				power = a.cfg.Planning.Power
			}
			if !flags.Changed("daily-traffic") {
				dailyTraffic = a.cfg.Planning.DailyTraffic
			}

			if !flags.Changed("baseline") {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return errors.New("--baseline is required")
				}
				var err error
				baseline, err = promptBaseline()
				if err != nil {
					return err
				}
			}

			plan, err := stats.PlanSampleSize(baseline,
				stats.WithMinimumDetectableEffect(mde),
				stats.WithAlpha(alpha),
				stats.WithPower(power),
				stats.WithVariantCount(variantCount),
				stats.WithDailyTraffic(dailyTraffic),
			)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"baseline":    baseline,
				"mde":         mde,
				"alpha":       alpha,
				"power":       power,
				"variants":    variantCount,
				"per_variant": plan.PerVariant,
			}).Debug("sample size planned")

			w := cmd.OutOrStdout()
			st := newStyles(w)
			fmt.Fprintln(w, st.title.Render("SAMPLE SIZE PLAN"))
			fmt.Fprintf(w, "Baseline rate:      %s\n", formatPercent(baseline))
			fmt.Fprintf(w, "Detectable effect:  %s relative (%s → %s)\n",
				formatSignedPercent(mde*100), formatPercent(baseline), formatPercent(baseline*(1+mde)))
			fmt.Fprintf(w, "Significance:       %.0f%% (alpha %.3g), power %.0f%%\n", (1-alpha)*100, alpha, power*100)
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Views per variant:  %s\n", st.header.Render(formatNumber(plan.PerVariant)))
			fmt.Fprintf(w, "Total views:        %s (%d variants)\n", formatNumber(plan.Total), variantCount)
			fmt.Fprintf(w, "Estimated duration: %d days at %s views/day per variant\n", plan.EstimatedDays, formatNumber(dailyTraffic))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&baseline, "baseline", "b", 0, "current conversion rate of control, e.g. 0.05")
	cmd.Flags().Float64Var(&mde, "mde", stats.DefaultMinimumDetectableEffect, "minimum detectable relative effect (default from config)")
	cmd.Flags().Float64Var(&alpha, "alpha", stats.DefaultAlpha, "two-tailed significance level (default from config)")
	cmd.Flags().Float64Var(&power, "power", stats.DefaultPower, "statistical power (default from config)")
	cmd.Flags().IntVarP(&variantCount, "variants", "n", stats.DefaultVariantCount, "number of variants including control")
	cmd.Flags().IntVar(&dailyTraffic, "daily-traffic", stats.DefaultDailyTraffic, "expected daily views per variant (default from config)")

	return cmd
}

func promptBaseline() (float64, error) {
	prompt := promptui.Prompt{
		Label:    "Current conversion rate of control (e.g. 0.05 or 5%)",
		Validate: func(input string) error {
			_, err := parseRate(input)
			return err
		},
	}

	result, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}

	return parseRate(result)
}

// parseRate accepts "0.05" or "5%".
func parseRate(input string) (float64, error) {
	s := strings.TrimSpace(input)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", input)
	}
	if percent {
		v /= 100
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("rate must be between 0 and 1 (or 0%% and 100%%)")
	}
	return v, nil
}
