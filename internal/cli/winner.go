package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/spf13/cobra"
)

type jsonVerdict struct {
	Experiment        string           `json:"experiment"`
	WinnerIndex       *int             `json:"winner_index"`
	WinnerName        string           `json:"winner_name,omitempty"`
	ControlConfirmed  bool             `json:"control_confirmed"`
	ConfidencePercent float64          `json:"confidence_percent"`
	SufficientData    bool             `json:"sufficient_data"`
	Results           []jsonComparison `json:"results"`
}

type jsonComparison struct {
	Variant             int     `json:"variant"`
	Name                string  `json:"name"`
	IsSignificant       bool    `json:"is_significant"`
	ConfidencePercent   float64 `json:"confidence_percent"`
	PValue              float64 `json:"p_value"`
	ZScore              float64 `json:"z_score"`
	RelativeLiftPercent float64 `json:"relative_lift_percent"`
	AbsoluteLiftPercent float64 `json:"absolute_lift_percent"`
}

func newWinnerCmd(a *app) *cobra.Command {
	var (
		file     string
		asJSON   bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "winner [name]",
		Short: "Determine the winning variant of a test",
		Long: `Compare every variant against control (variant 0) and report the winner.

A challenger wins when it is significant at the confidence threshold, beats
control, and has the highest conversion rate among such challengers. When
every challenger is significantly worse, control is reported as the winner
(index 0). No winner is reported while any variant has fewer views than
--min-sample.

Example:
  hlg-stats winner hero --threshold 99
  hlg-stats winner --file testdata/hero.toml --json`,
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

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(toJSONVerdict(data.Name, report)); err != nil {
					return fmt.Errorf("failed to encode verdict: %w", err)
				}
			} else {
				fmt.Fprintln(out, verdictMessage(report, a.effectiveThreshold(cmd), a.effectiveMinSample(cmd)))
			}

			if exitCode && !report.Verdict.HasWinner() {
				return errNoWinner
			}
			return nil
		},
	}

	addAnalysisFlags(cmd, &file)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit non-zero when no winner can be declared")

	return cmd
}

var errNoWinner = errors.New("no winner declared")

func toJSONVerdict(name string, report *stats.Report) jsonVerdict {
	verdict := report.Verdict
	out := jsonVerdict{
		Experiment:        name,
		WinnerIndex:       verdict.WinnerIndex,
		ControlConfirmed:  verdict.ControlConfirmed(),
		ConfidencePercent: verdict.ConfidencePercent,
		SufficientData:    verdict.SufficientData,
		Results:           make([]jsonComparison, 0, len(verdict.Results)),
	}
	if verdict.WinnerIndex != nil {
		out.WinnerName = report.Variants[*verdict.WinnerIndex].Name
	}

	for i, r := range verdict.Results {
		out.Results = append(out.Results, jsonComparison{
			Variant:             i + 1,
			Name:                report.Variants[i+1].Name,
			IsSignificant:       r.IsSignificant,
			ConfidencePercent:   r.ConfidencePercent,
			PValue:              r.PValue,
			ZScore:              r.ZScore,
			RelativeLiftPercent: r.RelativeLiftPercent,
			AbsoluteLiftPercent: r.AbsoluteLiftPercent,
		})
	}

	return out
}
