package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Export per-variant statistics",
		Long: `Export the full per-variant report in CSV or JSON format.

Examples:
  hlg-stats export hero --format csv > hero-stats.csv
  hlg-stats export hero --format json > hero-stats.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format: must be 'csv' or 'json'")
			}

			data, err := a.loadExperiment(cmd.Context(), args, file)
			if err != nil {
				return err
			}

			report, err := a.analyze(cmd, data, false)
			if err != nil {
				return err
			}

			if format == "csv" {
				return exportCSV(cmd.OutOrStdout(), report)
			}
			return exportJSON(cmd.OutOrStdout(), data.Name, report)
		},
	}

	addAnalysisFlags(cmd, &file)
	addPriorFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv or json)")

	return cmd
}

var csvHeader = []string{
	"variant", "name", "views", "conversions", "rate", "ci_lower", "ci_upper",
	"z_score", "p_value", "confidence_percent", "relative_lift_percent", "absolute_lift_percent",
	"posterior_mean", "posterior_lower", "posterior_upper", "expected_loss", "winner",
}

func exportCSV(out io.Writer, report *stats.Report) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	for _, v := range report.Variants {
		z, p, conf, rel, abs := "", "", "", "", ""
		if c := v.Comparison; c != nil {
			z, p, conf, rel, abs = f(c.ZScore), f(c.PValue), f(c.ConfidencePercent), f(c.RelativeLiftPercent), f(c.AbsoluteLiftPercent)
		}
		winner := report.Verdict.WinnerIndex != nil && *report.Verdict.WinnerIndex == v.Index

		row := []string{
			strconv.Itoa(v.Index),
			v.Name,
			strconv.Itoa(v.Views),
			strconv.Itoa(v.Conversions),
			f(v.Rate),
			f(v.Interval.Lower),
			f(v.Interval.Upper),
			z, p, conf, rel, abs,
			f(v.Posterior.Mean),
			f(v.Posterior.Lower),
			f(v.Posterior.Upper),
			f(v.ExpectedLoss),
			strconv.FormatBool(winner),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Verdict  jsonVerdict   `json:"verdict"`
	Variants []jsonVariant `json:"variants"`
}

type jsonVariant struct {
	Variant        int     `json:"variant"`
	Name           string  `json:"name"`
	Views          int     `json:"views"`
	Conversions    int     `json:"conversions"`
	Rate           float64 `json:"rate"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
	PosteriorMean  float64 `json:"posterior_mean"`
	PosteriorLower float64 `json:"posterior_lower"`
	PosteriorUpper float64 `json:"posterior_upper"`
	ExpectedLoss   float64 `json:"expected_loss"`
}

func exportJSON(out io.Writer, name string, report *stats.Report) error {
	export := jsonExport{
		Verdict:  toJSONVerdict(name, report),
		Variants: make([]jsonVariant, len(report.Variants)),
	}

	for i, v := range report.Variants {
		export.Variants[i] = jsonVariant{
			Variant:        v.Index,
			Name:           v.Name,
			Views:          v.Views,
			Conversions:    v.Conversions,
			Rate:           v.Rate,
			CILower:        v.Interval.Lower,
			CIUpper:        v.Interval.Upper,
			PosteriorMean:  v.Posterior.Mean,
			PosteriorLower: v.Posterior.Lower,
			PosteriorUpper: v.Posterior.Upper,
			ExpectedLoss:   v.ExpectedLoss,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
