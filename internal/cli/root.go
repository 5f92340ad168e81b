package cli

import (
	"fmt"
	"os"

	"github.com/headline-goat/hlg-stats/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries state shared by every command of one invocation.
type app struct {
	cfgFile string
	dbPath  string
	verbose bool

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	rootCmd := &cobra.Command{
		Use:   "hlg-stats",
		Short: "Headline Goat stats - significance, winners and sample sizes for A/B tests",
		Long: `🐐 hlg-stats reads per-variant views and conversions from a Headline Goat
database or a TOML snapshot and reports conversion rates, Wilson intervals,
z-test significance, Bayesian posteriors and a winner verdict.

Variant 0 is always the control.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", getEnvOrDefault("HLG_CONFIG", ""), "config file (default ./hlg-stats.toml)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (default from config, ./hlg.db)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "V", false, "enable debug logging")

	rootCmd.AddCommand(
		newResultsCmd(a),
		newWinnerCmd(a),
		newBayesCmd(a),
		newPlanCmd(a),
		newListCmd(a),
		newExportCmd(a),
	)

	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.dbPath == "" {
		a.dbPath = cfg.Database.Path
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if a.verbose {
		level = logrus.DebugLevel
	}

	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(level)
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	a.log.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"db":      a.dbPath,
		"config":  a.cfgFile,
	}).Debug("configuration loaded")

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
