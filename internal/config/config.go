package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HLG_ANALYSIS_CONFIDENCE_THRESHOLD.
const EnvPrefix = "HLG"

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Planning PlanningConfig `mapstructure:"planning"`
	Bayes    BayesConfig    `mapstructure:"bayes"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AnalysisConfig struct {
	MinimumSampleSize   int     `mapstructure:"minimum_sample_size"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type PlanningConfig struct {
	MinimumDetectableEffect float64 `mapstructure:"minimum_detectable_effect"`
	Alpha                   float64 `mapstructure:"alpha"`
	Power                   float64 `mapstructure:"power"`
	DailyTraffic            int     `mapstructure:"daily_traffic"`
}

type BayesConfig struct {
	PriorAlpha float64 `mapstructure:"prior_alpha"`
	PriorBeta  float64 `mapstructure:"prior_beta"`
}

// Load reads defaults, then hlg-stats.toml (from path, or from the working
// directory and $HOME/.config/hlg-stats), then HLG_* environment variables.
// A missing config file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hlg-stats")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "hlg-stats"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")

	v.SetDefault("database.path", "./hlg.db")

	v.SetDefault("analysis.minimum_sample_size", stats.DefaultMinimumSampleSize)
	v.SetDefault("analysis.confidence_threshold", stats.DefaultConfidenceThreshold)

	v.SetDefault("planning.minimum_detectable_effect", stats.DefaultMinimumDetectableEffect)
	v.SetDefault("planning.alpha", stats.DefaultAlpha)
	v.SetDefault("planning.power", stats.DefaultPower)
	v.SetDefault("planning.daily_traffic", stats.DefaultDailyTraffic)

	v.SetDefault("bayes.prior_alpha", stats.DefaultPriorAlpha)
	v.SetDefault("bayes.prior_beta", stats.DefaultPriorBeta)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.Analysis.MinimumSampleSize < 0 {
		return fmt.Errorf("analysis.minimum_sample_size must not be negative, got %d", c.Analysis.MinimumSampleSize)
	}
	if c.Analysis.ConfidenceThreshold <= 0 || c.Analysis.ConfidenceThreshold > 100 {
		return fmt.Errorf("analysis.confidence_threshold must be in (0, 100], got %v", c.Analysis.ConfidenceThreshold)
	}
	if c.Planning.MinimumDetectableEffect <= 0 {
		return fmt.Errorf("planning.minimum_detectable_effect must be positive, got %v", c.Planning.MinimumDetectableEffect)
	}
	if c.Planning.Alpha <= 0 || c.Planning.Alpha >= 1 {
		return fmt.Errorf("planning.alpha must be in (0, 1), got %v", c.Planning.Alpha)
	}
	if c.Planning.Power <= 0 || c.Planning.Power >= 1 {
		return fmt.Errorf("planning.power must be in (0, 1), got %v", c.Planning.Power)
	}
	if c.Planning.DailyTraffic < 1 {
		return fmt.Errorf("planning.daily_traffic must be positive, got %d", c.Planning.DailyTraffic)
	}
	if c.Bayes.PriorAlpha <= 0 || c.Bayes.PriorBeta <= 0 {
		return fmt.Errorf("bayes priors must be positive, got alpha=%v beta=%v", c.Bayes.PriorAlpha, c.Bayes.PriorBeta)
	}
	return nil
}

// AnalyzeOptions maps the analysis and bayes sections onto the engine.
func (c *Config) AnalyzeOptions() stats.AnalyzeOptions {
	return stats.AnalyzeOptions{
		MinimumSampleSize:   c.Analysis.MinimumSampleSize,
		ConfidenceThreshold: c.Analysis.ConfidenceThreshold,
		PriorAlpha:          c.Bayes.PriorAlpha,
		PriorBeta:           c.Bayes.PriorBeta,
	}
}
