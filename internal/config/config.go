package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is everything the estimator reads from file and environment.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Estimate     EstimateConfig     `yaml:"estimate" mapstructure:"estimate"`
	Pricing      PricingConfig      `yaml:"pricing" mapstructure:"pricing"`
	Catalog      CatalogConfig      `yaml:"catalog" mapstructure:"catalog"`
	Productivity ProductivityConfig `yaml:"productivity" mapstructure:"productivity"`
	Report       ReportConfig       `yaml:"report" mapstructure:"report"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the estimate store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EstimateConfig holds markup defaults applied when a project file leaves
// them unset.
type EstimateConfig struct {
	DefaultContingency float64 `yaml:"default_contingency" mapstructure:"default_contingency"`
	OverheadRate       float64 `yaml:"overhead_rate" mapstructure:"overhead_rate"`
	ProfitRate         float64 `yaml:"profit_rate" mapstructure:"profit_rate"`
}

// PricingConfig configures the pricing service.
type PricingConfig struct {
	CacheSize          int                `yaml:"cache_size" mapstructure:"cache_size"`
	DefaultLocation    string             `yaml:"default_location" mapstructure:"default_location"`
	RetailIntervalSecs int                `yaml:"retail_interval_secs" mapstructure:"retail_interval_secs"`
	Weights            map[string]float64 `yaml:"weights" mapstructure:"weights"`
}

// CatalogConfig points at vendor pricing files and their download source.
type CatalogConfig struct {
	PricingPath      string `yaml:"pricing_path" mapstructure:"pricing_path"`
	LaborRatesPath   string `yaml:"labor_rates_path" mapstructure:"labor_rates_path"`
	Charset          string `yaml:"charset" mapstructure:"charset"`
	SourceURL        string `yaml:"source_url" mapstructure:"source_url"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	FTPUser          string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword      string `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// ProductivityConfig points at replacement labor productivity tables.
type ProductivityConfig struct {
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	Format         string `yaml:"format" mapstructure:"format"`
	BenchmarksPath string `yaml:"benchmarks_path" mapstructure:"benchmarks_path"`
}

// LogConfig controls log level and output encoding.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load resolves configuration: file, then environment, then defaults.
func Load() (*Config, error) {
	v := viper.New()

	// estimator.yaml is searched in cwd, the user config dir, and /etc.
	v.SetConfigName("estimator")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "estimator"))
	}
	v.AddConfigPath("/etc/estimator")

	// ESTIMATOR_STORE_DRIVER and friends override file values.
	v.SetEnvPrefix("ESTIMATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Baseline values for anything the file and environment leave unset.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("estimate.default_contingency", 0.10)
	v.SetDefault("estimate.overhead_rate", 0.15)
	v.SetDefault("estimate.profit_rate", 0.10)
	v.SetDefault("pricing.cache_size", 1000)
	v.SetDefault("pricing.default_location", "default")
	v.SetDefault("pricing.retail_interval_secs", 1)
	v.SetDefault("catalog.pricing_path", "catalog/pricing.csv")
	v.SetDefault("catalog.labor_rates_path", "catalog/labor_rates.csv")
	v.SetDefault("catalog.fetch_timeout_secs", 60)
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.format", "csv")

	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for values no command can work with.
// All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required when store.driver is postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported store driver: %s", c.Store.Driver))
	}

	if c.Estimate.DefaultContingency < 0 || c.Estimate.DefaultContingency > 1 {
		problems = append(problems, "estimate.default_contingency must be between 0 and 1")
	}
	if c.Estimate.OverheadRate < 0 || c.Estimate.OverheadRate > 1 {
		problems = append(problems, "estimate.overhead_rate must be between 0 and 1")
	}
	if c.Estimate.ProfitRate < 0 || c.Estimate.ProfitRate > 1 {
		problems = append(problems, "estimate.profit_rate must be between 0 and 1")
	}

	if c.Pricing.CacheSize < 0 {
		problems = append(problems, "pricing.cache_size must be >= 0")
	}
	for _, w := range c.Pricing.Weights {
		if w < 0 {
			problems = append(problems, "pricing.weights values must be >= 0")
			break
		}
	}

	switch c.Report.Format {
	case "csv", "xlsx", "excel", "json":
	default:
		problems = append(problems, fmt.Sprintf("unsupported report format: %s", c.Report.Format))
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger builds the zap logger from cfg and installs it globally.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
