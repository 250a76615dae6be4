package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "TSFLOW"

var validate = validator.New()

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Engine     EngineConfig     `yaml:"engine" envconfig:"ENGINE"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/tsflow.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// EngineConfig bounds a single net execution.
type EngineConfig struct {
	// MaxTicks stops a run after this many ticks. Zero means unbounded.
	MaxTicks int `yaml:"max_ticks" envconfig:"MAX_TICKS" default:"10000000" validate:"gte=0"`
}

// ValidationConfig carries the thresholds used by the built-in analyses.
type ValidationConfig struct {
	ClusterLimit         int      `yaml:"cluster_limit" envconfig:"CLUSTER_LIMIT" default:"5" validate:"gte=1"`
	DiscrepancyTolerance float64  `yaml:"discrepancy_tolerance" envconfig:"DISCREPANCY_TOLERANCE" default:"0.01" validate:"gte=0"`
	NeighborTimeRange    int      `yaml:"neighbor_time_range" envconfig:"NEIGHBOR_TIME_RANGE" default:"2" validate:"gte=0"`
	NeighborTolerance    float64  `yaml:"neighbor_tolerance" envconfig:"NEIGHBOR_TOLERANCE" default:"0.05" validate:"gte=0"`
	Keys                 []string `yaml:"keys" envconfig:"KEYS" default:"open,high,low,close" validate:"min=1,dive,required"`
}

// ExportConfig decides where and how analysis output is written.
type ExportConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" default:"out" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"csv" validate:"oneof=csv xlsx mebo"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Tracing       bool   `yaml:"tracing" envconfig:"TRACING" default:"false"`
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS" default:"true"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	MetricsAddr   string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// Load loads configuration from environment variables and an optional
// YAML file. Variables that are set in the environment win over the file;
// the file wins over defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path != "" {
		fileConfig, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file on top of the defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(file, env Config) Config {
	out := file

	out.Logging.Level = pick("LOGGING_LEVEL", env.Logging.Level, file.Logging.Level)
	out.Logging.Format = pick("LOGGING_FORMAT", env.Logging.Format, file.Logging.Format)
	out.Logging.Output = pick("LOGGING_OUTPUT", env.Logging.Output, file.Logging.Output)
	out.Logging.FilePath = pick("LOGGING_FILE_PATH", env.Logging.FilePath, file.Logging.FilePath)
	out.Logging.Development = pick("LOGGING_DEVELOPMENT", env.Logging.Development, file.Logging.Development)

	out.Engine.MaxTicks = pick("ENGINE_MAX_TICKS", env.Engine.MaxTicks, file.Engine.MaxTicks)

	out.Validation.ClusterLimit = pick("VALIDATION_CLUSTER_LIMIT", env.Validation.ClusterLimit, file.Validation.ClusterLimit)
	out.Validation.DiscrepancyTolerance = pick("VALIDATION_DISCREPANCY_TOLERANCE", env.Validation.DiscrepancyTolerance, file.Validation.DiscrepancyTolerance)
	out.Validation.NeighborTimeRange = pick("VALIDATION_NEIGHBOR_TIME_RANGE", env.Validation.NeighborTimeRange, file.Validation.NeighborTimeRange)
	out.Validation.NeighborTolerance = pick("VALIDATION_NEIGHBOR_TOLERANCE", env.Validation.NeighborTolerance, file.Validation.NeighborTolerance)
	out.Validation.Keys = pick("VALIDATION_KEYS", env.Validation.Keys, file.Validation.Keys)

	out.Export.Dir = pick("EXPORT_DIR", env.Export.Dir, file.Export.Dir)
	out.Export.Format = pick("EXPORT_FORMAT", env.Export.Format, file.Export.Format)

	out.Telemetry.Tracing = pick("TELEMETRY_TRACING", env.Telemetry.Tracing, file.Telemetry.Tracing)
	out.Telemetry.Metrics = pick("TELEMETRY_METRICS", env.Telemetry.Metrics, file.Telemetry.Metrics)
	out.Telemetry.TraceExporter = pick("TELEMETRY_TRACE_EXPORTER", env.Telemetry.TraceExporter, file.Telemetry.TraceExporter)
	out.Telemetry.MetricsAddr = pick("TELEMETRY_METRICS_ADDR", env.Telemetry.MetricsAddr, file.Telemetry.MetricsAddr)

	return out
}

// pick returns the env value when the variable is explicitly set.
func pick[T any](name string, env, file T) T {
	if _, ok := os.LookupEnv(EnvPrefix + "_" + name); ok {
		return env
	}
	return file
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tsflow.log",
		},
		Engine: EngineConfig{
			MaxTicks: 10_000_000,
		},
		Validation: ValidationConfig{
			ClusterLimit:         5,
			DiscrepancyTolerance: 0.01,
			NeighborTimeRange:    2,
			NeighborTolerance:    0.05,
			Keys:                 []string{"open", "high", "low", "close"},
		},
		Export: ExportConfig{
			Dir:    "out",
			Format: "csv",
		},
		Telemetry: TelemetryConfig{
			Metrics:       true,
			TraceExporter: "stdout",
		},
	}
}
