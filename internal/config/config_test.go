package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars and no file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"TSFLOW_LOGGING_LEVEL":            "debug",
				"TSFLOW_ENGINE_MAX_TICKS":         "42",
				"TSFLOW_VALIDATION_KEYS":          "close,volume",
				"TSFLOW_EXPORT_FORMAT":            "xlsx",
				"TSFLOW_TELEMETRY_METRICS_ADDR":   ":9090",
				"TSFLOW_VALIDATION_CLUSTER_LIMIT": "3",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 42, cfg.Engine.MaxTicks)
				assert.Equal(t, []string{"close", "volume"}, cfg.Validation.Keys)
				assert.Equal(t, "xlsx", cfg.Export.Format)
				assert.Equal(t, ":9090", cfg.Telemetry.MetricsAddr)
				assert.Equal(t, 3, cfg.Validation.ClusterLimit)
			},
		},
		{
			name: "file overrides defaults",
			file: `
validation:
  cluster_limit: 7
  discrepancy_tolerance: 0.5
export:
  dir: reports
  format: mebo
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7, cfg.Validation.ClusterLimit)
				assert.Equal(t, 0.5, cfg.Validation.DiscrepancyTolerance)
				assert.Equal(t, "reports", cfg.Export.Dir)
				assert.Equal(t, "mebo", cfg.Export.Format)
				assert.Equal(t, "info", cfg.Logging.Level, "untouched fields keep defaults")
				assert.Equal(t, []string{"open", "high", "low", "close"}, cfg.Validation.Keys)
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"TSFLOW_EXPORT_DIR": "from-env"},
			file: `
export:
  dir: from-file
  format: xlsx
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env", cfg.Export.Dir)
				assert.Equal(t, "xlsx", cfg.Export.Format)
			},
		},
		{
			name:    "invalid export format",
			env:     map[string]string{"TSFLOW_EXPORT_FORMAT": "parquet"},
			wantErr: true,
		},
		{
			name:    "invalid log level in file",
			file:    "logging:\n  level: loud\n",
			wantErr: true,
		},
		{
			name:    "unknown key in file",
			file:    "server:\n  port: 8080\n",
			wantErr: true,
		},
		{
			name:    "malformed number in env",
			env:     map[string]string{"TSFLOW_ENGINE_MAX_TICKS": "many"},
			wantErr: true,
		},
		{
			name:    "negative tolerance",
			file:    "validation:\n  neighbor_tolerance: -1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
