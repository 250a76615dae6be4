// Package config provides configuration loading for tsflow.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file passed to Load
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TSFLOW_<SECTION>_<FIELD>:
//
//	TSFLOW_LOGGING_LEVEL=debug
//	TSFLOW_ENGINE_MAX_TICKS=500000
//	TSFLOW_VALIDATION_KEYS=open,close
//	TSFLOW_EXPORT_FORMAT=xlsx
//	TSFLOW_TELEMETRY_METRICS_ADDR=:9090
//
// # Configuration File
//
//	logging:
//	  level: info
//	  output: console
//	validation:
//	  cluster_limit: 5
//	  discrepancy_tolerance: 0.01
//	export:
//	  dir: out
//	  format: csv
//
// Unknown keys in the file are rejected. After merging, every section is
// checked against its validate tags.
package config
