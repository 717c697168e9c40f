// Package config provides centralized configuration management for FireDays.
// It handles loading configuration from multiple sources, validation, and a
// type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. An optional YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FIREDAYS_<SECTION>_<FIELD>:
//
//	FIREDAYS_SERVER_PORT=8050
//	FIREDAYS_LOGGING_LEVEL=info
//	FIREDAYS_PATHS_DATA_DIR=/srv/firedays/data
//	FIREDAYS_DATASET_CAUSE_KEYWORDS=fire,wildfire,smoke
//
// A bare PORT variable, the convention most deploy platforms use, overrides
// the configured listening port:
//
//	PORT=3000
//
// # Configuration File
//
// The loader looks for firedays.yml (or firedays.yaml) next to the working
// directory and the executable, or at the path named by FIREDAYS_CONFIG. The
// file only has to mention the keys it changes; everything else keeps its
// default.
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which resolves all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	incidents := paths.IncidentsCSV
//	summary := paths.GetReportPath("county_summary.csv")
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
