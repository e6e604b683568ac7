// Package config provides configuration management for antenati-downloader.
//
// This package handles:
//   - Default configuration values
//   - Loading settings from a config file and ANTENATI_* environment variables
//   - Saving settings to a JSON file
//   - Conversion to the HTTP client configuration
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// one worker per CPU, 4 connections to the image server
//
// # Loading
//
//	settings, err := config.Load("")                   // search antenati.{json,yaml,toml}
//	settings, err := config.Load("/path/to/antenati.json")
//
// Environment variables override file values:
//
//	ANTENATI_WORKERS=8 ANTENATI_CONNECTIONS=2 antenati-dl <url>
//
// A missing config file is not an error.
package config
