package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ANTENATI"

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	Workers     int    `json:"workers" mapstructure:"workers"`
	Connections int    `json:"connections" mapstructure:"connections"`
	OutputRoot  string `json:"output_root" mapstructure:"output_root"`
	AssumeYes   bool   `json:"assume_yes" mapstructure:"assume_yes"`

	// HTTP settings
	Referer        string        `json:"referer" mapstructure:"referer"`
	Origin         string        `json:"origin" mapstructure:"origin"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`

	// Logging
	Verbose bool `json:"verbose" mapstructure:"verbose"`
	LogJSON bool `json:"log_json" mapstructure:"log_json"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	headers := antenatihttp.DefaultHeaderConfig()
	return &Settings{
		Workers:     runtime.NumCPU(),
		Connections: 4,
		OutputRoot:  ".",

		Referer: headers.Referer,
		Origin:  headers.Origin,
	}
}

// Load reads settings from defaults, an optional config file and the
// environment, in increasing order of precedence.
//
// With an empty path, antenati.{json,yaml,toml} is searched in the working
// directory and in $HOME/.config/antenati.
func Load(path string) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("connections", defaults.Connections)
	v.SetDefault("output_root", defaults.OutputRoot)
	v.SetDefault("assume_yes", defaults.AssumeYes)
	v.SetDefault("referer", defaults.Referer)
	v.SetDefault("origin", defaults.Origin)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("log_json", defaults.LogJSON)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("antenati")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "antenati"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return settings, nil
}

// Validate checks that the pool sizes are usable.
func (s *Settings) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.Connections < 1 {
		return fmt.Errorf("connections must be at least 1, got %d", s.Connections)
	}
	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToHTTPConfig converts settings to the HTTP client configuration.
func (s *Settings) ToHTTPConfig() antenatihttp.Config {
	return antenatihttp.Config{
		Headers: antenatihttp.HeaderSet(antenatihttp.HeaderConfig{
			Referer: s.Referer,
			Origin:  s.Origin,
		}),
		Timeout: s.RequestTimeout,
	}
}
