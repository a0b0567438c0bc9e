// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration loading for the polyglot tool.
//
// Configuration is loaded from a single YAML file named by the --config flag
// or the POLYGLOT_CONFIG environment variable. Without either, the defaults
// are used. Values not present in the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "POLYGLOT_CONFIG"

// Config is the master configuration
type Config struct {
	// Network is one of main, test or stn
	Network  string         `yaml:"network"`
	LogLevel string         `yaml:"log_level"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Funding  FundingConfig  `yaml:"funding"`
	Upload   UploadConfig   `yaml:"upload"`
	Download DownloadConfig `yaml:"download"`
}

// LedgerConfig configures the WhatsOnChain client
type LedgerConfig struct {
	BaseUrl string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FundingConfig struct {
	// FeeRate is in satoshis per kilobyte
	FeeRate          uint64        `yaml:"fee_rate"`
	MinConfirmations uint32        `yaml:"min_confirmations"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	MaxPollAttempts  int           `yaml:"max_poll_attempts"`
}

type UploadConfig struct {
	MaxCarrierSize int `yaml:"max_carrier_size"`
	SafetyMargin   int `yaml:"safety_margin"`
	// CheckpointDir holds resumable upload state. Empty disables checkpoints
	CheckpointDir string `yaml:"checkpoint_dir"`
}

type DownloadConfig struct {
	MaxDepth        int           `yaml:"max_depth"`
	CacheLifeWindow time.Duration `yaml:"cache_life_window"`
	// CacheSizeMB caps the transaction cache. Zero disables it
	CacheSizeMB int `yaml:"cache_size_mb"`
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Network:  "main",
		LogLevel: "info",
		Ledger: LedgerConfig{
			BaseUrl: "https://api.whatsonchain.com/v1/bsv",
			Timeout: 30 * time.Second,
		},
		Funding: FundingConfig{
			FeeRate:          50,
			MinConfirmations: 1,
			PollInterval:     10 * time.Second,
			MaxPollAttempts:  60,
		},
		Upload: UploadConfig{
			MaxCarrierSize: 100_000,
			SafetyMargin:   11_000,
			CheckpointDir:  filepath.Join(homeDir, ".cache", "polyglot", "checkpoints"),
		},
		Download: DownloadConfig{
			MaxDepth:        10,
			CacheLifeWindow: 10 * time.Minute,
			CacheSizeMB:     256,
		},
	}
}

// Load loads configuration from path, or from POLYGLOT_CONFIG when path is
// empty. With neither set the defaults are returned
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Upload.CheckpointDir = os.ExpandEnv(cfg.Upload.CheckpointDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	var errs []error
	switch c.Network {
	case "main", "test", "stn":
	default:
		errs = append(errs, fmt.Errorf("network must be main, test or stn, got %q", c.Network))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Ledger.BaseUrl == "" {
		errs = append(errs, errors.New("ledger.base_url is required"))
	}
	if c.Funding.MaxPollAttempts < 1 {
		errs = append(errs, errors.New("funding.max_poll_attempts must be at least 1"))
	}
	if c.Funding.PollInterval <= 0 {
		errs = append(errs, errors.New("funding.poll_interval must be positive"))
	}
	if c.Upload.MaxCarrierSize <= c.Upload.SafetyMargin {
		errs = append(errs, errors.New("upload.max_carrier_size must exceed upload.safety_margin"))
	}
	if c.Download.MaxDepth < 1 {
		errs = append(errs, errors.New("download.max_depth must be at least 1"))
	}
	if c.Download.CacheSizeMB < 0 {
		errs = append(errs, errors.New("download.cache_size_mb must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
