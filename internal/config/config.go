package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General GeneralConfig `toml:"general"`
	Logs    LogsConfig    `toml:"logs"`
	Pricing PricingConfig `toml:"pricing"`
	Watch   WatchConfig   `toml:"watch"`
}

type GeneralConfig struct {
	Timezone   string `toml:"timezone"`
	BlockHours int    `toml:"block_hours"`
	MaxEntries int    `toml:"max_entries"`
}

type LogsConfig struct {
	// Roots lists log directories to scan. Empty means the
	// conventional default locations.
	Roots []string `toml:"roots"`
	// FileTimeoutSeconds bounds reading a single log file.
	FileTimeoutSeconds int `toml:"file_timeout_seconds"`
}

type PricingConfig struct {
	// Offline forces static-table-only operation.
	Offline        bool   `toml:"offline"`
	Mode           string `toml:"mode"` // auto, display, calculate
	RefreshMinutes int    `toml:"refresh_minutes"`
}

type WatchConfig struct {
	PollSeconds int `toml:"poll_seconds"`
}

func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Timezone:   "UTC",
			BlockHours: 5,
			MaxEntries: 500_000,
		},
		Logs: LogsConfig{
			FileTimeoutSeconds: 30,
		},
		Pricing: PricingConfig{
			Mode:           "auto",
			RefreshMinutes: 60,
		},
		Watch: WatchConfig{
			PollSeconds: 10,
		},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "claude-ledger", "config.toml")
}

func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // use defaults
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Location resolves the configured timezone. A malformed timezone is a
// configuration error, the one class of input that fails the run.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.General.Timezone, err)
	}
	return loc, nil
}

// BlockDuration returns the billing block window size.
func (c Config) BlockDuration() time.Duration {
	if c.General.BlockHours <= 0 {
		return 5 * time.Hour
	}
	return time.Duration(c.General.BlockHours) * time.Hour
}

// FileTimeout returns the per-file read deadline.
func (c Config) FileTimeout() time.Duration {
	if c.Logs.FileTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Logs.FileTimeoutSeconds) * time.Second
}
