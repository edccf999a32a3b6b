// Package config loads and stores the serialmon settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds every recognized setting.
//
// Example YAML:
//
// baud_rate: "115200"
// available_baud_rates: ["9600", "115200", "1000000"]
// port: /dev/ttyUSB0
// log_retention_days: 3
// exclude_filter: debug;trace
type Config struct {
	BaudRate           string   `yaml:"baud_rate"`
	AvailableBaudRates []string `yaml:"available_baud_rates"`
	Port               string   `yaml:"port"`
	LogRetentionDays   int      `yaml:"log_retention_days"`
	IncludeFilter      string   `yaml:"include_filter"`
	ExcludeFilter      string   `yaml:"exclude_filter"`
	HistoryFilter      string   `yaml:"history_filter"`
	ShowTimestamp      bool     `yaml:"show_timestamp"`
	SaveDir            string   `yaml:"save_dir"`
	SaveFormat         string   `yaml:"save_format"`
	Beep               bool     `yaml:"beep"`
	DebugLog           bool     `yaml:"debug_log"`

	path string
}

func Default() Config {
	return Config{
		BaudRate: "1000000",
		AvailableBaudRates: []string{
			"9600", "19200", "38400", "57600",
			"115200", "1000000", "2000000",
		},
		LogRetentionDays: 3,
		SaveDir:          ".",
		SaveFormat:       FormatText,
	}
}

// DefaultDir is ~/.config/serialmon.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "serialmon"), nil
}

// Load reads the settings file at path. A missing or unparsable file is
// replaced by the defaults; keys missing from the file are filled in and
// written back.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.path = path

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return cfg, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		log.Printf("config %s not found, writing defaults", path)
		return cfg, cfg.Save()
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Printf("config %s unreadable (%v), writing defaults", path, err)
		cfg = Default()
		cfg.path = path
		return cfg, cfg.Save()
	}
	cfg.normalize()

	// rewrite the file if it lacked keys
	updated, err := yaml.Marshal(&cfg)
	if err == nil && !bytes.Equal(bytes.TrimSpace(updated), bytes.TrimSpace(raw)) {
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	if len(c.AvailableBaudRates) == 0 {
		c.AvailableBaudRates = d.AvailableBaudRates
	}
	if c.LogRetentionDays <= 0 {
		c.LogRetentionDays = d.LogRetentionDays
	}
	if c.SaveDir == "" {
		c.SaveDir = d.SaveDir
	}
	if c.SaveFormat != FormatJSON {
		c.SaveFormat = FormatText
	}
}

// Detached returns a copy that is never written back.
func (c Config) Detached() Config {
	c.path = ""
	return c
}

// Path of the file this config was loaded from. Empty for in-memory configs.
func (c Config) Path() string {
	return c.path
}

// Dir holding the settings file.
func (c Config) Dir() string {
	return filepath.Dir(c.path)
}

// Save writes the config back to the file it was loaded from.
func (c Config) Save() error {
	if c.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(c.path, raw, 0o644)
}

// Set applies fn and saves. Save errors are logged, the change is kept.
func (c *Config) Set(fn func(*Config)) {
	fn(c)
	if err := c.Save(); err != nil {
		log.Printf("save config: %v", err)
	}
}
