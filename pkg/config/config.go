// Package config loads the daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Zubax/force-measurement-rig/pkg/serial"
)

// Config is the fmrd configuration file.
type Config struct {
	Sensor    SensorConfig    `toml:"sensor"`
	Drive     DriveConfig     `toml:"drive"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Storage   StorageConfig   `toml:"storage"`
}

// SensorConfig selects the digitizer board.
type SensorConfig struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

// DriveConfig selects the step drive board. Optional.
type DriveConfig struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

// TelemetryConfig configures the MQTT uplink. Optional.
type TelemetryConfig struct {
	BrokerURL string `toml:"broker_url"`
	Rig       string `toml:"rig"`
}

// StorageConfig configures on-disk state.
type StorageConfig struct {
	Path   string `toml:"path"`
	Record bool   `toml:"record"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Sensor:  SensorConfig{Baud: serial.DefaultBaud},
		Drive:   DriveConfig{Baud: serial.DefaultBaud},
		Storage: StorageConfig{Path: "~/.fmr/rig.db"},
	}
}

// Load reads a TOML config file over the defaults. An empty path tries
// the default location and silently keeps the defaults when absent.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = ExpandHome("~/.fmr/config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage.Path = ExpandHome(cfg.Storage.Path)
	return cfg, nil
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
