package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zubax/force-measurement-rig/pkg/serial"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, serial.DefaultBaud, cfg.Sensor.Baud)
	require.Equal(t, serial.DefaultBaud, cfg.Drive.Baud)
	require.False(t, cfg.Storage.Record)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[sensor]
device = "/dev/ttyUSB0"

[drive]
device = "tcp://localhost:9011"
baud = 115200

[telemetry]
broker_url = "mqtt://broker:1883/fmr/"
rig = "bench-1"

[storage]
path = "/var/lib/fmr/rig.db"
record = true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.Sensor.Device)
	// Unset keys keep their defaults.
	require.Equal(t, serial.DefaultBaud, cfg.Sensor.Baud)
	require.Equal(t, 115200, cfg.Drive.Baud)
	require.Equal(t, "mqtt://broker:1883/fmr/", cfg.Telemetry.BrokerURL)
	require.Equal(t, "bench-1", cfg.Telemetry.Rig)
	require.Equal(t, "/var/lib/fmr/rig.db", cfg.Storage.Path)
	require.True(t, cfg.Storage.Record)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sensor\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "x"), ExpandHome("~/x"))
	require.Equal(t, "/abs/x", ExpandHome("/abs/x"))
}
