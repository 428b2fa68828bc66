package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/mezzobridge/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
device:
  endpoints: ["192.168.101.30", "mezzo.local"]
  set_timeout: 250ms
display:
  port: ws://10.0.0.9:8080/tty
reconcile:
  sweep_interval: 15s
zones:
  - {address: 0x1100, zone_id: 42, zone_number: 5, label: "Lobby"}
  - {address: 0x1200, zone_id: 43, zone_number: 6, label: "Bar"}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"192.168.101.30", "mezzo.local"}, cfg.Device.Endpoints)
	assert.Equal(t, 250*time.Millisecond, cfg.Device.SetTimeout)
	assert.Equal(t, 2*time.Second, cfg.Device.ReadTimeout, "omitted fields keep their default")
	assert.Equal(t, "ws://10.0.0.9:8080/tty", cfg.Display.Port)
	assert.Equal(t, 115200, cfg.Display.Baud)
	assert.Equal(t, 15*time.Second, cfg.Reconcile.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.Reconcile.Delay)

	require.Len(t, cfg.Zones, 2)
	assert.Equal(t, zone.Binding{Address: 0x1100, ZoneID: 42, ZoneNumber: 5, Label: "Lobby"}, cfg.Zones[0])

	assert.NoError(t, cfg.Validate())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("device:\n  endpoint: 10.0.0.1\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Zones, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(cfg, map[string]string{
		"MEZZOBRIDGE_DEVICE":    "10.0.0.1,10.0.0.2",
		"MEZZOBRIDGE_PORT":      "/dev/ttyS1",
		"MEZZOBRIDGE_BAUD":      "9600",
		"MEZZOBRIDGE_CLIENT_ID": "token",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Device.Endpoints)
	assert.Equal(t, "/dev/ttyS1", cfg.Display.Port)
	assert.Equal(t, 9600, cfg.Display.Baud)
	assert.Equal(t, "token", cfg.Device.ClientID)

	err = ApplyEnv(Default(), map[string]string{"MEZZOBRIDGE_BAUD": "fast"})
	assert.Error(t, err)

	untouched := Default()
	require.NoError(t, ApplyEnv(untouched, map[string]string{}))
	assert.Equal(t, Default(), untouched)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Device.Endpoints = []string{"10.0.0.1"}
		cfg.Zones = []zone.Binding{{Address: 0x1100, ZoneID: 42, ZoneNumber: 5}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no endpoints", func(c *Config) { c.Device.Endpoints = nil }, "device.endpoints"},
		{"no port", func(c *Config) { c.Display.Port = "" }, "display.port"},
		{"no zones", func(c *Config) { c.Zones = nil }, "zones"},
		{"duplicate address", func(c *Config) {
			c.Zones = append(c.Zones, zone.Binding{Address: 0x1100, ZoneID: 43, ZoneNumber: 6})
		}, "already used"},
		{"zero zone number", func(c *Config) { c.Zones[0].ZoneNumber = 0 }, "zone_number"},
		{"zero delay", func(c *Config) { c.Reconcile.Delay = 0 }, "reconcile.delay"},
		{"negative timeout", func(c *Config) { c.Device.SetTimeout = -time.Second }, "device.set_timeout"},
		{"retry max below initial", func(c *Config) { c.Link.RetryMax = time.Second }, "link.retry_max"},
		{"bad heartbeat", func(c *Config) { c.Heartbeat = "every minute" }, "heartbeat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvePath(t *testing.T) {
	got, err := ResolvePath("/etc/mezzobridge.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/mezzobridge.yaml", got)

	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		got, err = ResolvePath("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/tmp/xdg", "mezzobridge", "config.yaml"), got)
	}

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.True(t, strings.Contains(dir, "mezzobridge"), "GetConfigDir() = %s", dir)
}
