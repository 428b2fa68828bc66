package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/mezzobridge/internal/zone"
	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration.
type Config struct {
	Device    Device         `yaml:"device"`
	Display   Display        `yaml:"display"`
	Reconcile Reconcile      `yaml:"reconcile"`
	Link      Link           `yaml:"link"`
	Zones     []zone.Binding `yaml:"zones"`
	// Heartbeat is a cron spec for the status log line.
	Heartbeat string `yaml:"heartbeat"`
}

// Device describes how to reach the audio matrix.
type Device struct {
	Endpoints   []string      `yaml:"endpoints"` // Priority order
	ViewID      string        `yaml:"view_id"`
	ClientID    string        `yaml:"client_id"`
	SetTimeout  time.Duration `yaml:"set_timeout"`  // Gesture pushes
	ReadTimeout time.Duration `yaml:"read_timeout"` // Read-backs and sweeps
}

// Display describes the link to the touch display.
type Display struct {
	Port        string        `yaml:"port"` // Serial device or ws:// URL
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// PollAddress is requested every PollInterval; 0 disables polling.
	PollAddress  uint16        `yaml:"poll_address"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Reconcile holds control loop timing.
type Reconcile struct {
	Delay         time.Duration `yaml:"delay"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Tick          time.Duration `yaml:"tick"`
}

// Link holds endpoint probing and retry pacing.
type Link struct {
	AttemptsPerEndpoint int           `yaml:"attempts_per_endpoint"`
	AttemptSpacing      time.Duration `yaml:"attempt_spacing"`
	CheckInterval       time.Duration `yaml:"check_interval"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout"`
	RetryInitial        time.Duration `yaml:"retry_initial"`
	RetryMax            time.Duration `yaml:"retry_max"`
}

// Default returns a configuration with every default applied. Endpoints and
// zones have no defaults.
func Default() *Config {
	return &Config{
		Device: Device{
			ViewID:      "730665316",
			ClientID:    "0add066f-0458-4a61-9f57-c3a82fbb63f9",
			SetTimeout:  300 * time.Millisecond,
			ReadTimeout: 2 * time.Second,
		},
		Display: Display{
			Port:        "/dev/ttyUSB0",
			Baud:        115200,
			ReadTimeout: 100 * time.Millisecond,
		},
		Reconcile: Reconcile{
			Delay:         2 * time.Second,
			SweepInterval: 12 * time.Second,
			Tick:          20 * time.Millisecond,
		},
		Link: Link{
			AttemptsPerEndpoint: 3,
			AttemptSpacing:      500 * time.Millisecond,
			CheckInterval:       5 * time.Second,
			ProbeTimeout:        time.Second,
			RetryInitial:        2 * time.Second,
			RetryMax:            30 * time.Second,
		},
		Heartbeat: "@every 60s",
	}
}

// Load reads the file at path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}
