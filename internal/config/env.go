package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type overrides struct {
	Endpoints []string `env:"MEZZOBRIDGE_DEVICE" envSeparator:","`
	Port      string   `env:"MEZZOBRIDGE_PORT"`
	Baud      int      `env:"MEZZOBRIDGE_BAUD"`
	ClientID  string   `env:"MEZZOBRIDGE_CLIENT_ID"`
}

// ApplyEnv overrides cfg from the environment. A nil environ reads the
// process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	var o overrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if len(o.Endpoints) > 0 {
		cfg.Device.Endpoints = o.Endpoints
	}
	if o.Port != "" {
		cfg.Display.Port = o.Port
	}
	if o.Baud != 0 {
		cfg.Display.Baud = o.Baud
	}
	if o.ClientID != "" {
		cfg.Device.ClientID = o.ClientID
	}
	return nil
}
