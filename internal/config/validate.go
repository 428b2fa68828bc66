package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate reports every problem with cfg at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Device.Endpoints) == 0 {
		errs = append(errs, errors.New("device.endpoints: at least one endpoint is required"))
	}
	for i, ep := range c.Device.Endpoints {
		if strings.TrimSpace(ep) == "" {
			errs = append(errs, fmt.Errorf("device.endpoints[%d]: empty endpoint", i))
		}
	}
	if c.Device.ViewID == "" {
		errs = append(errs, errors.New("device.view_id: required"))
	}
	if c.Display.Port == "" {
		errs = append(errs, errors.New("display.port: required"))
	}
	if c.Display.Baud <= 0 {
		errs = append(errs, fmt.Errorf("display.baud: must be positive, got %d", c.Display.Baud))
	}
	if c.Link.AttemptsPerEndpoint < 1 {
		errs = append(errs, fmt.Errorf("link.attempts_per_endpoint: must be at least 1, got %d", c.Link.AttemptsPerEndpoint))
	}
	if c.Display.PollInterval < 0 {
		errs = append(errs, errors.New("display.poll_interval: must not be negative"))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"device.set_timeout", c.Device.SetTimeout},
		{"device.read_timeout", c.Device.ReadTimeout},
		{"display.read_timeout", c.Display.ReadTimeout},
		{"reconcile.delay", c.Reconcile.Delay},
		{"reconcile.sweep_interval", c.Reconcile.SweepInterval},
		{"reconcile.tick", c.Reconcile.Tick},
		{"link.attempt_spacing", c.Link.AttemptSpacing},
		{"link.check_interval", c.Link.CheckInterval},
		{"link.probe_timeout", c.Link.ProbeTimeout},
		{"link.retry_initial", c.Link.RetryInitial},
		{"link.retry_max", c.Link.RetryMax},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", d.name, d.d))
		}
	}
	if c.Link.RetryMax < c.Link.RetryInitial {
		errs = append(errs, errors.New("link.retry_max: must not be less than link.retry_initial"))
	}

	if len(c.Zones) == 0 {
		errs = append(errs, errors.New("zones: at least one zone is required"))
	}
	seen := make(map[uint16]int, len(c.Zones))
	for i, z := range c.Zones {
		if prev, ok := seen[z.Address]; ok {
			errs = append(errs, fmt.Errorf("zones[%d]: address 0x%04X already used by zones[%d]", i, z.Address, prev))
		}
		seen[z.Address] = i
		if z.ZoneNumber == 0 {
			errs = append(errs, fmt.Errorf("zones[%d]: zone_number must be positive", i))
		}
	}

	if c.Heartbeat != "" {
		if _, err := cron.ParseStandard(c.Heartbeat); err != nil {
			errs = append(errs, fmt.Errorf("heartbeat: %w", err))
		}
	}

	return errors.Join(errs...)
}
