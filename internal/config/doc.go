// Package config loads the bridge configuration.
//
// The configuration is a YAML file naming the device endpoints, the display
// port, loop timing, and the zone table. Every omitted field takes its
// default, and a handful of environment variables override the file so the
// same file can be used across installations.
//
// # Configuration File Location
//
// When no path is given, the file is looked up in the platform configuration
// directory:
//   - Linux: $XDG_CONFIG_HOME/mezzobridge/config.yaml or $HOME/.config/mezzobridge/config.yaml
//   - macOS: $HOME/.config/mezzobridge/config.yaml
//   - Windows: %LOCALAPPDATA%\mezzobridge\config.yaml
//
// The bridge never writes this file.
//
// # Environment Overrides
//
//   - MEZZOBRIDGE_DEVICE: comma-separated endpoint list
//   - MEZZOBRIDGE_PORT: display port (serial device or ws:// URL)
//   - MEZZOBRIDGE_BAUD: serial baud rate
//   - MEZZOBRIDGE_CLIENT_ID: Installation-Client-Id token
//
// # Usage Example
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ApplyEnv(cfg, nil); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
