// Package logging provides structured logging for the bridge.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the bridge: plain leveled messages, hex dumps of
// display frames, and one-line summaries of device HTTP exchanges.
//
// # Log Levels
//
//   - Debug: frame hex dumps, every device request, reconciliation decisions
//   - Info: startup, link state changes, heartbeat
//   - Warn: failed device calls, dropped frames, unknown zones
//   - Error: transport failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to MEZZOBRIDGE_LOG_LEVEL; when that is also
// empty the logger is a no-op.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and
// SetLogger are not, and should run before any goroutines start.
package logging
