package dmt

import (
	"context"
	"encoding/hex"

	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// ValueHandler receives VP values reported by the display.
type ValueHandler interface {
	HandleValue(ctx context.Context, addr, value uint16)
}

// ClockSink receives the payload of ReadClock frames.
type ClockSink interface {
	HandleClock(payload []byte)
}

// LogClockSink logs clock payloads at debug level.
type LogClockSink struct{}

// HandleClock implements ClockSink.
func (LogClockSink) HandleClock(payload []byte) {
	logging.Debug("Display clock data", zap.String("hex", hex.EncodeToString(payload)))
}

// Dispatcher routes decoded frames by command.
//
// WriteValue and WriteRegister frames are echoes of the bridge's own writes
// and are never forwarded, so a display update can not trigger another gain
// push.
type Dispatcher struct {
	values ValueHandler
	clock  ClockSink
}

// NewDispatcher creates a dispatcher. clock may be nil.
func NewDispatcher(values ValueHandler, clock ClockSink) *Dispatcher {
	return &Dispatcher{values: values, clock: clock}
}

// Dispatch handles a single frame.
func (d *Dispatcher) Dispatch(ctx context.Context, f Frame) {
	switch f.Command {
	case CmdReadValue:
		if !f.HasValue {
			logging.Debug("ReadValue frame too short for address and value",
				zap.Int("length", len(f.Raw)),
			)
			return
		}
		d.values.HandleValue(ctx, f.Address, f.Value)

	case CmdReadClock:
		if len(f.Raw) < minClockFrame || d.clock == nil {
			return
		}
		d.clock.HandleClock(f.Payload())

	case CmdWriteValue, CmdWriteRegister:
		// echo

	default:
		logging.Debug("Ignoring unknown display command", zap.Stringer("command", f.Command))
	}
}
