// Package reconcile ties display gestures to device gain updates and keeps
// the display in step with the gain the device actually applied.
//
// A gesture pushes the converted gain to its zone and arms a single pending
// read-back. A newer gesture for any address overwrites the slot, so only
// the most recent gesture is reconciled. Independently, a periodic sweep
// reads every zone and rewrites the display.
//
// Everything runs on the caller's goroutine. A read-back for an address is
// only issued from Tick, after the SetGain call that armed it has returned.
package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/muurk/mezzobridge/internal/gain"
	"github.com/muurk/mezzobridge/internal/logging"
	"github.com/muurk/mezzobridge/internal/mezzo"
	"github.com/muurk/mezzobridge/internal/zone"
	"go.uber.org/zap"
)

const (
	// DefaultDelay is how long after a gesture the device is read back.
	DefaultDelay = 2 * time.Second
	// DefaultSweepInterval is the period of the full-zone sweep.
	DefaultSweepInterval = 12 * time.Second
)

// Zones resolves display addresses to device zones.
type Zones interface {
	Lookup(addr uint16) (zone.Binding, bool)
	All() []zone.Binding
}

// Controller reads and writes zone gain on the device.
type Controller interface {
	SetGain(ctx context.Context, z zone.Binding, g float64) error
	GetGain(ctx context.Context, z zone.Binding) (float64, error)
}

// Sink accepts raw value writes for the display.
type Sink interface {
	WriteValue(addr, value uint16)
}

// Config holds loop timing.
type Config struct {
	Delay         time.Duration
	SweepInterval time.Duration
}

// Pending is the single reconciliation slot.
type Pending struct {
	Address uint16
	DueAt   time.Time
	Armed   bool
	// Epoch increments on every arm.
	Epoch uint64
}

// Stats are cumulative loop counters.
type Stats struct {
	Gestures     uint64 // Values for configured zones
	UnknownZones uint64 // Values for addresses with no zone
	SetFailures  uint64
	ReadBacks    uint64
	ReadFailures uint64
	Sweeps       uint64
}

// Loop is the reconciliation state machine.
type Loop struct {
	zones Zones
	ctrl  Controller
	sink  Sink
	cfg   Config
	now   func() time.Time

	pending   Pending
	nextSweep time.Time

	gestures     atomic.Uint64
	unknownZones atomic.Uint64
	setFailures  atomic.Uint64
	readBacks    atomic.Uint64
	readFailures atomic.Uint64
	sweeps       atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces time.Now for arming deadlines.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// New creates a loop. Zero durations in cfg take the defaults.
func New(zones Zones, ctrl Controller, sink Sink, cfg Config, opts ...Option) *Loop {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	l := &Loop{
		zones: zones,
		ctrl:  ctrl,
		sink:  sink,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HandleValue handles a volume value reported by the display.
func (l *Loop) HandleValue(ctx context.Context, addr, value uint16) {
	z, ok := l.zones.Lookup(addr)
	if !ok {
		l.unknownZones.Add(1)
		logging.Debug("No zone for display address", zap.Uint16("address", addr))
		return
	}
	l.gestures.Add(1)

	g := gain.RawToGain(value)
	err := l.ctrl.SetGain(ctx, z, g)
	switch {
	case errors.Is(err, mezzo.ErrLinkDown):
		logging.Debug("Link down, gesture dropped", zap.Stringer("zone", z))
		return
	case err != nil:
		l.setFailures.Add(1)
		logging.Warn("Failed to set zone gain",
			zap.Stringer("zone", z),
			zap.Float64("gain", g),
			zap.Error(err),
		)
	default:
		logging.Info("Zone gain requested",
			zap.String("zone", z.Label),
			zap.Uint16("raw", value),
			zap.Float64("gain", g),
		)
	}

	l.arm(addr)
}

func (l *Loop) arm(addr uint16) {
	if l.pending.Armed && l.pending.Address != addr {
		logging.Debug("Pending reconciliation superseded",
			zap.Uint16("old_address", l.pending.Address),
			zap.Uint16("new_address", addr),
		)
	}
	l.pending = Pending{
		Address: addr,
		DueAt:   l.now().Add(l.cfg.Delay),
		Armed:   true,
		Epoch:   l.pending.Epoch + 1,
	}
}

// Pending returns the reconciliation slot.
func (l *Loop) Pending() Pending {
	return l.pending
}

// Tick runs a due read-back and, when its interval has elapsed, the sweep.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	if l.pending.Armed && !now.Before(l.pending.DueAt) {
		p := l.pending
		l.pending.Armed = false
		l.readBack(ctx, p)
	}

	if !now.Before(l.nextSweep) {
		if l.Sweep(ctx) {
			l.nextSweep = now.Add(l.cfg.SweepInterval)
		}
	}
}

func (l *Loop) readBack(ctx context.Context, p Pending) {
	z, ok := l.zones.Lookup(p.Address)
	if !ok {
		return
	}
	l.readBacks.Add(1)

	g, err := l.ctrl.GetGain(ctx, z)
	if err != nil {
		l.readFailures.Add(1)
		logging.Debug("Read-back failed, leaving it to the sweep",
			zap.Stringer("zone", z),
			zap.Uint64("epoch", p.Epoch),
			zap.Error(err),
		)
		return
	}
	l.write(z, g)
}

// Sweep reads every zone and writes its gain to the display. It returns
// false without touching the display when the link is down.
func (l *Loop) Sweep(ctx context.Context) bool {
	for _, z := range l.zones.All() {
		g, err := l.ctrl.GetGain(ctx, z)
		if errors.Is(err, mezzo.ErrLinkDown) {
			return false
		}
		if err != nil {
			l.readFailures.Add(1)
			logging.Debug("Sweep read failed", zap.Stringer("zone", z), zap.Error(err))
			continue
		}
		l.write(z, g)
	}
	l.sweeps.Add(1)
	return true
}

func (l *Loop) write(z zone.Binding, g float64) {
	raw := gain.GainToRaw(g)
	logging.Debug("Display updated from device",
		zap.Stringer("zone", z),
		zap.Float64("gain", g),
		zap.Uint16("raw", raw),
	)
	l.sink.WriteValue(z.Address, raw)
}

// Stats returns the loop counters. Safe to call from any goroutine.
func (l *Loop) Stats() Stats {
	return Stats{
		Gestures:     l.gestures.Load(),
		UnknownZones: l.unknownZones.Load(),
		SetFailures:  l.setFailures.Load(),
		ReadBacks:    l.readBacks.Load(),
		ReadFailures: l.readFailures.Load(),
		Sweeps:       l.sweeps.Load(),
	}
}
