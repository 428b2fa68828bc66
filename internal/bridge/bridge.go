// Package bridge wires the display link, the device client and the
// reconciliation loop together and runs them.
//
// Two goroutines do the work. The reader copies chunks from the display port
// into a channel; the control goroutine owns every piece of protocol and
// loop state and is the only one that decodes frames, ticks the link
// manager and ticks the reconciliation loop. Closing the port on shutdown
// unblocks the reader.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/muurk/mezzobridge/internal/config"
	"github.com/muurk/mezzobridge/internal/dmt"
	"github.com/muurk/mezzobridge/internal/link"
	"github.com/muurk/mezzobridge/internal/logging"
	"github.com/muurk/mezzobridge/internal/mezzo"
	"github.com/muurk/mezzobridge/internal/reconcile"
	"github.com/muurk/mezzobridge/internal/transport"
	"github.com/muurk/mezzobridge/internal/zone"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const readBufferSize = 256

// Stats is a point-in-time summary for the heartbeat.
type Stats struct {
	Uptime        time.Duration
	FramesDecoded uint64
	FramesDropped uint64
	DisplayErrors uint64
	Link          link.Snapshot
	Loop          reconcile.Stats
}

// Bridge connects one display to one device.
type Bridge struct {
	cfg     *config.Config
	port    io.ReadWriteCloser
	display *dmt.Display
	decoder *dmt.Decoder
	disp    *dmt.Dispatcher
	link    *link.Manager
	loop    *reconcile.Loop

	started  time.Time // Set once by New
	nextPoll time.Time
	frames   atomic.Uint64
	dropped  atomic.Uint64
}

// Option customises a Bridge.
type Option func(*options)

type options struct {
	prober     link.Prober
	httpClient *http.Client
	clock      dmt.ClockSink
}

// WithProber replaces the HTTP reachability probe.
func WithProber(p link.Prober) Option {
	return func(o *options) { o.prober = p }
}

// WithHTTPClient sets the client used for device calls and probes.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClockSink receives ReadClock payloads instead of the debug log.
func WithClockSink(s dmt.ClockSink) Option {
	return func(o *options) { o.clock = s }
}

// New builds a bridge over an open display port.
func New(cfg *config.Config, port io.ReadWriteCloser, opts ...Option) (*Bridge, error) {
	o := options{
		httpClient: &http.Client{},
		clock:      dmt.LogClockSink{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prober == nil {
		o.prober = link.HTTPProber{Client: o.httpClient, Timeout: cfg.Link.ProbeTimeout}
	}

	zones, err := zone.NewRegistry(cfg.Zones)
	if err != nil {
		return nil, fmt.Errorf("invalid zone table: %w", err)
	}

	display := dmt.NewDisplay(port)
	manager := link.NewManager(LinkConfig(cfg), o.prober, &statusRenderer{display: display})

	client := NewClient(cfg, manager)
	client.HTTPClient = o.httpClient

	loop := reconcile.New(zones, client, display, reconcile.Config{
		Delay:         cfg.Reconcile.Delay,
		SweepInterval: cfg.Reconcile.SweepInterval,
	})

	return &Bridge{
		cfg:     cfg,
		port:    port,
		display: display,
		decoder: dmt.NewDecoder(),
		disp:    dmt.NewDispatcher(loop, o.clock),
		link:    manager,
		loop:    loop,
		started: time.Now(),
	}, nil
}

// LinkConfig maps the configuration onto link manager settings.
func LinkConfig(cfg *config.Config) link.Config {
	return link.Config{
		Endpoints:           cfg.Device.Endpoints,
		AttemptsPerEndpoint: cfg.Link.AttemptsPerEndpoint,
		AttemptSpacing:      cfg.Link.AttemptSpacing,
		CheckInterval:       cfg.Link.CheckInterval,
		RetryInitial:        cfg.Link.RetryInitial,
		RetryMax:            cfg.Link.RetryMax,
		RetryJitter:         0.2,
	}
}

// NewClient builds a device client from the configuration.
func NewClient(cfg *config.Config, l mezzo.Link) *mezzo.Client {
	c := mezzo.NewClient(l)
	c.ViewID = cfg.Device.ViewID
	c.ClientID = cfg.Device.ClientID
	c.SetTimeout = cfg.Device.SetTimeout
	c.ReadTimeout = cfg.Device.ReadTimeout
	return c
}

// Run blocks until ctx is cancelled or the display link fails. The port is
// closed on return.
func (b *Bridge) Run(ctx context.Context) error {
	b.display.ShowBoot("Booting...")
	b.display.SetLinkIcon(false)

	hb, err := startHeartbeat(b.cfg.Heartbeat, b.Stats)
	if err != nil {
		_ = b.port.Close()
		return err
	}
	defer hb.Stop()

	logging.Info("Bridge started",
		zap.Strings("endpoints", b.cfg.Device.Endpoints),
		zap.Int("zones", len(b.cfg.Zones)),
		zap.Duration("tick", b.cfg.Reconcile.Tick),
	)

	chunks := make(chan []byte, 16)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.read(gctx, chunks) })
	g.Go(func() error { return b.control(gctx, chunks) })
	g.Go(func() error {
		<-gctx.Done()
		if err := b.port.Close(); err != nil {
			logging.Warn("Failed to close display port", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	logging.Info("Bridge stopped", zap.Duration("uptime", time.Since(b.started)))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *Bridge) read(ctx context.Context, chunks chan<- []byte) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := b.port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if transport.IsTimeout(err) {
			continue
		}
		return fmt.Errorf("display read failed: %w", err)
	}
}

func (b *Bridge) control(ctx context.Context, chunks <-chan []byte) error {
	ticker := time.NewTicker(b.cfg.Reconcile.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk := <-chunks:
			b.feed(ctx, chunk)
		case now := <-ticker.C:
			b.tick(ctx, now)
		}
	}
}

func (b *Bridge) feed(ctx context.Context, chunk []byte) {
	logging.LogRawBytes("Display RX", chunk)
	for _, f := range b.decoder.Feed(chunk) {
		b.disp.Dispatch(ctx, f)
	}
	st := b.decoder.Stats()
	b.frames.Store(st.Frames)
	b.dropped.Store(st.Dropped)
}

func (b *Bridge) tick(ctx context.Context, now time.Time) {
	b.link.Tick(ctx, now)
	b.loop.Tick(ctx, now)

	if b.cfg.Display.PollInterval > 0 && !now.Before(b.nextPoll) {
		b.display.RequestValue(b.cfg.Display.PollAddress)
		b.nextPoll = now.Add(b.cfg.Display.PollInterval)
	}
}

// Stats returns counters for the heartbeat. Safe to call from any goroutine.
func (b *Bridge) Stats() Stats {
	return Stats{
		Uptime:        time.Since(b.started),
		FramesDecoded: b.frames.Load(),
		FramesDropped: b.dropped.Load(),
		DisplayErrors: b.display.WriteErrors(),
		Link:          b.link.Snapshot(),
		Loop:          b.loop.Stats(),
	}
}
