// Package link tracks reachability of the audio device across a priority
// list of endpoints.
//
// The Manager is a state machine advanced only by Tick:
//
//	Disconnected -> Connecting(attempt, endpoint) -> Connected
//
// While Connecting it probes one endpoint per tick, moving to the next
// endpoint after AttemptsPerEndpoint failures. When every endpoint has failed
// it waits with exponential backoff before starting over from the first
// endpoint. While Connected it re-probes the active endpoint every
// CheckInterval, or on the next tick after NotifyFailure.
package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// Status is the coarse link state.
type Status int

// Link states
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// EventKind identifies a link transition reported to the Observer.
type EventKind int

// Event kinds
const (
	EventConnecting EventKind = iota // First probe of an endpoint
	EventConnected                   // Probe succeeded
	EventFailed                      // Endpoint exhausted its attempts
	EventAllFailed                   // Every endpoint failed, backing off
	EventLost                        // Health check of the active endpoint failed
)

func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "Connecting"
	case EventConnected:
		return "Connected"
	case EventFailed:
		return "Failed"
	case EventAllFailed:
		return "AllFailed"
	case EventLost:
		return "Lost"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes one link transition.
type Event struct {
	Kind     EventKind
	Endpoint string
	Err      error
	// RetryIn is set for EventAllFailed.
	RetryIn time.Duration
}

// Observer is told about link transitions. It runs on the ticking goroutine.
type Observer interface {
	LinkEvent(Event)
}

// Prober checks whether an endpoint is reachable.
type Prober interface {
	Probe(ctx context.Context, endpoint string) error
}

// Config controls endpoint order and pacing.
type Config struct {
	Endpoints           []string
	AttemptsPerEndpoint int
	AttemptSpacing      time.Duration
	CheckInterval       time.Duration
	RetryInitial        time.Duration
	RetryMax            time.Duration
	// RetryJitter is the backoff randomization factor in [0, 1).
	RetryJitter float64
}

// Snapshot is a point-in-time view of the manager.
type Snapshot struct {
	Status   Status
	Endpoint string
	Attempt  int
	Index    int
}

// Manager owns connectivity state for the device.
type Manager struct {
	cfg      Config
	prober   Prober
	observer Observer
	backoff  *backoff.ExponentialBackOff

	mu       sync.Mutex
	status   Status
	attempt  int
	index    int
	active   string
	nextAt   time.Time
	checkNow bool
}

// BaseURL turns a configured endpoint into a base URL. Bare hosts get an
// http:// scheme.
func BaseURL(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}

// NewManager creates a manager in the Disconnected state. The first Tick
// starts connecting. observer may be nil.
func NewManager(cfg Config, prober Prober, observer Observer) *Manager {
	if cfg.AttemptsPerEndpoint < 1 {
		cfg.AttemptsPerEndpoint = 1
	}
	endpoints := make([]string, len(cfg.Endpoints))
	for i, ep := range cfg.Endpoints {
		endpoints[i] = BaseURL(ep)
	}
	cfg.Endpoints = endpoints

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryInitial
	b.MaxInterval = cfg.RetryMax
	b.RandomizationFactor = cfg.RetryJitter
	b.MaxElapsedTime = 0
	b.Reset()

	return &Manager{
		cfg:      cfg,
		prober:   prober,
		observer: observer,
		backoff:  b,
		status:   StatusDisconnected,
	}
}

// Connected reports whether the active endpoint answered its last probe.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusConnected
}

// Endpoint returns the active base URL, or "" when not connected.
func (m *Manager) Endpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, Endpoint: m.active, Attempt: m.attempt, Index: m.index}
}

// NotifyFailure schedules a health check of the active endpoint on the next
// tick.
func (m *Manager) NotifyFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusConnected {
		return
	}
	logging.Debug("Device call failed, scheduling health check", zap.Error(err))
	m.checkNow = true
}

// Tick advances the state machine. It performs at most one probe.
func (m *Manager) Tick(ctx context.Context, now time.Time) {
	if len(m.cfg.Endpoints) == 0 {
		return
	}

	m.mu.Lock()
	status := m.status
	due := !now.Before(m.nextAt)
	if status == StatusConnected {
		due = due || m.checkNow
	}
	m.mu.Unlock()

	if !due {
		return
	}

	switch status {
	case StatusDisconnected:
		m.set(func() {
			m.status = StatusConnecting
			m.attempt = 0
			m.index = 0
		})
		m.tickConnecting(ctx, now)
	case StatusConnecting:
		m.tickConnecting(ctx, now)
	case StatusConnected:
		m.tickConnected(ctx, now)
	}
}

func (m *Manager) tickConnecting(ctx context.Context, now time.Time) {
	m.mu.Lock()
	endpoint := m.cfg.Endpoints[m.index]
	first := m.attempt == 0
	m.mu.Unlock()

	if first {
		logging.Info("Connecting to device", zap.String("endpoint", endpoint))
		m.emit(Event{Kind: EventConnecting, Endpoint: endpoint})
	}

	err := m.prober.Probe(ctx, endpoint)
	if err == nil {
		m.set(func() {
			m.status = StatusConnected
			m.active = endpoint
			m.attempt = 0
			m.checkNow = false
			m.nextAt = now.Add(m.cfg.CheckInterval)
			m.backoff.Reset()
		})
		logging.Info("Device link up", zap.String("endpoint", endpoint))
		m.emit(Event{Kind: EventConnected, Endpoint: endpoint})
		return
	}

	m.mu.Lock()
	m.attempt++
	if m.attempt < m.cfg.AttemptsPerEndpoint {
		m.nextAt = now.Add(m.cfg.AttemptSpacing)
		m.mu.Unlock()
		logging.Debug("Device probe failed",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", m.attempt),
			zap.Error(err),
		)
		return
	}

	m.attempt = 0
	m.index++
	if m.index < len(m.cfg.Endpoints) {
		m.nextAt = now
		m.mu.Unlock()
		logging.Warn("Device endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
		m.emit(Event{Kind: EventFailed, Endpoint: endpoint, Err: err})
		return
	}

	wait := m.backoff.NextBackOff()
	if wait == backoff.Stop {
		wait = m.cfg.RetryMax
	}
	m.index = 0
	m.status = StatusDisconnected
	m.nextAt = now.Add(wait)
	m.mu.Unlock()

	logging.Warn("Device endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
	m.emit(Event{Kind: EventFailed, Endpoint: endpoint, Err: err})
	logging.Warn("All device endpoints failed", zap.Duration("retry_in", wait))
	m.emit(Event{Kind: EventAllFailed, Err: err, RetryIn: wait})
}

func (m *Manager) tickConnected(ctx context.Context, now time.Time) {
	m.mu.Lock()
	endpoint := m.active
	m.checkNow = false
	m.mu.Unlock()

	err := m.prober.Probe(ctx, endpoint)
	if err == nil {
		m.set(func() { m.nextAt = now.Add(m.cfg.CheckInterval) })
		return
	}

	m.set(func() {
		m.status = StatusConnecting
		m.active = ""
		m.attempt = 0
		m.index = 0
		m.nextAt = now
	})
	logging.Warn("Device link lost", zap.String("endpoint", endpoint), zap.Error(err))
	m.emit(Event{Kind: EventLost, Endpoint: endpoint, Err: err})
}

// ErrAllFailed is returned by Connect when every endpoint failed.
var ErrAllFailed = errors.New("all endpoints failed")

// Connect ticks the manager with the wall clock until it is connected or
// every endpoint has failed once. It is meant for one-shot commands; the
// bridge drives Tick itself.
func (m *Manager) Connect(ctx context.Context, interval time.Duration) error {
	if len(m.cfg.Endpoints) == 0 {
		return ErrAllFailed
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.Tick(ctx, time.Now())
		switch m.Snapshot().Status {
		case StatusConnected:
			return nil
		case StatusDisconnected:
			return ErrAllFailed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) set(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *Manager) emit(ev Event) {
	if m.observer != nil {
		m.observer.LinkEvent(ev)
	}
}
