package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muurk/mezzobridge/internal/mezzo"
	"github.com/muurk/mezzobridge/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setCall struct {
	zone zone.Binding
	gain float64
}

type mockController struct {
	SetGainFunc func(z zone.Binding, g float64) error
	GetGainFunc func(z zone.Binding) (float64, error)

	sets  []setCall
	reads []zone.Binding
}

func (m *mockController) SetGain(_ context.Context, z zone.Binding, g float64) error {
	m.sets = append(m.sets, setCall{z, g})
	if m.SetGainFunc != nil {
		return m.SetGainFunc(z, g)
	}
	return nil
}

func (m *mockController) GetGain(_ context.Context, z zone.Binding) (float64, error) {
	m.reads = append(m.reads, z)
	if m.GetGainFunc != nil {
		return m.GetGainFunc(z)
	}
	return 0, nil
}

type write struct {
	addr, value uint16
}

type mockSink struct {
	writes []write
}

func (m *mockSink) WriteValue(addr, value uint16) {
	m.writes = append(m.writes, write{addr, value})
}

type fixture struct {
	loop  *Loop
	ctrl  *mockController
	sink  *mockSink
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := zone.NewRegistry([]zone.Binding{
		{Address: 0x1100, ZoneID: 42, ZoneNumber: 5, Label: "Lobby"},
		{Address: 0x1200, ZoneID: 43, ZoneNumber: 6, Label: "Bar"},
	})
	require.NoError(t, err)

	f := &fixture{
		ctrl:  &mockController{},
		sink:  &mockSink{},
		clock: time.Unix(1000, 0),
	}
	f.loop = New(reg, f.ctrl, f.sink, Config{Delay: 2 * time.Second, SweepInterval: 12 * time.Second},
		WithClock(func() time.Time { return f.clock }))
	// Keep the sweep out of the way unless a test asks for it.
	f.loop.nextSweep = f.clock.Add(time.Hour)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
	f.loop.Tick(context.Background(), f.clock)
}

func TestGesturePushesGainAndArms(t *testing.T) {
	f := newFixture(t)

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)

	require.Len(t, f.ctrl.sets, 1)
	assert.Equal(t, uint32(5), f.ctrl.sets[0].zone.ZoneNumber)
	assert.InDelta(t, 0.032, f.ctrl.sets[0].gain, 0.001)

	p := f.loop.Pending()
	assert.True(t, p.Armed)
	assert.Equal(t, uint16(0x1100), p.Address)
	assert.Equal(t, f.clock.Add(2*time.Second), p.DueAt)
	assert.Equal(t, uint64(1), p.Epoch)
	assert.Equal(t, uint64(1), f.loop.Stats().Gestures)
}

func TestUnknownZone(t *testing.T) {
	f := newFixture(t)

	f.loop.HandleValue(context.Background(), 0x9999, 0x0132)
	f.advance(3 * time.Second)

	assert.Empty(t, f.ctrl.sets, "no device call for an unknown address")
	assert.Empty(t, f.ctrl.reads)
	assert.Empty(t, f.sink.writes, "no display write for an unknown address")
	assert.False(t, f.loop.Pending().Armed)
	assert.Equal(t, uint64(1), f.loop.Stats().UnknownZones)
	assert.Zero(t, f.loop.Stats().Gestures, "unknown addresses are not counted as gestures")
}

func TestReadBackAfterDelay(t *testing.T) {
	f := newFixture(t)
	f.ctrl.GetGainFunc = func(zone.Binding) (float64, error) { return 0.032, nil }

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)

	f.advance(1999 * time.Millisecond)
	assert.Empty(t, f.ctrl.reads, "read-back must wait for the delay")

	f.advance(time.Millisecond)
	require.Len(t, f.ctrl.reads, 1)
	assert.Equal(t, []write{{0x1100, 0x0132}}, f.sink.writes)
	assert.False(t, f.loop.Pending().Armed)

	f.advance(5 * time.Second)
	assert.Len(t, f.ctrl.reads, 1, "a completed read-back is not repeated")
}

func TestLastWriteWins(t *testing.T) {
	f := newFixture(t)
	f.ctrl.GetGainFunc = func(zone.Binding) (float64, error) { return 1, nil }

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)
	f.advance(time.Second)
	f.loop.HandleValue(context.Background(), 0x1200, 0x0164)

	f.advance(1500 * time.Millisecond)
	assert.Empty(t, f.ctrl.reads, "the first deadline was superseded")

	f.advance(time.Second)
	require.Len(t, f.ctrl.reads, 1)
	assert.Equal(t, uint16(0x1200), f.ctrl.reads[0].Address)
	assert.Equal(t, []write{{0x1200, 0x0164}}, f.sink.writes)
	assert.Equal(t, uint64(2), f.loop.Pending().Epoch)
}

func TestFailedReadBackIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.ctrl.GetGainFunc = func(zone.Binding) (float64, error) {
		return 0, &mezzo.DeviceError{Type: mezzo.ErrTypeTimeout}
	}

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)
	f.advance(2 * time.Second)
	f.advance(2 * time.Second)

	assert.Len(t, f.ctrl.reads, 1)
	assert.Empty(t, f.sink.writes)
	assert.Equal(t, uint64(1), f.loop.Stats().ReadFailures)
}

func TestSetFailureStillArms(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetGainFunc = func(zone.Binding, float64) error { return mezzo.NewHTTPError(500, "") }

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)

	assert.True(t, f.loop.Pending().Armed, "a dispatched write is reconciled even if it failed")
	assert.Equal(t, uint64(1), f.loop.Stats().SetFailures)
}

func TestLinkDownDoesNotArm(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetGainFunc = func(zone.Binding, float64) error { return mezzo.ErrLinkDown }

	f.loop.HandleValue(context.Background(), 0x1100, 0x0132)

	assert.False(t, f.loop.Pending().Armed)
	assert.Zero(t, f.loop.Stats().SetFailures)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	gains := map[uint32]float64{42: 0, 43: 0.032}
	f.ctrl.GetGainFunc = func(z zone.Binding) (float64, error) { return gains[z.ZoneID], nil }
	f.loop.nextSweep = f.clock

	f.advance(0)
	assert.Equal(t, []write{{0x1100, 0x0100}, {0x1200, 0x0132}}, f.sink.writes)

	f.advance(11 * time.Second)
	assert.Len(t, f.sink.writes, 2, "next sweep waits for the interval")

	f.advance(time.Second)
	assert.Len(t, f.sink.writes, 4)
	assert.Equal(t, uint64(2), f.loop.Stats().Sweeps)
}

func TestSweepSkipsFailedZonesAndWaitsForLink(t *testing.T) {
	f := newFixture(t)
	linkUp := false
	f.ctrl.GetGainFunc = func(z zone.Binding) (float64, error) {
		if !linkUp {
			return 0, mezzo.ErrLinkDown
		}
		if z.ZoneID == 42 {
			return 0, errors.New("boom")
		}
		return 1, nil
	}
	f.loop.nextSweep = f.clock

	f.advance(0)
	assert.Empty(t, f.sink.writes)
	assert.Zero(t, f.loop.Stats().Sweeps)

	linkUp = true
	f.advance(20 * time.Millisecond)
	assert.Equal(t, []write{{0x1200, 0x0164}}, f.sink.writes, "sweep runs as soon as the link is up")
	assert.Equal(t, uint64(1), f.loop.Stats().Sweeps)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	f.ctrl.GetGainFunc = func(zone.Binding) (float64, error) { return 0.032, nil }

	f.loop.HandleValue(context.Background(), 0x1100, 50)

	require.Len(t, f.ctrl.sets, 1)
	assert.Equal(t, uint32(5), f.ctrl.sets[0].zone.ZoneNumber)
	assert.InDelta(t, 0.032, f.ctrl.sets[0].gain, 0.001)

	f.advance(2 * time.Second)
	require.Len(t, f.sink.writes, 1)
	assert.Equal(t, uint16(0x1100), f.sink.writes[0].addr)
	assert.Equal(t, uint16(0x0100+50), f.sink.writes[0].value)
}
