package bridge

import (
	"fmt"

	"github.com/muurk/mezzobridge/internal/logging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type stopper interface {
	Stop()
}

type noopStopper struct{}

func (noopStopper) Stop() {}

type cronStopper struct {
	c *cron.Cron
}

func (s cronStopper) Stop() {
	<-s.c.Stop().Done()
}

// startHeartbeat logs stats on spec. An empty spec disables the heartbeat.
func startHeartbeat(spec string, stats func() Stats) (stopper, error) {
	if spec == "" {
		return noopStopper{}, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { logHeartbeat(stats()) }); err != nil {
		return nil, fmt.Errorf("invalid heartbeat schedule %q: %w", spec, err)
	}
	c.Start()
	return cronStopper{c: c}, nil
}

func logHeartbeat(s Stats) {
	logging.Info("Heartbeat",
		zap.Duration("uptime", s.Uptime),
		zap.Stringer("link", s.Link.Status),
		zap.String("endpoint", s.Link.Endpoint),
		zap.Uint64("frames_decoded", s.FramesDecoded),
		zap.Uint64("frames_dropped", s.FramesDropped),
		zap.Uint64("gestures", s.Loop.Gestures),
		zap.Uint64("set_failures", s.Loop.SetFailures),
		zap.Uint64("read_failures", s.Loop.ReadFailures),
		zap.Uint64("sweeps", s.Loop.Sweeps),
		zap.Uint64("display_errors", s.DisplayErrors),
	)
}
