package link

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/muurk/mezzobridge/internal/mezzo"
	"github.com/muurk/mezzobridge/internal/version"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = time.Second

// HTTPProber probes an endpoint with GET <endpoint>/. Any HTTP response
// counts as reachable; only transport failures fail the probe.
type HTTPProber struct {
	Client  *http.Client
	Timeout time.Duration
}

// Probe implements Prober.
func (p HTTPProber) Probe(ctx context.Context, endpoint string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return mezzo.ClassifyNetworkError(err, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return nil
}
