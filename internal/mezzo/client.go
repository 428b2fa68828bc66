// Package mezzo talks to the zone-control API of a Mezzo audio matrix.
package mezzo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/mezzobridge/internal/logging"
	"github.com/muurk/mezzobridge/internal/version"
	"github.com/muurk/mezzobridge/internal/zone"
	"go.uber.org/zap"
)

const (
	// DefaultViewID is the web view that owns the zone controls
	DefaultViewID = "730665316"

	// DefaultClientID is the static Installation-Client-Id token
	DefaultClientID = "0add066f-0458-4a61-9f57-c3a82fbb63f9"

	// DefaultSetTimeout bounds gain pushes made in response to a gesture
	DefaultSetTimeout = 300 * time.Millisecond

	// DefaultReadTimeout bounds read-backs and sweeps
	DefaultReadTimeout = 2 * time.Second

	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 64 << 10
)

// Link is the connectivity view the client needs from the link manager.
type Link interface {
	// Connected reports whether the device is currently reachable.
	Connected() bool
	// Endpoint returns the active base URL, e.g. "http://192.168.101.30".
	Endpoint() string
	// NotifyFailure reports a failed device call.
	NotifyFailure(err error)
}

// Client issues zone gain reads and writes against the device.
type Client struct {
	// ViewID is the path segment identifying the zone-control view
	ViewID string

	// ClientID is sent as Installation-Client-Id on every request
	ClientID string

	// SetTimeout bounds SetGain calls
	SetTimeout time.Duration

	// ReadTimeout bounds GetGain calls
	ReadTimeout time.Duration

	// HTTPClient is the underlying HTTP client; deadlines come from the
	// request context
	HTTPClient *http.Client

	link Link
}

// NewClient creates a client that routes calls to link's active endpoint.
func NewClient(link Link) *Client {
	return &Client{
		ViewID:      DefaultViewID,
		ClientID:    DefaultClientID,
		SetTimeout:  DefaultSetTimeout,
		ReadTimeout: DefaultReadTimeout,
		HTTPClient:  &http.Client{},
		link:        link,
	}
}

type zoneUpdate struct {
	ID   uint32  `json:"Id"`
	Gain float64 `json:"Gain"`
}

type updateRequest struct {
	Zones []zoneUpdate `json:"Zones"`
}

type zoneResponse struct {
	Code   *int `json:"Code"`
	Result struct {
		Gain  json.RawMessage `json:"Gain"`
		Zones []struct {
			Gain json.RawMessage `json:"Gain"`
		} `json:"Zones"`
	} `json:"Result"`
}

// ZoneURL returns the zone-control URL for zoneNumber under base.
func (c *Client) ZoneURL(base string, zoneNumber uint32) string {
	return fmt.Sprintf("%s/iv/views/web/%s/zone-controls/%d", strings.TrimRight(base, "/"), c.ViewID, zoneNumber)
}

// SetGain pushes gain to z. It does not retry.
func (c *Client) SetGain(ctx context.Context, z zone.Binding, gain float64) error {
	if !c.link.Connected() {
		return ErrLinkDown
	}
	base := c.link.Endpoint()

	body, err := json.Marshal(updateRequest{Zones: []zoneUpdate{{ID: z.ZoneID, Gain: gain}}})
	if err != nil {
		return fmt.Errorf("failed to encode zone update: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.SetTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.ZoneURL(base, z.ZoneNumber), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, base)
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req, base); err != nil {
		return c.fail(err)
	}

	logging.Debug("Zone gain set",
		zap.Stringer("zone", z),
		zap.Float64("gain", gain),
	)
	return nil
}

// GetGain reads the current gain of z. It returns ErrLinkDown without a
// request when the link is down, and ErrNoGain when the response carries no
// gain.
func (c *Client) GetGain(ctx context.Context, z zone.Binding) (float64, error) {
	if !c.link.Connected() {
		return 0, ErrLinkDown
	}
	base := c.link.Endpoint()

	ctx, cancel := context.WithTimeout(ctx, c.ReadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ZoneURL(base, z.ZoneNumber), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, base)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	data, err := c.do(req, base)
	if err != nil {
		return 0, c.fail(err)
	}

	g, err := parseGain(data, base)
	if err != nil {
		return 0, c.fail(err)
	}
	return g, nil
}

func (c *Client) setHeaders(req *http.Request, base string) {
	req.Header.Set("Installation-Client-Id", c.ClientID)
	req.Header.Set("Origin", base)
	req.Header.Set("Referer", base+"/webapp/views/"+c.ViewID)
	req.Header.Set("User-Agent", version.UserAgent())
}

func (c *Client) do(req *http.Request, base string) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		devErr := ClassifyNetworkError(err, base)
		logging.LogHTTPExchange(req.Method, req.URL.String(), 0, time.Since(start), devErr)
		return nil, devErr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		devErr := ClassifyNetworkError(err, base)
		logging.LogHTTPExchange(req.Method, req.URL.String(), resp.StatusCode, time.Since(start), devErr)
		return nil, devErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		devErr := NewHTTPError(resp.StatusCode, base)
		logging.LogHTTPExchange(req.Method, req.URL.String(), resp.StatusCode, time.Since(start), devErr)
		return nil, devErr
	}

	logging.LogHTTPExchange(req.Method, req.URL.String(), resp.StatusCode, time.Since(start), nil)
	return data, nil
}

func (c *Client) fail(err error) error {
	c.link.NotifyFailure(err)
	return err
}

// parseGain extracts the gain from Result.Gain.Value, falling back to
// Result.Zones[0].Gain.
func parseGain(data []byte, base string) (float64, error) {
	var resp zoneResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, NewParseError("failed to parse zone response", err, base)
	}
	if resp.Code == nil {
		return 0, NewParseError("zone response has no Code", nil, base)
	}
	if *resp.Code != 0 {
		return 0, NewRejectedError(*resp.Code, base)
	}

	if len(resp.Result.Gain) > 0 {
		var g struct {
			Value json.RawMessage `json:"Value"`
		}
		if err := json.Unmarshal(resp.Result.Gain, &g); err == nil {
			if v, ok := decodeFloat(g.Value); ok {
				return v, nil
			}
		}
	}

	if len(resp.Result.Zones) > 0 {
		if v, ok := decodeFloat(resp.Result.Zones[0].Gain); ok {
			return v, nil
		}
	}

	return 0, NewParseError("zone response carries no gain", ErrNoGain, base)
}

// decodeFloat reports false for absent, null and non-numeric values.
func decodeFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}
