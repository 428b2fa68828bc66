// Package transport opens the byte link to the display: a local serial port
// or a WebSocket tunnel to a networked serial adapter.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goburrow/serial"
)

// ErrUnsupportedScheme is returned for port URLs with an unknown scheme.
var ErrUnsupportedScheme = errors.New("unsupported port scheme")

const (
	// DefaultBaudRate matches the display's factory setting.
	DefaultBaudRate = 115200
	// DefaultReadTimeout is how long a serial read waits for data.
	DefaultReadTimeout = 100 * time.Millisecond
)

// Options configure Open.
type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// Open connects to port. ws:// and wss:// URLs dial a WebSocket tunnel;
// anything without a scheme is treated as a serial device path.
func Open(ctx context.Context, port string, opts Options) (io.ReadWriteCloser, error) {
	scheme := ""
	if i := strings.Index(port, "://"); i >= 0 {
		scheme = strings.ToLower(port[:i])
	}

	switch scheme {
	case "":
		return OpenSerial(port, opts)
	case "ws", "wss":
		return DialWebSocket(ctx, port)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// IsTimeout reports whether err is an idle read timeout rather than a
// failure of the link.
func IsTimeout(err error) bool {
	return errors.Is(err, serial.ErrTimeout)
}
