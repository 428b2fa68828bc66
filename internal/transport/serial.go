package transport

import (
	"fmt"
	"io"

	"github.com/goburrow/serial"
	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// serialConfig builds an 8N1 port configuration.
func serialConfig(address string, opts Options) *serial.Config {
	baud := opts.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &serial.Config{
		Address:  address,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  timeout,
	}
}

// OpenSerial opens a serial device. Reads return serial.ErrTimeout when no
// data arrives within the read timeout; see IsTimeout.
func OpenSerial(address string, opts Options) (io.ReadWriteCloser, error) {
	cfg := serialConfig(address, opts)
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", address, err)
	}
	logging.Info("Serial port opened",
		zap.String("address", cfg.Address),
		zap.Int("baud", cfg.BaudRate),
	)
	return port, nil
}
