package dmt

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// VP addresses of the status widgets on the bridge's display page.
const (
	VPLinkIcon    uint16 = 0x2000 // 0 = link down, 1 = link up
	VPBootLine    uint16 = 0x3100 // Boot progress text
	VPConnectLine uint16 = 0x3200 // "Connecting to ..." text
	VPStatusLine  uint16 = 0x3300 // Link status text
	VPErrorLine   uint16 = 0x3400 // Error text
)

// Text widths used when blanking the status widgets.
const (
	ConnectLineWidth = 40
	StatusLineWidth  = 40
	ErrorLineWidth   = 12
)

// Display writes frames to the panel. Writes are fire-and-forget: failures
// are logged and counted, never returned to callers in the control path.
type Display struct {
	w      io.Writer
	errors atomic.Uint64
}

// NewDisplay wraps the write side of the display link.
func NewDisplay(w io.Writer) *Display {
	return &Display{w: w}
}

// Send writes a pre-built frame.
func (d *Display) Send(frame []byte) error {
	logging.LogRawBytes("Display TX", frame)
	if _, err := d.w.Write(frame); err != nil {
		d.errors.Add(1)
		return fmt.Errorf("failed to write display frame: %w", err)
	}
	return nil
}

// WriteErrors returns the number of failed writes. Safe to call from any
// goroutine.
func (d *Display) WriteErrors() uint64 {
	return d.errors.Load()
}

func (d *Display) send(frame []byte) {
	if err := d.Send(frame); err != nil {
		logging.Warn("Display write failed", zap.Error(err))
	}
}

// WriteValue sets the VP at addr to value.
func (d *Display) WriteValue(addr, value uint16) {
	d.send(EncodeWriteValue(addr, value))
}

// RequestValue asks the display to report one word at addr.
func (d *Display) RequestValue(addr uint16) {
	d.send(EncodeReadValue(addr, 1))
}

// WriteText writes ASCII text at addr.
func (d *Display) WriteText(addr uint16, text string) {
	d.send(EncodeWriteText(addr, text))
}

// ClearText overwrites n characters at addr with spaces.
func (d *Display) ClearText(addr uint16, n int) {
	if n <= 0 {
		return
	}
	d.WriteText(addr, strings.Repeat(" ", n))
}

// WriteLine writes text padded with spaces to width, so a shorter message
// fully replaces a longer one. Text longer than width is cut.
func (d *Display) WriteLine(addr uint16, text string, width int) {
	if len(text) > width {
		text = text[:width]
	}
	d.WriteText(addr, text+strings.Repeat(" ", width-len(text)))
}

// SetLinkIcon switches the link indicator.
func (d *Display) SetLinkIcon(up bool) {
	var v uint16
	if up {
		v = 1
	}
	d.WriteValue(VPLinkIcon, v)
}

// ShowBoot writes the boot progress line.
func (d *Display) ShowBoot(message string) {
	d.WriteText(VPBootLine, message)
}

// ShowReady marks startup as complete.
func (d *Display) ShowReady() {
	d.WriteText(VPBootLine, "System Ready")
}

// ShowConnecting writes the connection progress line.
func (d *Display) ShowConnecting(message string) {
	d.WriteLine(VPConnectLine, message, ConnectLineWidth)
}

// ShowStatus writes the link status line.
func (d *Display) ShowStatus(message string) {
	d.WriteLine(VPStatusLine, message, StatusLineWidth)
}

// ShowError writes the error line.
func (d *Display) ShowError(message string) {
	d.WriteLine(VPErrorLine, message, ErrorLineWidth)
}

// ClearError blanks the error line.
func (d *Display) ClearError() {
	d.ClearText(VPErrorLine, ErrorLineWidth)
}
