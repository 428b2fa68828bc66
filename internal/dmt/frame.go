package dmt

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Frame constants
const (
	Sync1        = 0x5A
	Sync2        = 0xA5
	HeaderSize   = 3  // Sync1 + Sync2 + Length
	MaxFrameSize = 64 // Largest frame the decoder will buffer

	minCommandFrame = 4 // Header + command byte
	minValueFrame   = 8 // Header + command + 2-byte address + 2-byte value
	minClockFrame   = 5 // Header + command + at least one payload byte
)

// Command is the command byte at offset 3 of every frame.
type Command byte

// Command codes
const (
	CmdWriteRegister Command = 0x80 // Register write
	CmdReadClock     Command = 0x81 // RTC data from the display
	CmdWriteValue    Command = 0x82 // VP write, or an echo of one
	CmdReadValue     Command = 0x83 // VP data from the display
)

// String returns a human-readable command name
func (c Command) String() string {
	switch c {
	case CmdWriteRegister:
		return "WriteRegister"
	case CmdReadClock:
		return "ReadClock"
	case CmdWriteValue:
		return "WriteValue"
	case CmdReadValue:
		return "ReadValue"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", byte(c))
	}
}

// Frame is one complete, length-validated frame.
type Frame struct {
	Command Command
	// Address and Value are set only when HasValue is true, i.e. for a
	// ReadValue frame long enough to carry both.
	Address  uint16
	Value    uint16
	HasValue bool
	Raw      []byte // Complete frame bytes including header
}

// ParseFrame interprets a complete frame. raw must start with the sync bytes
// and be exactly Length+3 bytes long.
func ParseFrame(raw []byte) (Frame, error) {
	if len(raw) < minCommandFrame {
		return Frame{}, fmt.Errorf("frame too short: %d bytes (need %d)", len(raw), minCommandFrame)
	}
	if raw[0] != Sync1 || raw[1] != Sync2 {
		return Frame{}, fmt.Errorf("bad sync bytes: 0x%02X 0x%02X", raw[0], raw[1])
	}
	if want := int(raw[2]) + HeaderSize; want != len(raw) {
		return Frame{}, fmt.Errorf("length mismatch: header says %d bytes, got %d", want, len(raw))
	}

	f := Frame{
		Command: Command(raw[3]),
		Raw:     raw,
	}
	if f.Command == CmdReadValue && len(raw) >= minValueFrame {
		f.Address = binary.BigEndian.Uint16(raw[4:6])
		f.Value = binary.BigEndian.Uint16(raw[6:8])
		f.HasValue = true
	}
	return f, nil
}

// Payload returns the bytes after the command byte.
func (f Frame) Payload() []byte {
	if len(f.Raw) <= minCommandFrame {
		return nil
	}
	return f.Raw[minCommandFrame:]
}

// String returns a debug representation of the frame
func (f Frame) String() string {
	if f.HasValue {
		return fmt.Sprintf("Frame{Cmd=%s, Addr=0x%04X, Value=0x%04X}", f.Command, f.Address, f.Value)
	}
	return fmt.Sprintf("Frame{Cmd=%s, Len=%d, Raw=%s}", f.Command, len(f.Raw), hex.EncodeToString(f.Raw))
}
