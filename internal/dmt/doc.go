// Package dmt implements the serial protocol spoken by DMT touch displays.
//
// This package handles decoding of the byte stream coming from the display,
// dispatch of decoded frames to the rest of the bridge, and construction of
// the frames the bridge writes back (VP values, text, registers).
//
// # Protocol Overview
//
// Every frame has this structure:
//   - Sync bytes: 0x5A 0xA5
//   - Length: 1 byte, counting everything after itself
//   - Command: 1 byte
//   - Body: Length-1 bytes
//
// A frame is therefore Length+3 bytes long. The display never sends more than
// MaxFrameSize bytes in one frame.
//
// # Commands
//
//   - 0x80 WriteRegister: register write (host to display)
//   - 0x81 ReadClock: RTC data (display to host)
//   - 0x82 WriteValue: VP write (host to display, echoed back by some panels)
//   - 0x83 ReadValue: VP data (display to host, sent when a control changes)
//
// A ReadValue frame of at least 8 bytes carries a big-endian VP address at
// bytes 4-5 and a big-endian value at bytes 6-7.
//
// # Usage Example - Decoding
//
//	dec := dmt.NewDecoder()
//	disp := dmt.NewDispatcher(loop, dmt.LogClockSink{})
//
//	n, _ := port.Read(buf)
//	for _, f := range dec.Feed(buf[:n]) {
//	    disp.Dispatch(ctx, f)
//	}
//
// # Usage Example - Construction
//
//	frame := dmt.EncodeWriteValue(0x1100, 0x0132)
//	_, err := port.Write(frame)
//
// # Resynchronisation
//
// The decoder resets on any sync mismatch and discards the offending byte;
// it does not rescan that byte as a new header candidate. A length byte that
// implies a frame larger than MaxFrameSize drops the partial frame.
//
// # Thread Safety
//
// Decoder and Display hold mutable state and must be driven from a single
// goroutine. The Encode functions are stateless and safe for concurrent use.
package dmt
