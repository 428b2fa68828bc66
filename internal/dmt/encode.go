package dmt

import "encoding/binary"

// maxTextLen is the longest text that fits in one WriteValue frame.
const maxTextLen = MaxFrameSize - 6

// EncodeWriteValue builds a VP write of one 16-bit word.
//
//	5A A5 05 82 AH AL DH DL
func EncodeWriteValue(addr, value uint16) []byte {
	frame := []byte{Sync1, Sync2, 0x05, byte(CmdWriteValue), 0, 0, 0, 0}
	binary.BigEndian.PutUint16(frame[4:6], addr)
	binary.BigEndian.PutUint16(frame[6:8], value)
	return frame
}

// EncodeReadValue asks the display to report words 16-bit words starting at
// addr. The display answers with a ReadValue frame.
//
//	5A A5 04 83 AH AL N
func EncodeReadValue(addr uint16, words byte) []byte {
	frame := []byte{Sync1, Sync2, 0x04, byte(CmdReadValue), 0, 0, words}
	binary.BigEndian.PutUint16(frame[4:6], addr)
	return frame
}

// EncodeWriteText builds a VP write of ASCII text. Text longer than fits in a
// single frame is truncated.
//
//	5A A5 (3+len) 82 AH AL text...
func EncodeWriteText(addr uint16, text string) []byte {
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	frame := make([]byte, 6, 6+len(text))
	frame[0] = Sync1
	frame[1] = Sync2
	frame[2] = byte(3 + len(text))
	frame[3] = byte(CmdWriteValue)
	binary.BigEndian.PutUint16(frame[4:6], addr)
	return append(frame, text...)
}

// EncodeWriteRegister builds a register write.
//
//	5A A5 04 80 REG HI LO
func EncodeWriteRegister(reg, hi, lo byte) []byte {
	return []byte{Sync1, Sync2, 0x04, byte(CmdWriteRegister), reg, hi, lo}
}
