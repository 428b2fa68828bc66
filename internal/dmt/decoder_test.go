package dmt

import (
	"bytes"
	"testing"
)

func TestDecoderFeed(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		wantFrames  int
		wantDropped uint64
		verify      func(t *testing.T, frames []Frame)
	}{
		{
			name:       "ReadValue too short for address and value",
			input:      []byte{0x5A, 0xA5, 0x04, 0x83, 0x10, 0x00, 0x01},
			wantFrames: 1,
			verify: func(t *testing.T, frames []Frame) {
				if frames[0].Command != CmdReadValue {
					t.Errorf("Command = %s, want ReadValue", frames[0].Command)
				}
				if frames[0].HasValue {
					t.Error("HasValue = true, want false for a 7-byte frame")
				}
			},
		},
		{
			name:       "header promises more bytes than supplied",
			input:      []byte{0x5A, 0xA5, 0x04, 0x83, 0x10, 0x00},
			wantFrames: 0,
		},
		{
			name:       "leading noise byte",
			input:      []byte{0x00, 0x5A, 0xA5, 0x05, 0x82, 0x11, 0x00, 0x01, 0x32},
			wantFrames: 1,
			verify: func(t *testing.T, frames []Frame) {
				if frames[0].Command != CmdWriteValue {
					t.Errorf("Command = %s, want WriteValue", frames[0].Command)
				}
			},
		},
		{
			name:       "ReadValue with address and value",
			input:      []byte{0x5A, 0xA5, 0x06, 0x83, 0x11, 0x00, 0x01, 0x32, 0x00},
			wantFrames: 1,
			verify: func(t *testing.T, frames []Frame) {
				f := frames[0]
				if !f.HasValue {
					t.Fatal("HasValue = false, want true")
				}
				if f.Address != 0x1100 {
					t.Errorf("Address = 0x%04X, want 0x1100", f.Address)
				}
				if f.Value != 0x0132 {
					t.Errorf("Value = 0x%04X, want 0x0132", f.Value)
				}
			},
		},
		{
			name: "oversized length then valid frame",
			input: append(
				[]byte{0x5A, 0xA5, 0xFF, 0x83, 0x11},
				0x5A, 0xA5, 0x05, 0x83, 0x11, 0x00, 0x01, 0x32,
			),
			wantFrames:  1,
			wantDropped: 1,
			verify: func(t *testing.T, frames []Frame) {
				if frames[0].Address != 0x1100 || frames[0].Value != 0x0132 {
					t.Errorf("frame = %s, want Addr=0x1100 Value=0x0132", frames[0])
				}
			},
		},
		{
			name:       "sync false start is not rescanned",
			input:      []byte{0x5A, 0x5A, 0xA5, 0x05, 0x82, 0x11, 0x00, 0x01, 0x32},
			wantFrames: 0,
		},
		{
			name:        "zero length frame is dropped",
			input:       []byte{0x5A, 0xA5, 0x00},
			wantFrames:  0,
			wantDropped: 1,
		},
		{
			name: "two back-to-back frames",
			input: []byte{
				0x5A, 0xA5, 0x05, 0x83, 0x11, 0x00, 0x01, 0x10,
				0x5A, 0xA5, 0x05, 0x83, 0x12, 0x00, 0x01, 0x20,
			},
			wantFrames: 2,
			verify: func(t *testing.T, frames []Frame) {
				if frames[1].Address != 0x1200 {
					t.Errorf("second Address = 0x%04X, want 0x1200", frames[1].Address)
				}
			},
		},
		{
			name:       "largest frame fits",
			input:      append([]byte{0x5A, 0xA5, MaxFrameSize - HeaderSize, 0x82}, make([]byte, MaxFrameSize-4)...),
			wantFrames: 1,
		},
		{
			name:        "one byte over the limit",
			input:       []byte{0x5A, 0xA5, MaxFrameSize - HeaderSize + 1},
			wantFrames:  0,
			wantDropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			frames := d.Feed(tt.input)
			if len(frames) != tt.wantFrames {
				t.Fatalf("Feed() returned %d frames, want %d", len(frames), tt.wantFrames)
			}
			if got := d.Stats().Dropped; got != tt.wantDropped {
				t.Errorf("Dropped = %d, want %d", got, tt.wantDropped)
			}
			if tt.verify != nil {
				tt.verify(t, frames)
			}
		})
	}
}

func TestDecoderChunking(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x00, 0xFF)
	stream = append(stream, EncodeWriteValue(0x1100, 0x0132)...)
	stream = append(stream, 0x5A, 0x00)
	stream = append(stream, 0x5A, 0xA5, 0x06, 0x83, 0x12, 0x00, 0x01, 0x01, 0x40)
	stream = append(stream, 0x5A, 0xA5, 0x05, 0x81, 0x26, 0x10, 0x18, 0x09)

	whole := NewDecoder().Feed(stream)
	if len(whole) != 3 {
		t.Fatalf("whole stream decoded %d frames, want 3", len(whole))
	}

	for _, size := range []int{1, 2, 3, 5, 7, 11} {
		d := NewDecoder()
		var got []Frame
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, d.Feed(stream[i:end])...)
		}
		if len(got) != len(whole) {
			t.Errorf("chunk size %d: %d frames, want %d", size, len(got), len(whole))
			continue
		}
		for i := range got {
			if !bytes.Equal(got[i].Raw, whole[i].Raw) {
				t.Errorf("chunk size %d frame %d = %x, want %x", size, i, got[i].Raw, whole[i].Raw)
			}
		}
	}
}

func TestDecoderState(t *testing.T) {
	d := NewDecoder()
	steps := []struct {
		in   byte
		want State
	}{
		{0x5A, StateSeeking},
		{0xA5, StateHeaderMatched},
		{0x05, StateLengthKnown},
		{0x83, StateLengthKnown},
		{0x11, StateLengthKnown},
		{0x00, StateLengthKnown},
		{0x01, StateLengthKnown},
		{0x32, StateSeeking},
	}
	for i, s := range steps {
		d.Feed([]byte{s.in})
		if got := d.State(); got != s.want {
			t.Errorf("after byte %d (0x%02X) state = %s, want %s", i, s.in, got, s.want)
		}
	}
	if d.Stats().Frames != 1 {
		t.Errorf("Frames = %d, want 1", d.Stats().Frames)
	}
}

func TestDecoderStateSync1Only(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{Sync1})
	if got := d.State(); got != StateSeeking {
		t.Errorf("after Sync1 alone state = %s, want %s", got, StateSeeking)
	}
	d.Feed([]byte{0x00})
	if got := d.State(); got != StateSeeking {
		t.Errorf("after false start state = %s, want %s", got, StateSeeking)
	}
	d.Feed([]byte{Sync1, Sync2})
	if got := d.State(); got != StateHeaderMatched {
		t.Errorf("after sync pair state = %s, want %s", got, StateHeaderMatched)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	frames := NewDecoder().Feed(EncodeWriteValue(0x1100, 0x0132))
	if len(frames) != 1 {
		t.Fatalf("decoded %d frames, want 1", len(frames))
	}
	// The encoder writes WriteValue; turning it into a report the display
	// would send exercises the same address/value offsets.
	raw := append([]byte(nil), frames[0].Raw...)
	raw[3] = byte(CmdReadValue)
	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if f.Address != 0x1100 || f.Value != 0x0132 {
		t.Errorf("got Addr=0x%04X Value=0x%04X, want 0x1100/0x0132", f.Address, f.Value)
	}
}
