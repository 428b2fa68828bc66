package dmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{
			name: "write value",
			got:  EncodeWriteValue(0x2000, 0x0001),
			want: []byte{0x5A, 0xA5, 0x05, 0x82, 0x20, 0x00, 0x00, 0x01},
		},
		{
			name: "read value",
			got:  EncodeReadValue(0x1000, 1),
			want: []byte{0x5A, 0xA5, 0x04, 0x83, 0x10, 0x00, 0x01},
		},
		{
			name: "write text",
			got:  EncodeWriteText(0x3100, "OK"),
			want: []byte{0x5A, 0xA5, 0x05, 0x82, 0x31, 0x00, 'O', 'K'},
		},
		{
			name: "write register",
			got:  EncodeWriteRegister(0x03, 0x00, 0x01),
			want: []byte{0x5A, 0xA5, 0x04, 0x80, 0x03, 0x00, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got % X, want % X", tt.got, tt.want)
			}
		})
	}
}

func TestEncodeWriteTextTruncates(t *testing.T) {
	frame := EncodeWriteText(0x3300, strings.Repeat("x", 100))
	if len(frame) != MaxFrameSize {
		t.Errorf("len = %d, want %d", len(frame), MaxFrameSize)
	}
	if frames := NewDecoder().Feed(frame); len(frames) != 1 {
		t.Errorf("truncated text frame decoded into %d frames, want 1", len(frames))
	}
}
