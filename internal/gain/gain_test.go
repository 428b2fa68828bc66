package gain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const gainTolerance = 0.001

func TestRawToGain(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want float64
	}{
		{"zero percent", 0x100, 0},
		{"fifty percent", 0x132, 0.032},
		{"hundred percent", 0x164, 1},
		{"low byte only", 0x0032, 0.032},
		{"ten percent", 0x10A, 0.002},
		{"above scale saturates", 0x1FF, 1},
		{"next page saturates", 0x0200, 1},
		{"high page with small low byte saturates", 0x0232, 1},
		{"high byte encoding saturates", 0xFF00, 1},
		{"just above maximum", RawMax + 1, 1},
		{"bare zero", 0x0000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RawToGain(tt.raw)
			assert.InDelta(t, tt.want, got, gainTolerance, "RawToGain(0x%04X)", tt.raw)
		})
	}
}

func TestGainToRaw(t *testing.T) {
	tests := []struct {
		name string
		gain float64
		want uint16
	}{
		{"silence", 0, RawMin},
		{"negative saturates", -0.5, RawMin},
		{"NaN saturates", math.NaN(), RawMin},
		{"unity", 1, RawMax},
		{"above unity saturates", 3.2, RawMax},
		{"fifty percent", 0.032, 0x132},
		{"below curve floor", 0.0005, RawMin},
		{"rounds to nearest", 0.0316, 0x132},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GainToRaw(tt.gain); got != tt.want {
				t.Errorf("GainToRaw(%v) = 0x%04X, want 0x%04X", tt.gain, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, raw := range []uint16{256, 306, 356} {
		got := GainToRaw(RawToGain(raw))
		diff := int(got) - int(raw)
		if diff < -1 || diff > 1 {
			t.Errorf("GainToRaw(RawToGain(%d)) = %d, want within 1", raw, got)
		}
	}

	for _, g := range []float64{0, 0.032, 1} {
		got := RawToGain(GainToRaw(g))
		assert.InDelta(t, g, got, gainTolerance, "RawToGain(GainToRaw(%v))", g)
	}
}

func TestRoundTripEveryStep(t *testing.T) {
	for raw := RawMin; raw <= RawMax; raw++ {
		if got := GainToRaw(RawToGain(raw)); got != raw {
			t.Errorf("GainToRaw(RawToGain(0x%04X)) = 0x%04X", raw, got)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		percent float64
		raw     uint16
		gain    float64
	}{
		{0, 256, 0},
		{50, 306, 0.0316},
		{100, 356, 1},
		{-20, 256, 0},
		{250, 356, 1},
	}

	for _, tt := range tests {
		if got := PercentToRaw(tt.percent); got != tt.raw {
			t.Errorf("PercentToRaw(%v) = %d, want %d", tt.percent, got, tt.raw)
		}
		assert.InDelta(t, tt.gain, PercentToGain(tt.percent), gainTolerance, "PercentToGain(%v)", tt.percent)
	}

	assert.Equal(t, 0.0, RawToPercent(12))
	assert.Equal(t, 50.0, RawToPercent(306))
	assert.Equal(t, 100.0, RawToPercent(0x1FF))
	assert.Equal(t, 50.0, GainToPercent(0.032))
}
