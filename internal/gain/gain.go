// Package gain converts between the three representations of a volume
// position: a 0-100 percentage, the display's raw VP value, and the audio
// device's linear gain in [0, 1].
//
// The display encodes a volume position as 0x100 + percent, so the documented
// raw domain is 0x100..0x164. Only the low byte carries the position; the
// 0x01 high byte is a page marker set by the display firmware.
//
// Gain follows a base-2 exponential curve so that each 10 % step on the
// control doubles the gain:
//
//	gain = 2^(v/10) / 1000     v in (0, 100)
//
// with v <= 0 mapped to silence and v >= 100 to unity gain. All functions are
// pure and saturate out-of-range input rather than returning errors.
package gain

import "math"

const (
	// RawMin is the raw value written for 0 % (silence).
	RawMin uint16 = 0x100
	// RawMax is the raw value written for 100 % (unity gain).
	RawMax uint16 = 0x164

	// PercentMax is the top of the control scale.
	PercentMax = 100.0

	// gainScale is the divisor applied to the exponential curve.
	gainScale = 1000.0
	// stepsPerDoubling is the number of control steps per doubling of gain.
	stepsPerDoubling = 10.0
)

// RawToGain converts a raw display value to device gain. Values above RawMax
// saturate to full gain; otherwise only the low byte is interpreted, as a
// position on the 0-100 scale.
func RawToGain(raw uint16) float64 {
	if raw > RawMax {
		return 1
	}
	v := float64(raw & 0xFF)
	if v <= 0 {
		return 0
	}
	if v >= PercentMax {
		return 1
	}
	return clamp(math.Pow(2, v/stepsPerDoubling)/gainScale, 0, 1)
}

// GainToRaw converts a device gain to the raw display value. The result is
// always within [RawMin, RawMax].
func GainToRaw(g float64) uint16 {
	if math.IsNaN(g) || g <= 0 {
		return RawMin
	}
	if g >= 1 {
		return RawMax
	}
	v := clamp(stepsPerDoubling*math.Log2(g*gainScale), 0, PercentMax)
	return RawMin + uint16(math.Round(v))
}

// PercentToRaw maps a 0-100 percentage linearly onto [RawMin, RawMax].
func PercentToRaw(p float64) uint16 {
	if math.IsNaN(p) {
		return RawMin
	}
	p = clamp(p, 0, PercentMax)
	return RawMin + uint16(math.Round(p))
}

// RawToPercent maps a raw value back to a 0-100 percentage. Values outside
// [RawMin, RawMax] saturate.
func RawToPercent(raw uint16) float64 {
	if raw <= RawMin {
		return 0
	}
	if raw >= RawMax {
		return PercentMax
	}
	return float64(raw - RawMin)
}

// PercentToGain is PercentToRaw followed by RawToGain.
func PercentToGain(p float64) float64 {
	return RawToGain(PercentToRaw(p))
}

// GainToPercent is GainToRaw followed by RawToPercent.
func GainToPercent(g float64) float64 {
	return RawToPercent(GainToRaw(g))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
