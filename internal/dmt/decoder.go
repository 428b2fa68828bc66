package dmt

import (
	"fmt"

	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// State is the decoder's position within a frame.
type State int

// Decoder states
const (
	StateSeeking       State = iota // Looking for the Sync1 Sync2 pair
	StateHeaderMatched              // Both sync bytes matched, waiting for the length
	StateLengthKnown                // Length byte read, accumulating body
)

func (s State) String() string {
	switch s {
	case StateSeeking:
		return "Seeking"
	case StateHeaderMatched:
		return "HeaderMatched"
	case StateLengthKnown:
		return "LengthKnown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DecoderStats counts decoder outcomes since construction.
type DecoderStats struct {
	Frames  uint64 // Complete frames emitted
	Dropped uint64 // Partial or unusable frames discarded
}

// Decoder turns an unframed byte stream into frames. It accepts input in
// chunks of any size, including one byte at a time.
type Decoder struct {
	buf   [MaxFrameSize]byte
	n     int // bytes accumulated
	want  int // total frame size once the length byte is known
	stats DecoderStats
}

// NewDecoder returns a decoder in the Seeking state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// State reports where the decoder is within the current frame.
func (d *Decoder) State() State {
	switch {
	case d.n < 2:
		return StateSeeking
	case d.n == 2:
		return StateHeaderMatched
	default:
		return StateLengthKnown
	}
}

// Stats returns the decoder counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.n = 0
	d.want = 0
}

// Feed consumes p and returns every frame completed by it. It never blocks
// and never returns a partial frame.
func (d *Decoder) Feed(p []byte) []Frame {
	var frames []Frame
	for _, b := range p {
		if f, ok := d.step(b); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func (d *Decoder) step(b byte) (Frame, bool) {
	switch {
	case d.n == 0:
		if b == Sync1 {
			d.buf[0] = b
			d.n = 1
		}
		return Frame{}, false

	case d.n == 1:
		if b != Sync2 {
			// The mismatched byte is discarded, not rescanned as Sync1.
			d.Reset()
			return Frame{}, false
		}
		d.buf[1] = b
		d.n = 2
		return Frame{}, false

	case d.n == 2:
		d.buf[2] = b
		d.n = 3
		d.want = int(b) + HeaderSize
		if d.want > MaxFrameSize {
			logging.Debug("Display frame length exceeds buffer, resyncing",
				zap.Int("frame_size", d.want),
				zap.Int("max_frame_size", MaxFrameSize),
			)
			d.drop()
			return Frame{}, false
		}
	default:
		if d.n >= MaxFrameSize {
			d.drop()
			return Frame{}, false
		}
		d.buf[d.n] = b
		d.n++
	}

	if d.n < d.want {
		return Frame{}, false
	}
	return d.complete()
}

func (d *Decoder) complete() (Frame, bool) {
	raw := make([]byte, d.n)
	copy(raw, d.buf[:d.n])
	d.Reset()

	f, err := ParseFrame(raw)
	if err != nil {
		logging.Debug("Discarding display frame", zap.Error(err))
		d.stats.Dropped++
		return Frame{}, false
	}
	d.stats.Frames++
	logging.LogFrame(f.Command.String(), raw)
	return f, true
}

func (d *Decoder) drop() {
	d.stats.Dropped++
	d.Reset()
}
