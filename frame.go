package fixtured

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// TimeUnit is one unit of the strobe period scale. A period of 1 unit lasts
// 65.536 seconds.
const TimeUnit = 65536 * time.Millisecond

// Strobe period bounds, in TimeUnit. The shortest period flashes at about
// 10 Hz and the longest at about 1 Hz.
const (
	MinStrobePeriod = 0.0015
	MaxStrobePeriod = 0.015
)

// strobeDuty is the fraction of each period the strobe is lit.
const strobeDuty = 0.1

// FrameState is the decoded state of one frame. It is written by a Preparer
// once per frame and read by Colorize for every pixel of that frame.
type FrameState struct {
	// Color is the base color.
	Color colorful.Color
	// Intensity is the strobe brightness channel, normalized.
	Intensity float64
	// Rate is the strobe rate channel, normalized.
	Rate float64
	// Period is the strobe period. Zero holds the strobe on.
	Period time.Duration
	// Phase is the position within the current strobe period, in [0, 1).
	Phase float64
	// Brightness is the strobe brightness for this frame.
	Brightness float64
	// Pixels holds per-pixel colors for PerPixelColor variants.
	Pixels []colorful.Color
}

// Preparer decodes channel values into a FrameState once per frame. It owns
// the strobe phase, which carries over between frames.
type Preparer struct {
	variant Variant
	state   FrameState
}

// NewPreparer creates a Preparer for the given variant.
func NewPreparer(v Variant) *Preparer {
	return &Preparer{variant: v}
}

// Variant returns the variant the Preparer decodes.
func (p *Preparer) Variant() Variant {
	return p.variant
}

// Prepare decodes channels and advances the strobe by elapsed. The returned
// state is owned by the Preparer and stays valid until the next call.
func (p *Preparer) Prepare(channels []float64, elapsed time.Duration) *FrameState {
	s := &p.state

	switch p.variant.Color {
	case DirectColor:
		s.Color = colorful.Color{
			R: norm8(slot(channels, 0)),
			G: norm8(slot(channels, 1)),
			B: norm8(slot(channels, 2)),
		}
	case PackedColor:
		s.Color = packedColor(PackedFromFixed(slot(channels, 0)))
	case PerPixelColor:
		if cap(s.Pixels) < len(channels) {
			s.Pixels = make([]colorful.Color, len(channels))
		}
		s.Pixels = s.Pixels[:len(channels)]
		for i, v := range channels {
			s.Pixels[i] = packedColor(PackedFromFixed(v))
		}
		s.Color = colorful.Color{}
	}

	if !p.variant.Effect {
		s.Intensity, s.Rate, s.Period, s.Brightness = 0, 0, 0, 0
		return s
	}

	switch p.variant.Color {
	case PackedColor:
		fx := PackedFromFixed(slot(channels, 1))
		s.Intensity = float64(fx.Hi()) / 255
		s.Rate = float64(fx.Lo()) / 255
	default:
		s.Intensity = norm8(slot(channels, 3))
		s.Rate = norm8(slot(channels, 4))
	}

	s.Period = StrobePeriod(s.Rate)
	if s.Period == 0 {
		s.Brightness = s.Intensity
		return s
	}

	if elapsed > 0 {
		s.Phase = math.Mod(s.Phase+elapsed.Seconds()/s.Period.Seconds(), 1)
	}
	s.Brightness = s.Intensity * square(s.Phase, strobeDuty)
	return s
}

// StrobePeriod maps a normalized rate onto the strobe period. A rate of 0
// returns 0, meaning the strobe is held on. Higher rates give shorter
// periods.
func StrobePeriod(rate float64) time.Duration {
	rate = clamp01(rate)
	if rate == 0 {
		return 0
	}
	units := mix(MaxStrobePeriod, MinStrobePeriod, rate)
	return time.Duration(units * float64(TimeUnit))
}

func square(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return 0
}

func mix(a, b, t float64) float64 {
	return a + (b-a)*t
}

func packedColor(p Packed) colorful.Color {
	r, g, b := p.Bytes()
	return colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
}

// norm8 normalizes an 8-bit channel value, clamping out of range input.
func norm8(v float64) float64 {
	return clamp01(v / 255)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}

func slot(channels []float64, i int) float64 {
	if i < len(channels) {
		return channels[i]
	}
	return 0
}
