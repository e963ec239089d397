package fixtured

import (
	"math"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

func TestCenterBandLinear(t *testing.T) {
	band := CenterBand{HalfWidth: 0.125}

	for count := 2; count <= 300; count++ {
		if count%2 == 0 && !band.Contains(LinearPixel(count/2, count)) {
			t.Fatalf("count %d: center pixel not in band", count)
		}
		for i := 0; i < count; i++ {
			pos := float64(i) / float64(count)
			if math.Abs(pos-0.5) >= 0.125 && band.Contains(LinearPixel(i, count)) {
				t.Fatalf("count %d: pixel %d at %v is in band", count, i, pos)
			}
		}
	}

	if band.Contains(LinearPixel(0, 0)) {
		t.Error("pixel of an empty strip is in band")
	}
}

func TestCenterBandSpatial(t *testing.T) {
	band := CenterBand{HalfWidth: 0.125}

	tests := []struct {
		x, y   float64
		inside bool
	}{
		{0, 0, true},
		{-0.5, 0, true},
		{0.5, 0.124, true},
		{0, -0.124, true},
		{0, 0.125, false},
		{0, -0.125, false},
		{0.1, 0.5, false},
		{0, -0.5, false},
	}

	for _, test := range tests {
		if got := band.Contains(SpatialPixel(0, test.x, test.y)); got != test.inside {
			t.Errorf("(%v, %v): got %v, want %v", test.x, test.y, got, test.inside)
		}
	}
}

func TestColorizeIsPure(t *testing.T) {
	frame := NewPreparer(Blinder).Prepare([]float64{10, 20, 30, 200, 0}, 0)
	before := *frame

	for _, p := range []Pixel{
		LinearPixel(0, 10),
		LinearPixel(5, 10),
		SpatialPixel(3, 0.2, 0),
		SpatialPixel(3, 0.2, 0.4),
	} {
		first := Blinder.Colorize(p, frame)
		for i := 0; i < 3; i++ {
			assertEq(t, first, Blinder.Colorize(p, frame))
		}
	}

	assertEq(t, before, *frame)
}

func TestColorizeScenarios(t *testing.T) {
	const pixels = 16

	type sample struct {
		elapsed time.Duration
		base    colorful.Color
		effect  colorful.Color
	}

	tests := []struct {
		name     string
		variant  Variant
		channels []float64
		samples  func(period time.Duration) []sample
	}{
		{
			name:     "held strobe over red",
			variant:  Blinder,
			channels: []float64{191, 0, 0, 127, 0},
			samples: func(time.Duration) []sample {
				base := colorful.Color{R: 191.0 / 255}
				gray := colorful.Color{R: 127.0 / 255, G: 127.0 / 255, B: 127.0 / 255}
				return []sample{
					{0, base, gray},
					{time.Millisecond, base, gray},
					{time.Minute, base, gray},
				}
			},
		},
		{
			name:     "fast strobe over black",
			variant:  Blinder,
			channels: []float64{0, 0, 0, 255, 255},
			samples: func(period time.Duration) []sample {
				white := colorful.Color{R: 1, G: 1, B: 1}
				return []sample{
					{0, colorful.Color{}, white},
					{period / 2, colorful.Color{}, colorful.Color{}},
					{period * 11 / 20, colorful.Color{}, white},
				}
			},
		},
		{
			name:     "pass-through",
			variant:  RGB,
			channels: []float64{128, 64, 32},
			samples: func(time.Duration) []sample {
				c := colorful.Color{R: 128.0 / 255, G: 64.0 / 255, B: 32.0 / 255}
				return []sample{
					{0, c, c},
					{time.Second, c, c},
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := NewPreparer(test.variant)
			period := StrobePeriod(norm8(slot(test.channels, 4)))

			for i, s := range test.samples(period) {
				frame := p.Prepare(test.channels, s.elapsed)

				for index := 0; index < pixels; index++ {
					want := s.base
					if math.Abs(float64(index)/pixels-0.5) < 0.125 {
						want = s.effect
					}
					got := test.variant.Colorize(LinearPixel(index, pixels), frame)
					if !approxColor(got, want) {
						t.Errorf("sample %d pixel %d: got %v, want %v", i, index, got, want)
					}
				}

				for _, y := range []float64{-0.5, -0.2, 0, 0.1, 0.3} {
					want := s.base
					if math.Abs(y) < 0.125 {
						want = s.effect
					}
					got := test.variant.Colorize(SpatialPixel(0, 0, y), frame)
					if !approxColor(got, want) {
						t.Errorf("sample %d y %v: got %v, want %v", i, y, got, want)
					}
				}
			}
		})
	}
}

func TestColorizeReceiver(t *testing.T) {
	frame := NewPreparer(Receiver).Prepare([]float64{
		Pack(255, 0, 0).Fixed(),
		Pack(0, 0, 255).Fixed(),
	}, 0)

	assertEq(t, colorful.Color{R: 1}, Receiver.Colorize(LinearPixel(0, 2), frame))
	assertEq(t, colorful.Color{B: 1}, Receiver.Colorize(LinearPixel(1, 2), frame))
	assertEq(t, colorful.Color{}, Receiver.Colorize(LinearPixel(2, 3), frame))
}

func approxColor(a, b colorful.Color) bool {
	const eps = 1e-9
	return math.Abs(a.R-b.R) < eps && math.Abs(a.G-b.G) < eps && math.Abs(a.B-b.B) < eps
}
