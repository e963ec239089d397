package fixtured

import (
	"image"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

func TestNewLayout(t *testing.T) {
	layout := NewLayout([]image.Point{
		{X: 10, Y: 100},
		{X: 20, Y: 150},
		{X: 30, Y: 200},
	})

	assertEq(t, Layout{
		{X: -0.5, Y: -0.5},
		{X: 0, Y: 0},
		{X: 0.5, Y: 0.5},
	}, layout, approx)

	flat := NewLayout([]image.Point{{X: 0, Y: 7}, {X: 4, Y: 7}})
	assertEq(t, Layout{{X: -0.5, Y: 0}, {X: 0.5, Y: 0}}, flat)

	assertEq(t, Layout(nil), NewLayout(nil))
}

func TestNewFixtureErrors(t *testing.T) {
	tests := []struct {
		name string
		opts FixtureOpts
	}{
		{"no pixels", FixtureOpts{Variant: RGB}},
		{"negative pixels", FixtureOpts{Variant: RGB, PixelCount: -1}},
		{"layout mismatch", FixtureOpts{Variant: RGB, PixelCount: 3, Layout: Layout{{}}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewFixture(test.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFixtureSlots(t *testing.T) {
	tests := []struct {
		variant Variant
		slots   int
	}{
		{RGB, 3},
		{Blinder, 5},
		{PackedBlinder, 2},
		{Receiver, 12},
	}

	for _, test := range tests {
		f, err := NewFixture(FixtureOpts{Variant: test.variant, PixelCount: 12})
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		assertEq(t, test.slots, f.Channels().Len())
	}
}

func TestFixtureRenderLinear(t *testing.T) {
	f, err := NewFixture(FixtureOpts{Variant: Blinder, PixelCount: 8})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if err := f.Channels().Store([]float64{0, 255, 0, 255, 0}); err != nil {
		t.Fatal("unexpected error:", err)
	}

	frame := make([]colorful.Color, 8)
	if err := f.Render(frame, time.Second); err != nil {
		t.Fatal("unexpected error:", err)
	}

	green := colorful.Color{G: 1}
	white := colorful.Color{R: 1, G: 1, B: 1}
	assertEq(t, []colorful.Color{
		green, green, green, green, white, green, green, green,
	}, frame)

	assertEq(t, 1.0, f.LastFrame().Brightness)

	if err := f.Render(make([]colorful.Color, 7), 0); err == nil {
		t.Error("expected error rendering into a short frame")
	}
}

func TestFixtureRenderSpatial(t *testing.T) {
	// A 2x5 grid; only the middle row falls in the band.
	var points []image.Point
	for y := 0; y < 5; y++ {
		for x := 0; x < 2; x++ {
			points = append(points, image.Point{X: x, Y: y})
		}
	}

	f, err := NewFixture(FixtureOpts{Variant: Blinder, Layout: NewLayout(points)})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, 10, f.PixelCount())

	if err := f.Channels().Store([]float64{0, 0, 255, 255, 0}); err != nil {
		t.Fatal("unexpected error:", err)
	}

	frame := make([]colorful.Color, 10)
	if err := f.Render(frame, 0); err != nil {
		t.Fatal("unexpected error:", err)
	}

	blue := colorful.Color{B: 1}
	white := colorful.Color{R: 1, G: 1, B: 1}
	assertEq(t, []colorful.Color{
		blue, blue,
		blue, blue,
		white, white,
		blue, blue,
		blue, blue,
	}, frame)
}
