package fixtured

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Point is a pixel position in normalized coordinates, with (0, 0) at the
// visual center and both axes in [-0.5, 0.5].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout maps pixel indices to normalized positions.
type Layout []Point

// NewLayout normalizes LED points into a Layout. Each axis is scaled
// independently so that the bounding box of the points spans [-0.5, 0.5].
// An axis with no extent maps to 0.
func NewLayout(points []image.Point) Layout {
	if len(points) == 0 {
		return nil
	}

	bounds := image.Rectangle{Min: points[0], Max: points[0]}
	for _, pt := range points[1:] {
		bounds.Min.X = min(bounds.Min.X, pt.X)
		bounds.Min.Y = min(bounds.Min.Y, pt.Y)
		bounds.Max.X = max(bounds.Max.X, pt.X)
		bounds.Max.Y = max(bounds.Max.Y, pt.Y)
	}

	layout := make(Layout, len(points))
	for i, pt := range points {
		layout[i] = Point{
			X: normAxis(pt.X, bounds.Min.X, bounds.Max.X),
			Y: normAxis(pt.Y, bounds.Min.Y, bounds.Max.Y),
		}
	}
	return layout
}

func normAxis(v, lo, hi int) float64 {
	if hi == lo {
		return 0
	}
	return float64(v-lo)/float64(hi-lo) - 0.5
}

// FixtureOpts are options for a fixture.
type FixtureOpts struct {
	// Variant is the fixture variant.
	Variant Variant
	// PixelCount is the number of pixels driven. If a Layout is given and
	// PixelCount is zero, the layout length is used.
	PixelCount int
	// Layout optionally gives every pixel a 2-D position. Without one, pixels
	// are addressed by index only.
	Layout Layout
}

// Fixture ties a channel buffer to the frame pipeline. It plays the part of
// the render host: one Prepare per frame, then one Colorize per pixel.
type Fixture struct {
	opts     FixtureOpts
	channels *ChannelBuffer
	preparer *Preparer
	snapshot []float64

	lastMu sync.Mutex
	last   FrameState
}

// NewFixture creates a fixture with its channel buffer set to the variant's
// defaults.
func NewFixture(opts FixtureOpts) (*Fixture, error) {
	if opts.PixelCount == 0 {
		opts.PixelCount = len(opts.Layout)
	}
	if opts.PixelCount <= 0 {
		return nil, errors.New("pixel count must be positive")
	}
	if opts.Layout != nil && len(opts.Layout) != opts.PixelCount {
		return nil, fmt.Errorf("layout has %d points for %d pixels", len(opts.Layout), opts.PixelCount)
	}

	slots := opts.Variant.SlotCount(opts.PixelCount)
	return &Fixture{
		opts:     opts,
		channels: NewChannelBuffer(slots, opts.Variant.Defaults),
		preparer: NewPreparer(opts.Variant),
		snapshot: make([]float64, slots),
	}, nil
}

// Variant returns the fixture's variant.
func (f *Fixture) Variant() Variant {
	return f.opts.Variant
}

// PixelCount returns the number of pixels.
func (f *Fixture) PixelCount() int {
	return f.opts.PixelCount
}

// Channels returns the channel buffer. The bridge writes to it.
func (f *Fixture) Channels() *ChannelBuffer {
	return f.channels
}

// Render prepares a frame and colorizes every pixel into dst, which must
// hold PixelCount colors. It is not safe to call Render concurrently.
func (f *Fixture) Render(dst []colorful.Color, elapsed time.Duration) error {
	if len(dst) != f.opts.PixelCount {
		return fmt.Errorf("invalid number of pixels: %d, expected %d", len(dst), f.opts.PixelCount)
	}

	f.snapshot = f.channels.Snapshot(f.snapshot)
	frame := f.preparer.Prepare(f.snapshot, elapsed)

	f.lastMu.Lock()
	f.last = *frame
	f.last.Pixels = nil
	f.lastMu.Unlock()

	v := f.opts.Variant
	for i := range dst {
		var p Pixel
		if f.opts.Layout != nil {
			pt := f.opts.Layout[i]
			p = SpatialPixel(i, pt.X, pt.Y)
		} else {
			p = LinearPixel(i, f.opts.PixelCount)
		}
		dst[i] = v.Colorize(p, frame)
	}

	return nil
}

// LastFrame returns a copy of the most recently rendered frame state, without
// per-pixel colors.
func (f *Fixture) LastFrame() FrameState {
	f.lastMu.Lock()
	defer f.lastMu.Unlock()

	return f.last
}
