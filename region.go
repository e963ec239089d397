package fixtured

import "math"

// Pixel describes the pixel being colorized. Linear pixels carry their index
// and the total pixel count; spatial pixels carry coordinates in
// [-0.5, 0.5]² with the origin at the visual center.
type Pixel struct {
	Index   int
	Count   int
	X, Y    float64
	Spatial bool
}

// LinearPixel returns a 1-D pixel.
func LinearPixel(index, count int) Pixel {
	return Pixel{Index: index, Count: count}
}

// SpatialPixel returns a 2-D pixel.
func SpatialPixel(index int, x, y float64) Pixel {
	return Pixel{Index: index, X: x, Y: y, Spatial: true}
}

// Region decides whether a pixel belongs to the effect band.
type Region interface {
	Contains(p Pixel) bool
}

// CenterBand is a band centered on the strip (1-D) or a horizontal band
// centered on the y axis (2-D). Pixels within HalfWidth of the center,
// exclusive, are inside.
type CenterBand struct {
	HalfWidth float64
}

// Contains implements Region.
func (b CenterBand) Contains(p Pixel) bool {
	if p.Spatial {
		return math.Abs(p.Y) < b.HalfWidth
	}
	if p.Count <= 0 {
		return false
	}
	pos := float64(p.Index) / float64(p.Count)
	return math.Abs(pos-0.5) < b.HalfWidth
}

// NoBand contains no pixels.
type NoBand struct{}

// Contains implements Region.
func (NoBand) Contains(Pixel) bool { return false }
