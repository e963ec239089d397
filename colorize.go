package fixtured

import "github.com/lucasb-eyer/go-colorful"

// Colorize returns the color of pixel p for frame f. Pixels inside the
// variant's effect band render the strobe as a gray level; all others render
// the base color.
func (v Variant) Colorize(p Pixel, f *FrameState) colorful.Color {
	if v.Effect && v.region().Contains(p) {
		return colorful.Hsv(0, 0, f.Brightness)
	}

	if v.Color == PerPixelColor {
		if p.Index < 0 || p.Index >= len(f.Pixels) {
			return colorful.Color{}
		}
		return f.Pixels[p.Index]
	}

	return f.Color
}
