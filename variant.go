package fixtured

import (
	"fmt"
	"strings"
)

// ColorDecoding selects how a variant turns slots into its base color.
type ColorDecoding int

const (
	// DirectColor reads red, green and blue from slots 0 to 2.
	DirectColor ColorDecoding = iota
	// PackedColor reads a single packed RGB slot.
	PackedColor
	// PerPixelColor reads one packed RGB slot per pixel.
	PerPixelColor
)

// Variant describes a fixture variant. Variants differ only in data; they all
// run through the same Preparer and Colorize.
type Variant struct {
	// Name is the name used in flags and config files.
	Name string
	// Slots is the channel buffer length. Zero means one slot per pixel.
	Slots int
	// Export is the variable name the bridge exposes the buffer as.
	Export string
	// Color is how the base color is decoded.
	Color ColorDecoding
	// Effect is true if the variant carries strobe intensity and rate.
	Effect bool
	// Region selects the effect band.
	Region Region
	// Defaults are the startup channel values.
	Defaults []float64
}

// Built-in variants.
var (
	// RGB is the three channel pass-through fixture.
	RGB = Variant{
		Name:   "rgb",
		Slots:  3,
		Export: "channels",
		Color:  DirectColor,
		Region: NoBand{},
	}
	// Blinder is the five channel fixture with a white strobe band in the
	// middle: red, green, blue, strobe brightness, strobe rate.
	Blinder = Variant{
		Name:     "blinder",
		Slots:    5,
		Export:   "channels",
		Color:    DirectColor,
		Effect:   true,
		Region:   CenterBand{HalfWidth: 0.125},
		Defaults: []float64{0.75 * 255, 0, 0, 127, 0},
	}
	// PackedBlinder is Blinder with its channels packed into two slots:
	// packed RGB, then strobe brightness and rate as the high and low fields.
	PackedBlinder = Variant{
		Name:   "packed-blinder",
		Slots:  2,
		Export: "channels",
		Color:  PackedColor,
		Effect: true,
		Region: CenterBand{HalfWidth: 0.125},
		Defaults: []float64{
			Pack(191, 0, 0).Fixed(),
			PackPair(127, 0).Fixed(),
		},
	}
	// Receiver takes a packed color for every pixel.
	Receiver = Variant{
		Name:   "receiver",
		Export: "pixels",
		Color:  PerPixelColor,
		Region: NoBand{},
	}
)

// Variants lists the built-in variants.
var Variants = []Variant{RGB, Blinder, PackedBlinder, Receiver}

// VariantByName looks up a built-in variant.
func VariantByName(name string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown fixture variant %q", name)
}

// SlotCount returns the channel buffer length for a fixture of pixelCount
// pixels.
func (v Variant) SlotCount(pixelCount int) int {
	if v.Slots == 0 {
		return pixelCount
	}
	return v.Slots
}

func (v Variant) region() Region {
	if v.Region == nil {
		return NoBand{}
	}
	return v.Region
}
