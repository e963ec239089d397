package fixtured

import "math"

// Packed is a 24-bit RGB color packed as 0xRRGGBB.
//
// Pixelblaze receives packed colors as 16.16 fixed-point numbers (the 24-bit
// value divided by 256, wrapped into the signed range). Packed keeps the exact
// integer instead so that no byte is lost to floating-point rounding.
type Packed uint32

// Pack packs three 8-bit fields.
func Pack(r, g, b uint8) Packed {
	return Packed(r)<<16 | Packed(g)<<8 | Packed(b)
}

// PackPair packs two 8-bit fields into the high and low positions used by
// two-field slots. The third field is zero.
func PackPair(hi, lo uint8) Packed {
	return Pack(hi, lo, 0)
}

// PackedFromFixed converts a 16.16 fixed-point slot value into a Packed.
// Values wrapped into the negative range are unwrapped.
func PackedFromFixed(v float64) Packed {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n := int64(math.Floor(v*256 + 0.5))
	return Packed(uint32(n) & 0xFFFFFF)
}

// Fixed returns the 16.16 fixed-point form of p, wrapped into the signed
// range the same way the router sends it.
func (p Packed) Fixed() float64 {
	f := float64(p&0xFFFFFF) / 256
	if f > 32767 {
		f -= 65536
	}
	return f
}

// Bytes returns the three fields of p.
func (p Packed) Bytes() (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// Hi returns the high field of a two-field slot.
func (p Packed) Hi() uint8 { return uint8(p >> 16) }

// Lo returns the low field of a two-field slot.
func (p Packed) Lo() uint8 { return uint8(p >> 8) }

// Uint returns p as 0xRRGGBB.
func (p Packed) Uint() uint32 { return uint32(p & 0xFFFFFF) }
