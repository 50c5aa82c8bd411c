// Package ledcolor holds the packed-pixel color math used to populate LED
// channel buffers: lane accessors on 0xWWRRGGBB values, 8-bit fixed-point
// scaling and blending, HSV conversion, and whole-buffer fills and fades.
// Everything is pure; the render pipeline never calls back in here.
package ledcolor

import "image/color"

const (
	WhiteOffset uint8 = 0x18
	RedOffset   uint8 = 0x10
	GreenOffset uint8 = 0x08
	BlueOffset  uint8 = 0x00
)

// Color is a packed 0xWWRRGGBB pixel, the value type of channel buffers.
type Color uint32

// New packs an RGB pixel with a dark white lane.
func New(r, g, b uint8) Color {
	return Color(uint32(r)<<RedOffset | uint32(g)<<GreenOffset | uint32(b)<<BlueOffset)
}

// NewRGBW packs a four lane pixel.
func NewRGBW(r, g, b, w uint8) Color {
	return New(r, g, b) | Color(uint32(w)<<WhiteOffset)
}

func setlane(c uint32, v uint8, off uint8) uint32 {
	mask := uint32(0xFF) << off
	return (c &^ mask) | uint32(v)<<off
}

func getlane(c uint32, off uint8) uint8 {
	return uint8(c >> off)
}

func (c Color) R() uint8 { return getlane(uint32(c), RedOffset) }
func (c Color) G() uint8 { return getlane(uint32(c), GreenOffset) }
func (c Color) B() uint8 { return getlane(uint32(c), BlueOffset) }
func (c Color) W() uint8 { return getlane(uint32(c), WhiteOffset) }

func (c *Color) SetR(v uint8) { *c = Color(setlane(uint32(*c), v, RedOffset)) }
func (c *Color) SetG(v uint8) { *c = Color(setlane(uint32(*c), v, GreenOffset)) }
func (c *Color) SetB(v uint8) { *c = Color(setlane(uint32(*c), v, BlueOffset)) }
func (c *Color) SetW(v uint8) { *c = Color(setlane(uint32(*c), v, WhiteOffset)) }

// ToNRGBA renders the pixel for previews, folding the white lane in as a
// uniform lift.
func (c Color) ToNRGBA() color.NRGBA {
	w := c.W()
	return color.NRGBA{
		R: QAdd8(c.R(), w),
		G: QAdd8(c.G(), w),
		B: QAdd8(c.B(), w),
		A: 255,
	}
}

// Scale8 dims all color lanes by scale/256, leaving the white lane alone.
func (c Color) Scale8(scale uint8) Color {
	out := NewRGBW(Scale8(c.R(), scale), Scale8(c.G(), scale), Scale8(c.B(), scale), c.W())
	return out
}

// Lerp8 blends c toward other by amount/256 per lane.
func (c Color) Lerp8(other Color, amount uint8) Color {
	return NewRGBW(
		Blend8(c.R(), other.R(), amount),
		Blend8(c.G(), other.G(), amount),
		Blend8(c.B(), other.B(), amount),
		Blend8(c.W(), other.W(), amount),
	)
}
