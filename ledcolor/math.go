package ledcolor

// 8-bit fixed-point helpers in the lib8tion style. All of them stay inside
// uint16 intermediates so the results match the classic AVR semantics.

// Scale8 returns i*(scale/256), with scale8's +1 bias so a scale of 255 is
// very nearly the identity.
func Scale8(i, scale uint8) uint8 {
	return uint8(uint16(i) * (1 + uint16(scale)) >> 8)
}

// QAdd8 adds saturating at 255.
func QAdd8(i, j uint8) uint8 {
	t := uint16(i) + uint16(j)
	if t > 255 {
		return 255
	}
	return uint8(t)
}

// QSub8 subtracts saturating at 0.
func QSub8(i, j uint8) uint8 {
	if j > i {
		return 0
	}
	return i - j
}

// Blend8 mixes a toward b by amountOfB/256.
func Blend8(a, b, amountOfB uint8) uint8 {
	partial := uint16(a)<<8 | uint16(b)
	partial += uint16(b) * uint16(amountOfB)
	partial -= uint16(a) * uint16(amountOfB)
	return uint8(partial >> 8)
}

// NScale8 dims every pixel's color lanes in place.
func NScale8(leds []uint32, scale uint8) {
	for i := range leds {
		leds[i] = uint32(Color(leds[i]).Scale8(scale))
	}
}

// FadeToBlackBy dims every pixel by fade/256 toward black.
func FadeToBlackBy(leds []uint32, fade uint8) {
	NScale8(leds, 255-fade)
}

// FillSolid sets every pixel to c.
func FillSolid(leds []uint32, c Color) {
	for i := range leds {
		leds[i] = uint32(c)
	}
}

// FillRainbow paints a hue gradient across the buffer, deltaHue per pixel,
// at full saturation and value.
func FillRainbow(leds []uint32, initialHue, deltaHue uint8) {
	hue := initialHue
	for i := range leds {
		leds[i] = uint32(FromHSV(hue, 255, 255))
		hue += deltaHue
	}
}
