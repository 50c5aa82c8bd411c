package ledcolor

// FromHSV converts a hue/saturation/value triple, each 0-255, to a packed
// pixel. Hue wraps across six 43-step sectors of the color wheel, the
// spectrum-style mapping rather than FastLED's rainbow with its stretched
// yellow band.
func FromHSV(h, s, v uint8) Color {
	if s == 0 {
		return New(v, v, v)
	}

	sector := h / 43
	rem := uint16(h%43) * 6 // 0..255 ramp within the sector

	p := Scale8(v, 255-s)
	q := Scale8(v, 255-uint8(uint16(s)*rem>>8))
	t := Scale8(v, 255-uint8(uint16(s)*(255-rem)>>8))

	switch sector {
	case 0:
		return New(v, t, p)
	case 1:
		return New(q, v, p)
	case 2:
		return New(p, v, t)
	case 3:
		return New(p, q, v)
	case 4:
		return New(t, p, v)
	default:
		return New(v, p, q)
	}
}
