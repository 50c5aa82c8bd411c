package ws281x

// StripType encodes the wire order of a strip as four per-slot bit shifts,
// one byte per slot: 0xWWRRGGBB lane positions within the packed pixel value.
// A non-zero white nibble marks a four lane (RGBW) part.
type StripType uint32

// 4 color R, G, B and W ordering
const (
	SK6812StripRGBW StripType = 0x18100800
	SK6812StripRBGW StripType = 0x18100008
	SK6812StripGRBW StripType = 0x18081000
	SK6812StripGBRW StripType = 0x18080010
	SK6812StripBRGW StripType = 0x18001008
	SK6812StripBGRW StripType = 0x18000810
)

// 3 color R, G and B ordering
const (
	WS2811StripRGB StripType = 0x00100800
	WS2811StripRBG StripType = 0x00100008
	WS2811StripGRB StripType = 0x00081000
	WS2811StripGBR StripType = 0x00080010
	WS2811StripBRG StripType = 0x00001008
	WS2811StripBGR StripType = 0x00000810
)

// Predefined fixed LED types.
const (
	WS2812Strip  = WS2811StripGRB
	SK6812Strip  = WS2811StripGRB
	SK6812WStrip = SK6812StripGRBW
)

const sk6812ShiftWMask = 0xf0000000

// Lane positions within packed pixel, color correction and color temperature
// values. Indexed by wire slot: red, green, blue, white.
const (
	ShiftW = 24
	ShiftR = 16
	ShiftG = 8
	ShiftB = 0
)

// Lanes reports how many color lanes the strip latches per LED: 4 for the
// SK6812 RGBW family, 3 otherwise.
func (st StripType) Lanes() int {
	if uint32(st)&sk6812ShiftWMask != 0 {
		return 4
	}
	return 3
}

// shifts returns the packed-pixel bit offset feeding each wire slot, in slot
// order. Only the first Lanes() entries are meaningful.
func (st StripType) shifts() [4]uint {
	return [4]uint{
		uint(st>>16) & 0xff, // first slot ("red" position)
		uint(st>>8) & 0xff,  // second slot
		uint(st) & 0xff,     // third slot
		uint(st>>24) & 0xff, // white slot
	}
}

// valid reports whether the strip type describes a usable RGB or RGBW layout:
// every active shift a distinct byte boundary within the 32-bit pixel.
func (st StripType) valid() bool {
	s := st.shifts()
	lanes := st.Lanes()
	var seen [4]bool
	for j := 0; j < lanes; j++ {
		if s[j] > 24 || s[j]%8 != 0 {
			return false
		}
		slot := s[j] / 8
		if seen[slot] {
			return false
		}
		seen[slot] = true
	}
	return true
}
