package ws281x

// PowerEstimator models the electrical draw of a pixel buffer at full
// brightness. The device consults it before encoding when a power budget is
// configured; alternative strategies (different supply voltages, measured
// calibrations) plug in through SetPowerEstimator.
type PowerEstimator interface {
	// EstimateMilliwatts returns the draw of the buffer at brightness 255.
	EstimateMilliwatts(leds []uint32) uint32
}

// StripPowerModel estimates draw from per-lane milliwatt weights plus a fixed
// dark current per LED. Lane sums are right-shifted by 8 to normalize for the
// 0-255 lane scale.
type StripPowerModel struct {
	RedMW   uint32
	GreenMW uint32
	BlueMW  uint32
	DarkMW  uint32
}

// DefaultPowerModel carries the FastLED project's measured constants for 5V
// WS2812-class strips: 16/11/15 mA per lane and 1 mA dark current.
var DefaultPowerModel = StripPowerModel{
	RedMW:   16 * 5,
	GreenMW: 11 * 5,
	BlueMW:  15 * 5,
	DarkMW:  1 * 5,
}

// EstimateMilliwatts implements PowerEstimator.
func (m StripPowerModel) EstimateMilliwatts(leds []uint32) uint32 {
	var red, green, blue uint32
	for _, led := range leds {
		red += led >> ShiftR & 0xff
		green += led >> ShiftG & 0xff
		blue += led >> ShiftB & 0xff
	}
	red = red * m.RedMW >> 8
	green = green * m.GreenMW >> 8
	blue = blue * m.BlueMW >> 8
	return red + green + blue + m.DarkMW*uint32(len(leds))
}

// LimitBrightness returns the largest brightness, at most target, that keeps
// the buffer's draw within maxMW.
func LimitBrightness(est PowerEstimator, leds []uint32, target uint8, maxMW uint32) uint8 {
	return capBrightness(est.EstimateMilliwatts(leds), target, maxMW)
}

func capBrightness(totalMW uint32, target uint8, maxMW uint32) uint8 {
	requested := totalMW * uint32(target) / 256
	if requested <= maxMW {
		return target
	}
	return uint8(uint32(target) * maxMW / requested)
}

// EstimatePowerMilliwatts sums the full-brightness draw estimate across every
// registered channel.
func (d *Device) EstimatePowerMilliwatts() uint32 {
	var total uint32
	for _, ch := range d.channels {
		total += d.power.EstimateMilliwatts(ch.leds)
	}
	return total
}

// MaxBrightnessForPower caps target so the whole device stays within maxMW,
// applying one ratio across all channels.
func (d *Device) MaxBrightnessForPower(target uint8, maxMW uint32) uint8 {
	return capBrightness(d.EstimatePowerMilliwatts(), target, maxMW)
}
