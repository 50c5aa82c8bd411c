package ws281x

import "math"

// laneShifts maps wire slots (red, green, blue, white) to the fixed lane
// positions inside color correction and color temperature values.
var laneShifts = [maxLanes]uint{ShiftR, ShiftG, ShiftB, ShiftW}

// buildGammaTable fills a 256-entry-per-lane lookup combining the perceptual
// gamma exponent with the static color correction and color temperature:
//
//	factor = correction_lane * temperature_lane / 255        (0..255)
//	table[v][lane] = round(factor * (v/255)^gamma)
//
// dst is laid out [value*maxLanes + lane]. With gamma 1.0 and full correction
// and temperature the table is the identity mapping.
func buildGammaTable(dst []uint8, gamma float64, correction, temperature uint32) {
	for j, shift := range laneShifts {
		factor := float64((correction>>shift)&0xff) * float64((temperature>>shift)&0xff) / 255.0
		for v := 0; v < 256; v++ {
			out := math.Round(factor * math.Pow(float64(v)/255.0, gamma))
			if out > 255 {
				out = 255
			}
			dst[v*maxLanes+j] = uint8(out)
		}
	}
}

// regenGamma rebuilds the channel's gamma table from its current gamma
// factor, color correction and color temperature. It must run after any of
// the three changes; a stale table must never reach the encoder.
func (ch *channel) regenGamma() {
	buildGammaTable(ch.gamma, ch.gammaFactor, ch.correction, ch.temperature)
}
