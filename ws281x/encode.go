package ws281x

import "periph.io/x/conn/v3/physic"

// TargetFreq is the SPI clock rate assumed by the symbol encoding. At 6.5 MHz
// one 8-bit SPI byte takes ~1.23 µs on the wire, matching the WS281x 1.25 µs
// bit period, so each protocol bit is carried by exactly one byte.
const TargetFreq = 6500 * physic.KiloHertz

// One byte per protocol bit. The high-pulse width within the byte selects the
// bit value: 2 clocks high reads as a protocol 0, 6 clocks high as a 1.
const (
	SymbolZero byte = 0b11000000
	SymbolOne  byte = 0b11111100
)

// PreambleBytes of line-idle zeros precede the pixel data so the strip sees a
// clean low period before the first rising edge.
const PreambleBytes = 44

// maxLanes sizes shared structures for the widest supported part (RGBW).
const maxLanes = 4

// maxFrameBytes caps the shared transmit buffer at 4 MiB (~131k RGBW LEDs).
// Requests beyond it are refused at registration rather than trusted to an
// allocator that cannot fail gracefully.
const maxFrameBytes = 4 << 20

// symbols[v][k] is the wire byte carrying bit k (MSB first) of the color byte
// v. Generated from the two pulse patterns at package init.
var symbols = makeSymbolTable()

func makeSymbolTable() (t [256][8]byte) {
	for v := 0; v < 256; v++ {
		for k := 0; k < 8; k++ {
			if v&(0x80>>k) != 0 {
				t[v][k] = SymbolOne
			} else {
				t[v][k] = SymbolZero
			}
		}
	}
	return t
}

// frameBytes is the transmit buffer length for a channel of count LEDs:
// preamble, one byte per protocol bit at four lanes, padded to a 32-bit
// boundary, plus trailing idle bytes before the reset wait takes over.
func frameBytes(count int) int {
	bits := count * maxLanes * 8
	return PreambleBytes + (bits&^0x7 + 4) + 4
}

// buildFrame encodes the channel's pixels into buf, which must be at least
// frameBytes(ch.count) long. The preamble and everything past the pixel data
// are zeroed, so identical inputs always produce identical buffers. No I/O
// happens here.
func buildFrame(buf []byte, ch *channel, brightness uint8) {
	scale := uint32(brightness) + 1

	for i := 0; i < PreambleBytes; i++ {
		buf[i] = 0
	}

	off := PreambleBytes
	for _, led := range ch.leds {
		for j := 0; j < ch.lanes; j++ {
			scaled := ((led >> ch.shift[j] & 0xff) * scale) >> 8
			corrected := ch.gamma[int(scaled)*maxLanes+j]
			sym := &symbols[corrected]
			for k := 0; k < 8; k++ {
				v := sym[k]
				if ch.invert {
					v = ^v
				}
				buf[off+k] = v
			}
			off += 8
		}
	}

	for i := off; i < len(buf); i++ {
		buf[i] = 0
	}
}
