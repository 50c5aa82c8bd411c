package simweb

import (
	"encoding/json"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/glowkit/strandlight/ws281x"
)

// DecodeFrame inverts the wire format: it skips the preamble and maps each
// symbol byte back to the protocol bit a strip would sample, reassembling
// count*lanes color bytes in wire order. Bytes that are neither pulse
// pattern are rejected, so a malformed encoder cannot decode cleanly.
func DecodeFrame(frame []byte, count, lanes int, invert bool) ([]uint8, error) {
	need := ws281x.PreambleBytes + count*lanes*8
	if len(frame) < need {
		return nil, fmt.Errorf("frame too short: %d bytes, need %d", len(frame), need)
	}

	zero, one := ws281x.SymbolZero, ws281x.SymbolOne
	if invert {
		zero, one = ^zero, ^one
	}

	out := make([]uint8, count*lanes)
	for i := range out {
		var b uint8
		for k := 0; k < 8; k++ {
			b <<= 1
			switch frame[ws281x.PreambleBytes+i*8+k] {
			case one:
				b |= 1
			case zero:
			default:
				return nil, fmt.Errorf("byte %d: 0x%02x is not a pulse pattern",
					ws281x.PreambleBytes+i*8+k, frame[ws281x.PreambleBytes+i*8+k])
			}
		}
		out[i] = b
	}
	return out, nil
}

// framePayload is what browser simulators receive, one message per render.
type framePayload struct {
	Bus    int       `json:"bus"`
	Device int       `json:"device"`
	Lanes  int       `json:"lanes"`
	Leds   [][]uint8 `json:"leds"`
}

// Simulator is a ws281x.Transport standing in for the SPI hardware. Every
// exchanged frame is decoded with the geometry of the strip bound to that
// (bus, device) pair and broadcast to the hub, so the browser shows exactly
// what each physical strip would display.
type Simulator struct {
	hub    *Hub
	strips map[[2]int]simStrip
}

type simStrip struct {
	count  int
	lanes  int
	invert bool
}

// NewSimulator returns an empty simulator; bind strips with AddStrip before
// the device renders.
func NewSimulator(hub *Hub) *Simulator {
	return &Simulator{hub: hub, strips: map[[2]int]simStrip{}}
}

// AddStrip binds one simulated strip of ledCount LEDs to SPI<bus>.<device>,
// with the given lane count (3 for RGB parts, 4 for RGBW). Invert makes the
// decoder expect complemented pulse patterns.
func (s *Simulator) AddStrip(bus, device, ledCount, lanes int, invert bool) {
	s.strips[[2]int{bus, device}] = simStrip{count: ledCount, lanes: lanes, invert: invert}
}

// Configure implements ws281x.Transport. The simulator accepts any clock.
func (s *Simulator) Configure(bus, device int, mode spi.Mode, freq physic.Frequency) error {
	return nil
}

// Exchange implements ws281x.Transport by decoding and broadcasting w.
func (s *Simulator) Exchange(bus, device int, w, r []byte) error {
	strip, ok := s.strips[[2]int{bus, device}]
	if !ok {
		return fmt.Errorf("SPI%d.%d: %w: no simulated strip bound", bus, device, ws281x.ErrSPITransfer)
	}
	colors, err := DecodeFrame(w, strip.count, strip.lanes, strip.invert)
	if err != nil {
		return fmt.Errorf("SPI%d.%d: %w: %v", bus, device, ws281x.ErrSPITransfer, err)
	}

	leds := make([][]uint8, strip.count)
	for i := range leds {
		leds[i] = colors[i*strip.lanes : (i+1)*strip.lanes]
	}
	msg, err := json.Marshal(framePayload{Bus: bus, Device: device, Lanes: strip.lanes, Leds: leds})
	if err != nil {
		return err
	}
	s.hub.Broadcast(msg)
	return nil
}

// Close implements ws281x.Transport.
func (s *Simulator) Close() error { return nil }
