package main

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/extra/devices/screen"

	"github.com/glowkit/strandlight/ledcolor"
	"github.com/glowkit/strandlight/simweb"
	"github.com/glowkit/strandlight/ws281x"
)

// consoleTransport renders frames as ANSI color blocks on stdout, one drawer
// per configured channel. It stands in when no SPI port is available.
type consoleTransport struct {
	channels map[[2]int]consoleChannel
}

type consoleChannel struct {
	drawer display.Drawer
	opt    ws281x.ChannelOption
}

func newConsoleTransport(opts *ws281x.Options) *consoleTransport {
	t := &consoleTransport{channels: make(map[[2]int]consoleChannel)}
	for _, c := range opts.Channels {
		t.channels[[2]int{c.Bus, c.Device}] = consoleChannel{
			drawer: screen.New(c.LedCount),
			opt:    c,
		}
	}
	return t
}

func (t *consoleTransport) Configure(bus, device int, mode spi.Mode, freq physic.Frequency) error {
	return nil
}

func (t *consoleTransport) Exchange(bus, device int, w, r []byte) error {
	ch, ok := t.channels[[2]int{bus, device}]
	if !ok {
		return nil
	}
	lanes := ch.opt.StripType.Lanes()
	colors, err := simweb.DecodeFrame(w, ch.opt.LedCount, lanes, ch.opt.Invert)
	if err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, ch.opt.LedCount, 1))
	for i := 0; i < ch.opt.LedCount; i++ {
		img.SetNRGBA(i, 0, nrgbaFromSlots(colors[i*lanes:(i+1)*lanes], ch.opt.StripType))
	}
	return ch.drawer.Draw(ch.drawer.Bounds(), img, image.Point{})
}

func (t *consoleTransport) Close() error {
	for _, ch := range t.channels {
		if err := ch.drawer.Halt(); err != nil {
			return err
		}
	}
	return nil
}

// nrgbaFromSlots maps wire-slot bytes back onto their pixel lanes, folding
// any white slot into all three color channels.
func nrgbaFromSlots(slots []uint8, st ws281x.StripType) color.NRGBA {
	shifts := [4]uint{
		uint(st>>16) & 0xff,
		uint(st>>8) & 0xff,
		uint(st) & 0xff,
		uint(st>>24) & 0xff,
	}
	c := color.NRGBA{A: 255}
	for j, v := range slots {
		switch shifts[j] {
		case ws281x.ShiftR:
			c.R = v
		case ws281x.ShiftG:
			c.G = v
		case ws281x.ShiftB:
			c.B = v
		case ws281x.ShiftW:
			c.R = ledcolor.QAdd8(c.R, v)
			c.G = ledcolor.QAdd8(c.G, v)
			c.B = ledcolor.QAdd8(c.B, v)
		}
	}
	return c
}
