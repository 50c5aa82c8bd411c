package ws281x

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// fakeTransport records every configure and exchange so tests can inspect
// the exact frames a render produced.
type fakeTransport struct {
	configured []portKey
	frames     map[portKey][][]byte
	failBus    int
	failErr    error
	closed     int
}

func (f *fakeTransport) Configure(bus, device int, mode spi.Mode, freq physic.Frequency) error {
	f.configured = append(f.configured, portKey{bus, device})
	return nil
}

func (f *fakeTransport) Exchange(bus, device int, w, r []byte) error {
	if f.failErr != nil && bus == f.failBus {
		return f.failErr
	}
	if f.frames == nil {
		f.frames = map[portKey][][]byte{}
	}
	frame := make([]byte, len(w))
	copy(frame, w)
	key := portKey{bus, device}
	f.frames[key] = append(f.frames[key], frame)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func testOptions(counts ...int) *Options {
	opts := &Options{}
	for i, n := range counts {
		opts.Channels = append(opts.Channels, ChannelOption{
			Bus:        i,
			LedCount:   n,
			StripType:  WS2812Strip,
			Brightness: 255,
		})
	}
	return opts
}

func TestMakeDeviceCopiesOptions(t *testing.T) {
	opts := testOptions(4)
	dev, err := MakeDevice(opts, &fakeTransport{})
	assert.NoError(t, err)

	opts.Channels[0].LedCount = 9999
	assert.NoError(t, dev.Init())
	assert.Len(t, dev.Leds(0), 4)
}

func TestMakeDeviceNilOptions(t *testing.T) {
	_, err := MakeDevice(nil, &fakeTransport{})
	assert.ErrorIs(t, err, ErrIllegalConfiguration)
}

func TestInitChannelLimits(t *testing.T) {
	dev, _ := MakeDevice(&Options{}, &fakeTransport{})
	assert.ErrorIs(t, dev.Init(), ErrIllegalConfiguration)

	dev, _ = MakeDevice(testOptions(1, 1, 1), &fakeTransport{})
	assert.ErrorIs(t, dev.Init(), ErrIllegalConfiguration)
}

func TestInitRejectsBadChannels(t *testing.T) {
	opts := testOptions(8)
	opts.Channels[0].LedCount = 0
	dev, _ := MakeDevice(opts, &fakeTransport{})
	assert.ErrorIs(t, dev.Init(), ErrIllegalConfiguration)

	opts = testOptions(8)
	opts.Channels[0].StripType = StripType(0x00080808) // all slots collide
	dev, _ = MakeDevice(opts, &fakeTransport{})
	assert.ErrorIs(t, dev.Init(), ErrUnsupportedStripType)

	dev, _ = MakeDevice(testOptions(8), &fakeTransport{})
	assert.NoError(t, dev.Init())
	assert.ErrorIs(t, dev.Init(), ErrIllegalConfiguration, "double init")
}

func TestAddChannelOutOfMemory(t *testing.T) {
	tr := &fakeTransport{}
	dev, _ := MakeDevice(testOptions(8), tr)
	assert.NoError(t, dev.Init())

	_, err := dev.AddChannel(ChannelOption{Bus: 1, LedCount: 1 << 24, StripType: WS2812Strip})
	assert.ErrorIs(t, err, ErrOutOfMemory)

	// The refused channel must not disturb the one already up.
	assert.Equal(t, 1, dev.ChannelCount())
	dev.Leds(0)[0] = 0x00FF0000
	assert.NoError(t, dev.Render())
	assert.Len(t, tr.frames[portKey{0, 0}], 1)
}

func TestRenderRequiresInit(t *testing.T) {
	dev, _ := MakeDevice(testOptions(8), &fakeTransport{})
	assert.ErrorIs(t, dev.Render(), ErrIllegalConfiguration)
}

func TestRenderTransmitsEveryChannel(t *testing.T) {
	tr := &fakeTransport{}
	dev, _ := MakeDevice(testOptions(4, 16), tr)
	assert.NoError(t, dev.Init())
	defer dev.Fini()

	assert.NoError(t, dev.Render())
	assert.Len(t, tr.frames[portKey{0, 0}], 1)
	assert.Len(t, tr.frames[portKey{1, 0}], 1)

	// The shared buffer is sized for the longest channel; both transfers
	// send the whole thing.
	assert.Len(t, tr.frames[portKey{0, 0}][0], frameBytes(16))

	// Device throttle arms off the longer channel.
	assert.Equal(t, protocolTime(16, 3)+resetWait, dev.throttle.wait)
}

func TestRenderFailedChannelDoesNotStopOthers(t *testing.T) {
	tr := &fakeTransport{failBus: 0, failErr: fmt.Errorf("wrapped: %w", ErrSPITransfer)}
	dev, _ := MakeDevice(testOptions(4, 4), tr)
	assert.NoError(t, dev.Init())

	err := dev.Render()
	assert.ErrorIs(t, err, ErrSPITransfer)
	assert.Len(t, tr.frames[portKey{1, 0}], 1, "healthy channel still transmitted")
}

func TestRenderPowerCap(t *testing.T) {
	tr := &fakeTransport{}
	opts := testOptions(10)
	opts.MaxPowerMilliwatts = 100
	dev, _ := MakeDevice(opts, tr)
	assert.NoError(t, dev.Init())

	for i := range dev.Leds(0) {
		dev.Leds(0)[i] = 0x00FFFFFF
	}
	assert.NoError(t, dev.Render())

	total := dev.EstimatePowerMilliwatts()
	capped := capBrightness(total, 255, 100)
	assert.Less(t, capped, uint8(255))

	want := make([]byte, frameBytes(10))
	buildFrame(want, dev.channels[0], capped)
	assert.Equal(t, want, tr.frames[portKey{0, 0}][0])

	// The configured brightness survives capping.
	assert.Equal(t, uint8(255), dev.Brightness(0))
}

func TestSetLedsSync(t *testing.T) {
	dev, _ := MakeDevice(testOptions(4), &fakeTransport{})
	assert.NoError(t, dev.Init())

	assert.NoError(t, dev.SetLedsSync(0, []uint32{1, 2, 3}))
	assert.Equal(t, []uint32{1, 2, 3, 0}, dev.Leds(0))

	assert.ErrorIs(t, dev.SetLedsSync(0, make([]uint32, 5)), ErrIllegalConfiguration)
	assert.ErrorIs(t, dev.SetLedsSync(2, nil), ErrIllegalConfiguration)
}

func TestClear(t *testing.T) {
	dev, _ := MakeDevice(testOptions(4), &fakeTransport{})
	assert.NoError(t, dev.Init())

	for i := range dev.Leds(0) {
		dev.Leds(0)[i] = 0xFFFFFFFF
	}
	dev.Clear()
	assert.Equal(t, make([]uint32, 4), dev.Leds(0))
}

func TestBrightnessAccessors(t *testing.T) {
	dev, _ := MakeDevice(testOptions(4), &fakeTransport{})
	assert.NoError(t, dev.Init())

	assert.NoError(t, dev.SetBrightness(0, 100))
	assert.Equal(t, uint8(100), dev.Brightness(0))
}

func TestChannelAccessorBounds(t *testing.T) {
	dev, _ := MakeDevice(testOptions(4), &fakeTransport{})
	assert.NoError(t, dev.Init())

	assert.Nil(t, dev.Leds(1))
	assert.Nil(t, dev.Leds(-1))
	assert.Zero(t, dev.Brightness(1))
	assert.ErrorIs(t, dev.SetBrightness(1, 50), ErrIllegalConfiguration)
	assert.ErrorIs(t, dev.SetBrightness(-1, 50), ErrIllegalConfiguration)
}

func TestFiniIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	dev, _ := MakeDevice(testOptions(4), tr)
	assert.NoError(t, dev.Init())

	dev.Fini()
	dev.Fini()
	assert.Equal(t, 2, tr.closed)
	assert.Equal(t, 0, dev.ChannelCount())
	assert.ErrorIs(t, dev.Render(), ErrIllegalConfiguration)
}

func TestFiniAfterFailedInit(t *testing.T) {
	opts := testOptions(4, 4)
	opts.Channels[1].StripType = StripType(0x00080808)
	dev, _ := MakeDevice(opts, &fakeTransport{})

	err := dev.Init()
	assert.ErrorIs(t, err, ErrUnsupportedStripType)
	assert.True(t, errors.Is(err, ErrUnsupportedStripType))
	dev.Fini() // must not panic with one channel half up
}
