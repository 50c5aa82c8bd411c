package ws281x

import (
	"errors"
	"fmt"
	"time"

	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// MaxChannels is the number of independent SPI-capable outputs one device
// drives concurrently.
const MaxChannels = 2

// DefaultBrightness is a safe brightness for bench strips.
const DefaultBrightness = 64

// ChannelOption configures one physical LED output.
type ChannelOption struct {
	// Bus and Device identify the spidev port (SPI<Bus>.<Device>).
	Bus    int
	Device int
	// LedCount is the number of LEDs on the strip.
	LedCount int
	// StripType is the wire order, one of the WS2811/SK6812 constants.
	StripType StripType
	// Brightness scales every lane, 0-255.
	Brightness uint8
	// Invert complements the output waveform for inverting line drivers.
	Invert bool
	// GammaFactor is the perceptual gamma exponent; 0 means 1.0 (identity).
	GammaFactor float64
	// ColorCorrection and ColorTemperature are packed 0xWWRRGGBB factors;
	// 0 means fully on (0xFFFFFFFF).
	ColorCorrection  uint32
	ColorTemperature uint32
}

// Options configures a device.
type Options struct {
	// Frequency is the SPI clock; 0 means TargetFreq. Changing it breaks
	// the symbol timing and is only useful for bench experiments.
	Frequency physic.Frequency
	// MaxPowerMilliwatts, when non-zero, caps brightness before every
	// frame so the summed draw of all channels stays under the budget.
	MaxPowerMilliwatts uint32
	// Channels lists the outputs to bring up, at most MaxChannels.
	Channels []ChannelOption
}

// DefaultOptions drives a single 16-LED GRB strip on SPI0.0.
var DefaultOptions = Options{
	Frequency: TargetFreq,
	Channels: []ChannelOption{
		{
			Bus:        0,
			Device:     0,
			LedCount:   16,
			StripType:  WS2812Strip,
			Brightness: DefaultBrightness,
		},
	},
}

type channel struct {
	bus    int
	device int
	count  int
	strip  StripType
	lanes  int
	shift  [4]uint
	invert bool

	brightness  uint8
	gammaFactor float64
	correction  uint32
	temperature uint32

	leds  []uint32
	gamma []uint8
}

// Device owns the shared transmit buffer and the channels bound to one
// render pipeline. It performs no internal locking: buffers and the render
// call are single-writer by design, and embedding applications needing
// concurrency must serialize access themselves.
type Device struct {
	opts        *Options
	tr          Transport
	log         zerolog.Logger
	channels    []*channel
	pxl         []byte
	throttle    renderThrottle
	power       PowerEstimator
	initialized bool
}

// MakeDevice creates a device from a deep copy of opt, so later mutations of
// the caller's options cannot race the pipeline. The transport defaults to
// SPI via periph.io when tr is nil. Init must run before the first render.
func MakeDevice(opt *Options, tr Transport) (*Device, error) {
	if opt == nil {
		return nil, fmt.Errorf("%w: nil options", ErrIllegalConfiguration)
	}
	if tr == nil {
		tr = NewSPITransport()
	}
	d := &Device{
		opts:  deepcopy.Copy(opt).(*Options),
		tr:    tr,
		log:   zerolog.Nop(),
		power: DefaultPowerModel,
	}
	if d.opts.Frequency == 0 {
		d.opts.Frequency = TargetFreq
	}
	return d, nil
}

// SetLogger routes the device's debug events to l. The default logger
// discards everything.
func (d *Device) SetLogger(l zerolog.Logger) {
	d.log = l
}

// SetPowerEstimator replaces the draw model used for budget capping.
func (d *Device) SetPowerEstimator(p PowerEstimator) {
	if p != nil {
		d.power = p
	}
}

// Init brings up every configured channel. On failure the channels brought
// up so far stay registered and releasable, so Fini after a failed Init is
// always safe.
func (d *Device) Init() error {
	if d.initialized {
		return fmt.Errorf("%w: device already initialized", ErrIllegalConfiguration)
	}
	if len(d.opts.Channels) == 0 || len(d.opts.Channels) > MaxChannels {
		return fmt.Errorf("%w: %d channels (max %d)", ErrIllegalConfiguration, len(d.opts.Channels), MaxChannels)
	}
	for i := range d.opts.Channels {
		if _, err := d.addChannel(d.opts.Channels[i]); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
	}
	d.initialized = true
	return nil
}

// AddChannel registers one more output and returns its channel number. The
// pixel buffer and gamma table are allocated here; the shared transmit
// buffer grows to cover the longest channel.
func (d *Device) AddChannel(opt ChannelOption) (int, error) {
	return d.addChannel(opt)
}

func (d *Device) addChannel(opt ChannelOption) (int, error) {
	if len(d.channels) >= MaxChannels {
		return -1, fmt.Errorf("%w: %d channels already registered", ErrIllegalConfiguration, MaxChannels)
	}
	if opt.LedCount <= 0 {
		return -1, fmt.Errorf("%w: LED count %d", ErrIllegalConfiguration, opt.LedCount)
	}
	if !opt.StripType.valid() {
		return -1, fmt.Errorf("%w: 0x%08x", ErrUnsupportedStripType, uint32(opt.StripType))
	}
	if frameBytes(opt.LedCount) > maxFrameBytes {
		return -1, fmt.Errorf("%w: %d LEDs needs a %d byte frame (limit %d)",
			ErrOutOfMemory, opt.LedCount, frameBytes(opt.LedCount), maxFrameBytes)
	}

	ch := &channel{
		bus:         opt.Bus,
		device:      opt.Device,
		count:       opt.LedCount,
		strip:       opt.StripType,
		lanes:       opt.StripType.Lanes(),
		shift:       opt.StripType.shifts(),
		invert:      opt.Invert,
		brightness:  opt.Brightness,
		gammaFactor: opt.GammaFactor,
		correction:  opt.ColorCorrection,
		temperature: opt.ColorTemperature,
		leds:        make([]uint32, opt.LedCount),
		gamma:       make([]uint8, 256*maxLanes),
	}
	if ch.gammaFactor == 0 {
		ch.gammaFactor = 1.0
	}
	if ch.correction == 0 {
		ch.correction = 0xFFFFFFFF
	}
	if ch.temperature == 0 {
		ch.temperature = 0xFFFFFFFF
	}
	ch.regenGamma()

	if err := d.tr.Configure(ch.bus, ch.device, spi.Mode0, d.opts.Frequency); err != nil {
		return -1, err
	}

	if n := frameBytes(ch.count); n > len(d.pxl) {
		d.pxl = make([]byte, n)
	}
	d.channels = append(d.channels, ch)
	d.log.Debug().
		Int("bus", ch.bus).Int("device", ch.device).
		Int("leds", ch.count).Int("lanes", ch.lanes).
		Msg("channel up")
	return len(d.channels) - 1, nil
}

// Fini waits out any pending reset window, releases all channel buffers and
// the transport handles. It is idempotent and safe on a partially
// initialized device.
func (d *Device) Fini() {
	_ = d.Wait()
	for _, ch := range d.channels {
		ch.leds = nil
		ch.gamma = nil
	}
	d.channels = nil
	d.pxl = nil
	d.initialized = false
	if d.tr != nil {
		if err := d.tr.Close(); err != nil {
			d.log.Debug().Err(err).Msg("transport close")
		}
	}
}

// Leds returns channel ch's pixel buffer (packed 0xWWRRGGBB values), or nil
// for an unregistered channel number. The caller mutates it between renders;
// it must not be touched while Render is in flight.
func (d *Device) Leds(ch int) []uint32 {
	if ch < 0 || ch >= len(d.channels) {
		return nil
	}
	return d.channels[ch].leds
}

// SetLedsSync waits for the pacing window and then replaces the channel's
// pixels.
func (d *Device) SetLedsSync(ch int, leds []uint32) error {
	if ch < 0 || ch >= len(d.channels) {
		return fmt.Errorf("%w: channel %d", ErrIllegalConfiguration, ch)
	}
	if len(leds) > len(d.channels[ch].leds) {
		return fmt.Errorf("%w: %d pixels for a %d LED channel",
			ErrIllegalConfiguration, len(leds), len(d.channels[ch].leds))
	}
	if err := d.Wait(); err != nil {
		return err
	}
	copy(d.channels[ch].leds, leds)
	return nil
}

// Clear blacks out every channel's pixel buffer. Render afterwards to turn
// the strips off.
func (d *Device) Clear() {
	for _, ch := range d.channels {
		for i := range ch.leds {
			ch.leds[i] = 0
		}
	}
}

// ChannelCount returns the number of registered channels.
func (d *Device) ChannelCount() int {
	return len(d.channels)
}

// Brightness returns channel ch's brightness scalar, or zero for an
// unregistered channel number.
func (d *Device) Brightness(ch int) uint8 {
	if ch < 0 || ch >= len(d.channels) {
		return 0
	}
	return d.channels[ch].brightness
}

// SetBrightness sets channel ch's brightness scalar (0-255).
func (d *Device) SetBrightness(ch int, b uint8) error {
	if ch < 0 || ch >= len(d.channels) {
		return fmt.Errorf("%w: channel %d", ErrIllegalConfiguration, ch)
	}
	d.channels[ch].brightness = b
	return nil
}

// SetGammaFactor sets the gamma exponent on every channel and rebuilds the
// lookup tables before the next render.
func (d *Device) SetGammaFactor(gamma float64) {
	for _, ch := range d.channels {
		ch.gammaFactor = gamma
		ch.regenGamma()
	}
}

// SetColorCorrection sets the packed per-lane correction on every channel
// and rebuilds the lookup tables.
func (d *Device) SetColorCorrection(correction uint32) {
	for _, ch := range d.channels {
		ch.correction = correction
		ch.regenGamma()
	}
}

// SetColorTemperature sets the packed per-lane temperature on every channel
// and rebuilds the lookup tables.
func (d *Device) SetColorTemperature(temperature uint32) {
	for _, ch := range d.channels {
		ch.temperature = temperature
		ch.regenGamma()
	}
}

// Wait blocks until the reset window from the previous render has elapsed.
func (d *Device) Wait() error {
	d.throttle.sleep()
	return nil
}

// Render encodes and transmits every channel's pixel buffer. The call blocks
// through the pacing wait and the transfers; a failed channel does not stop
// the others, and the joined error reports each failure. Once started, a
// render runs to completion.
func (d *Device) Render() error {
	if !d.initialized {
		return fmt.Errorf("%w: device not initialized", ErrIllegalConfiguration)
	}
	if err := d.Wait(); err != nil {
		return err
	}

	var budgetMW uint32
	if d.opts.MaxPowerMilliwatts > 0 {
		budgetMW = d.EstimatePowerMilliwatts()
	}

	var errs []error
	var protocol time.Duration
	start := time.Now()
	for i, ch := range d.channels {
		brightness := ch.brightness
		if d.opts.MaxPowerMilliwatts > 0 {
			brightness = capBrightness(budgetMW, brightness, d.opts.MaxPowerMilliwatts)
			if brightness != ch.brightness {
				d.log.Debug().
					Uint8("target", ch.brightness).Uint8("capped", brightness).
					Uint32("budget_mw", d.opts.MaxPowerMilliwatts).
					Msg("power capped")
			}
		}

		if t := protocolTime(ch.count, ch.lanes); t > protocol {
			protocol = t
		}

		buildFrame(d.pxl, ch, brightness)
		if err := d.tr.Exchange(ch.bus, ch.device, d.pxl, nil); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}
	d.throttle.record(protocol)
	d.log.Debug().Dur("took", time.Since(start)).Dur("window", protocol+resetWait).Msg("render")
	return errors.Join(errs...)
}
