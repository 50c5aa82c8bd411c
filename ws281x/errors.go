package ws281x

import "errors"

// Error kinds surfaced by the driver. They mirror the return states of the
// classic rpi_ws281x library; callers match them with errors.Is and translate
// to their own presentation.
var (
	// ErrOutOfMemory reports that a pixel buffer, gamma table or transmit
	// buffer could not be allocated within the driver's ceiling. The caller
	// may retry with a smaller configuration.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrIllegalConfiguration reports an invalid channel count, LED count or
	// device state. This is a caller bug and is never retried.
	ErrIllegalConfiguration = errors.New("illegal configuration")

	// ErrUnsupportedStripType reports a strip type that describes neither an
	// RGB nor an RGBW lane ordering.
	ErrUnsupportedStripType = errors.New("unsupported strip type")

	// ErrSPISetup reports that the underlying bus could not be configured.
	ErrSPISetup = errors.New("unable to initialize SPI")

	// ErrSPITransfer reports a failed byte exchange. The driver does not
	// retry; a corrupted mid-frame retry would visibly glitch the strip.
	ErrSPITransfer = errors.New("SPI transfer error")
)
