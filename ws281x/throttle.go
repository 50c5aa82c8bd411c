package ws281x

import "time"

const (
	// bitTime is the WS281x protocol bit period. One transmit byte carries
	// one bit at TargetFreq.
	bitTime = 1250 * time.Nanosecond

	// resetWait is the minimum idle time after a frame for the strip to
	// latch displayed colors.
	resetWait = 300 * time.Microsecond
)

// renderThrottle paces successive transmissions. The SPI exchange returns as
// soon as bytes are queued, not when the waveform has finished propagating
// down the strip, so back-to-back renders would corrupt in-flight frames.
// One throttle covers the whole device: the window is derived from the
// longest channel even when two channels of different lengths run over
// independent buses.
type renderThrottle struct {
	last time.Time
	wait time.Duration
}

// sleep blocks until the previously recorded window has elapsed. time.Since
// uses the monotonic clock, and time.Sleep with a non-positive duration
// returns immediately.
func (t *renderThrottle) sleep() {
	if t.last.IsZero() {
		return
	}
	time.Sleep(t.wait - time.Since(t.last))
}

// record stamps the end of a transmission and arms the next window.
func (t *renderThrottle) record(protocol time.Duration) {
	t.last = time.Now()
	t.wait = protocol + resetWait
}

// protocolTime is how long the strip needs to clock out one frame.
func protocolTime(count, lanes int) time.Duration {
	return time.Duration(count*lanes*8) * bitTime
}
