// Package ws281x drives WS281x/SK6812 addressable LED strips over a generic
// SPI peripheral, for hosts without a dedicated PWM/DMA LED engine.
//
// The pipeline turns packed 0xWWRRGGBB pixels into a precisely timed SPI
// bitstream: brightness scaling, a gamma/color-correction lookup, one wire
// byte per protocol bit at a 6.5 MHz clock, and a render throttle that keeps
// successive frames outside the strip's reset window. An optional power
// budget caps brightness before each frame is encoded.
//
// The package performs no internal locking; callers own the pixel buffers
// and must not mutate them while a render is in flight.
package ws281x
