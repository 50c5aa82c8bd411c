package ws281x

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Transport is the synchronous byte-exchange layer between the encoder and
// the bus hardware. Configure fixes mode and clock once per channel at
// bring-up; Exchange moves one full frame per channel per render.
type Transport interface {
	Configure(bus, device int, mode spi.Mode, freq physic.Frequency) error
	// Exchange performs a full-duplex transfer of len(w) bytes, or
	// write-only when r is nil.
	Exchange(bus, device int, w, r []byte) error
	Close() error
}

type portKey struct {
	bus    int
	device int
}

type spiPort struct {
	port spi.PortCloser
	conn spi.Conn
}

// SPITransport drives spidev ports through periph.io. Callers must run
// host.Init before the first Configure so the port registry is populated.
type SPITransport struct {
	open  func(name string) (spi.PortCloser, error)
	ports map[portKey]*spiPort
}

// NewSPITransport returns a transport resolving ports via spireg.
func NewSPITransport() *SPITransport {
	return &SPITransport{
		open:  spireg.Open,
		ports: map[portKey]*spiPort{},
	}
}

// Configure opens SPI<bus>.<device> and fixes its mode and clock. A port may
// be reconfigured; the previous handle is released first.
func (t *SPITransport) Configure(bus, device int, mode spi.Mode, freq physic.Frequency) error {
	key := portKey{bus, device}
	if prev, ok := t.ports[key]; ok {
		_ = prev.port.Close()
		delete(t.ports, key)
	}

	name := fmt.Sprintf("SPI%d.%d", bus, device)
	port, err := t.open(name)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrSPISetup, err)
	}
	conn, err := port.Connect(freq, mode, 8)
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("%s: %w: %v", name, ErrSPISetup, err)
	}
	t.ports[key] = &spiPort{port: port, conn: conn}
	return nil
}

// Exchange transfers w (and fills r when non-nil) on a previously configured
// port.
func (t *SPITransport) Exchange(bus, device int, w, r []byte) error {
	p, ok := t.ports[portKey{bus, device}]
	if !ok {
		return fmt.Errorf("SPI%d.%d: %w: port not configured", bus, device, ErrSPISetup)
	}
	if err := p.conn.Tx(w, r); err != nil {
		return fmt.Errorf("SPI%d.%d: %w: %v", bus, device, ErrSPITransfer, err)
	}
	return nil
}

// Close releases every opened port. Safe to call more than once.
func (t *SPITransport) Close() error {
	var errs []error
	for key, p := range t.ports {
		if err := p.port.Close(); err != nil {
			errs = append(errs, fmt.Errorf("SPI%d.%d: %v", key.bus, key.device, err))
		}
		delete(t.ports, key)
	}
	return errors.Join(errs...)
}
