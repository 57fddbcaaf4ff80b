// Package pfdconfig selects a PiFace Digital board from command line flags
package pfdconfig

import (
	"errors"
	"flag"
	"fmt"

	"github.com/BertoldVdb/go-pfd/pifacedigital"
	"github.com/sirupsen/logrus"
)

var (
	ErrorBackend = errors.New("Unknown backend")
	ErrorRange   = errors.New("Flag out of range")
)

const (
	BackendSpidev = "spidev"
	BackendPeriph = "periph"
)

// Config describes how to reach a board
type Config struct {
	Address pifacedigital.HardwareAddress
	Bus     pifacedigital.SpiBus
	CS      pifacedigital.ChipSelect
	Clock   uint32
	Mode    pifacedigital.SpiMode
	Backend string

	InterruptChip int
	InterruptLine uint32
}

// Default is the board with both jumpers open on /dev/spidev0.0
func Default() Config {
	return Config{
		Clock:         100000,
		Backend:       BackendSpidev,
		InterruptLine: 25,
	}
}

type params struct {
	address *uint
	bus     *uint
	cs      *uint
	clock   *uint
	mode    *uint
	backend *string
	intchip *int
	intline *uint
}

var cmdline *params

func register(fs *flag.FlagSet) *params {
	def := Default()
	return &params{
		address: fs.Uint("address", uint(def.Address), "Hardware address of the board set with JP1/JP2 (0-3)"),
		bus:     fs.Uint("bus", uint(def.Bus), "SPI bus number"),
		cs:      fs.Uint("cs", uint(def.CS), "SPI chip select"),
		clock:   fs.Uint("clock", uint(def.Clock), "SPI clock in Hz"),
		mode:    fs.Uint("mode", uint(def.Mode), "SPI mode (0-3)"),
		backend: fs.String("backend", def.Backend, "Hardware access: spidev or periph"),
		intchip: fs.Int("intchip", def.InterruptChip, "gpiochip carrying the interrupt line"),
		intline: fs.Uint("intline", uint(def.InterruptLine), "GPIO receiving the interrupt output"),
	}
}

// InitParam registers the flags on the default command line
func InitParam() {
	cmdline = register(flag.CommandLine)
}

func (p *params) config() (Config, error) {
	c := Config{
		Clock:         uint32(*p.clock),
		Backend:       *p.backend,
		InterruptChip: *p.intchip,
		InterruptLine: uint32(*p.intline),
	}

	if *p.address > pifacedigital.MaxHardwareAddress {
		return c, fmt.Errorf("%w: %w", ErrorRange, pifacedigital.ErrorAddressBounds)
	}
	c.Address = pifacedigital.HardwareAddress(*p.address)

	if *p.bus > uint(pifacedigital.Spi6) {
		return c, fmt.Errorf("%w: bus %d", ErrorRange, *p.bus)
	}
	c.Bus = pifacedigital.SpiBus(*p.bus)

	if *p.cs > uint(pifacedigital.Cs3) {
		return c, fmt.Errorf("%w: cs %d", ErrorRange, *p.cs)
	}
	c.CS = pifacedigital.ChipSelect(*p.cs)

	if *p.mode > uint(pifacedigital.Mode3) {
		return c, fmt.Errorf("%w: mode %d", ErrorRange, *p.mode)
	}
	c.Mode = pifacedigital.SpiMode(*p.mode)

	if c.Backend != BackendSpidev && c.Backend != BackendPeriph {
		return c, fmt.Errorf("%w: %s", ErrorBackend, c.Backend)
	}

	return c, nil
}

// Get returns the configuration given on the command line, or the default
// when InitParam was not called. Call after flag.Parse.
func Get() (Config, error) {
	if cmdline == nil {
		return Default(), nil
	}
	return cmdline.config()
}

// Options translates the backend choice into options for pifacedigital.New
func (c Config) Options(log *logrus.Entry) []pifacedigital.Option {
	opts := []pifacedigital.Option{
		pifacedigital.WithInterruptLine(c.InterruptChip, c.InterruptLine),
	}
	if c.Backend == BackendPeriph {
		opts = append(opts, pifacedigital.WithPeriph())
	}
	if log != nil {
		opts = append(opts, pifacedigital.WithLogger(log))
	}
	return opts
}

// Open creates and initialises the Device
func (c Config) Open(log *logrus.Entry, extra ...pifacedigital.Option) (*pifacedigital.Device, error) {
	d, err := pifacedigital.New(c.Address, c.Bus, c.CS, c.Clock, c.Mode, append(c.Options(log), extra...)...)
	if err != nil {
		return nil, err
	}

	if err := d.Init(); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}
