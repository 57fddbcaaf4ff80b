// Package periphio provides the SPI transport and the interrupt line on top of
// periph.io, as an alternative to the linux-pio packages.
package periphio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	ErrorNoPin    = errors.New("GPIO pin not found")
	ErrorNotArmed = errors.New("Interrupt line not armed")
)

// maxFlush bounds how many stale edges are discarded on reset
const maxFlush = 64

var initOnce sync.Once
var initErr error

// Init registers the periph host drivers. It is safe to call many times.
func Init() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

// SPI is a Transport backed by a periph.io SPI port
type SPI struct {
	mutex sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
}

func OpenSPI(bus int, chipSelect int, frequency uint32, mode uint8) (*SPI, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	port, err := spireg.Open(fmt.Sprintf("/dev/spidev%d.%d", bus, chipSelect))
	if err != nil {
		return nil, err
	}

	conn, err := port.Connect(physic.Frequency(frequency)*physic.Hertz, spi.Mode(mode&3), 8)
	if err != nil {
		port.Close()
		return nil, err
	}

	return &SPI{port: port, conn: conn}, nil
}

func (s *SPI) Transfer(writeBuf []byte, readBuf []byte) error {
	if readBuf == nil {
		readBuf = make([]byte, len(writeBuf))
	}
	if len(readBuf) != len(writeBuf) {
		return errors.New("Buffer length does not match")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.conn.Tx(writeBuf, readBuf)
}

func (s *SPI) Close() error {
	return s.port.Close()
}

// Line is an edge triggered input, for example GPIO25 for the PiFace Digital
type Line struct {
	pin   gpio.PinIO
	armed bool
}

func OpenLine(name string) (*Line, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrorNoPin, name)
	}

	return &Line{pin: p}, nil
}

// Arm enables falling edge detection with the pull-up on, the MCP23S17
// interrupt output being active low.
func (l *Line) Arm() error {
	if err := l.pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return err
	}
	l.armed = true
	return nil
}

func (l *Line) PollInterrupt(reset bool, timeout time.Duration) (bool, error) {
	if !l.armed {
		return false, ErrorNotArmed
	}

	if reset {
		for i := 0; i < maxFlush && l.pin.WaitForEdge(0); i++ {
		}
	}

	if timeout < 0 {
		timeout = -1
	}
	return l.pin.WaitForEdge(timeout), nil
}

func (l *Line) Close() error {
	l.armed = false
	return l.pin.Halt()
}
