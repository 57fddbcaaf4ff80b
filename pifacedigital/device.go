// Package pifacedigital drives the PiFace Digital I/O board for the Raspberry
// Pi: an MCP23S17 on SPI with GPIOA wired to 8 outputs (two of them relays)
// and GPIOB wired to 8 inputs (four of them push buttons). The interrupt
// output of the expander is connected to GPIO25 of the Pi.
//
// Create a Device with New, call Init, then claim pins. Pins must be closed
// when no longer used, this also disables their interrupts.
package pifacedigital

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
	"github.com/BertoldVdb/go-pfd/slotset"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RegisterAccess reads and writes the expander's registers
type RegisterAccess interface {
	Read(reg mcp23s17.RegisterAddress) (uint8, error)
	Write(reg mcp23s17.RegisterAddress, data uint8) error
	GetBit(reg mcp23s17.RegisterAddress, bit uint8) (bool, error)
}

// InterruptLine is the host GPIO connected to the expander's interrupt output.
// PollInterrupt returns false when timeout expired, a negative timeout waits
// forever. With reset set, edges that happened before the call are dropped.
type InterruptLine interface {
	Arm() error
	PollInterrupt(reset bool, timeout time.Duration) (bool, error)
	Close() error
}

// Device is one PiFace Digital board. All pins claimed from it share its
// state, the backend is closed after the Device and all its pins are closed.
type Device struct {
	mutex sync.Mutex

	address HardwareAddress
	bus     SpiBus
	id      uuid.UUID
	log     *logrus.Entry

	regs    RegisterAccess
	line    InterruptLine
	closers []io.Closer

	inputs  *slotset.SlotSet
	outputs *slotset.SlotSet

	refs   int
	closed bool
}

type options struct {
	regs     RegisterAccess
	line     InterruptLine
	periph   bool
	gpioChip int
	gpioLine uint32
	log      *logrus.Entry
}

type Option func(*options)

// WithBackend uses the given collaborators instead of opening hardware
func WithBackend(regs RegisterAccess, line InterruptLine) Option {
	return func(o *options) {
		o.regs = regs
		o.line = line
	}
}

// WithPeriph opens SPI and the interrupt line through periph.io instead of
// spidev and the gpiochip character device
func WithPeriph() Option {
	return func(o *options) {
		o.periph = true
	}
}

// WithInterruptLine selects the host GPIO receiving the interrupt, the default
// is line 25 of gpiochip0
func WithInterruptLine(chip int, line uint32) Option {
	return func(o *options) {
		o.gpioChip = chip
		o.gpioLine = line
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a Device. It does not touch the registers, call Init for that.
func New(address HardwareAddress, bus SpiBus, chipSelect ChipSelect, clock uint32, mode SpiMode, opts ...Option) (*Device, error) {
	if address > MaxHardwareAddress {
		return nil, fmt.Errorf("%w: %d", ErrorAddressBounds, address)
	}

	o := options{
		gpioLine: 25,
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		address: address,
		bus:     bus,
		id:      uuid.New(),
		inputs:  slotset.New(8),
		outputs: slotset.New(8),
		refs:    1,
	}

	log := o.log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	d.log = log.WithFields(logrus.Fields{
		"prefix":   fmt.Sprintf("pfd%d", address),
		"instance": d.id.String(),
	})

	if o.regs != nil {
		d.regs = o.regs
		d.line = o.line
		if c, ok := o.regs.(io.Closer); ok {
			d.closers = append(d.closers, c)
		}
		return d, nil
	}

	var err error
	d.regs, d.line, d.closers, err = openHardware(&o, address, bus, chipSelect, clock, mode)
	if err != nil {
		return nil, err
	}

	d.log.WithFields(logrus.Fields{
		"bus":   bus,
		"cs":    chipSelect,
		"clock": clock,
		"mode":  mode,
	}).Debug("Opened PiFace Digital")

	return d, nil
}

func (d *Device) Address() HardwareAddress {
	return d.address
}

func (d *Device) Bus() SpiBus {
	return d.bus
}

// ID distinguishes Device values in the log
func (d *Device) ID() uuid.UUID {
	return d.id
}

var resetRegisterStates = []struct {
	reg  mcp23s17.RegisterAddress
	data uint8
}{
	{mcp23s17.IODIRA, 0x00},
	{mcp23s17.IODIRB, 0xFF},
	{mcp23s17.IPOLA, 0x00},
	{mcp23s17.IPOLB, 0x00},
	{mcp23s17.GPINTENA, 0x00},
	{mcp23s17.GPINTENB, 0x00},
	{mcp23s17.DEFVALA, 0x00},
	{mcp23s17.DEFVALB, 0x00},
	{mcp23s17.INTCONA, 0x00},
	{mcp23s17.INTCONB, 0x00},
	{mcp23s17.GPPUA, 0x00},
	{mcp23s17.GPPUB, 0xFF},
	{mcp23s17.GPIOA, 0x00},
}

// IOCON: BANK off, MIRROR off, SEQOP off, DISSLW slew rate controlled, HAEN on,
// ODR off, INTPOL active low
const defaultIOCON = mcp23s17.IOCONSeqop | mcp23s17.IOCONHaen

// Init puts the expander in the state the board expects: GPIOA outputs driven
// low, GPIOB inputs with pull-ups, all interrupts disabled. Only then is the
// interrupt line armed so that it cannot fire halfway. Skip Init only when
// another Device already initialised the same board.
func (d *Device) Init() error {
	d.log.Info("Initialise PiFace Digital registers to default values")

	d.mutex.Lock()
	err := d.regs.Write(mcp23s17.IOCON, defaultIOCON)
	var iocon uint8
	if err == nil {
		iocon, err = d.regs.Read(mcp23s17.IOCON)
	}
	d.mutex.Unlock()

	if err != nil {
		return err
	}
	if iocon != defaultIOCON {
		return &NoHardwareError{
			Bus:     d.bus,
			Address: d.address,
		}
	}

	if err := d.DebugCurrentState("Uninitialised MCP23S17 state:"); err != nil {
		return err
	}

	d.mutex.Lock()
	for _, m := range resetRegisterStates {
		if err := d.regs.Write(m.reg, m.data); err != nil {
			d.mutex.Unlock()
			return err
		}
		d.log.Debugf("New %s register state: 0x%02x", m.reg, m.data)
	}
	d.mutex.Unlock()

	if err := d.DebugCurrentState("Initialised MCP23S17 state:"); err != nil {
		return err
	}

	return d.line.Arm()
}

// DebugCurrentState logs all registers when the logger is at debug level.
// Note that reading INTCAP and GPIO clears a pending interrupt.
func (d *Device) DebugCurrentState(context string) error {
	if !d.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return nil
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	var state strings.Builder
	for reg := mcp23s17.RegisterAddress(0); reg < mcp23s17.RegisterCount; reg++ {
		data, err := d.regs.Read(reg)
		if err != nil {
			return err
		}
		fmt.Fprintf(&state, "%-10s : 0x%02x\n", reg, data)
	}

	d.log.Debugf("%s\n%s", context, state.String())
	return nil
}

// InterruptFlags returns INTFB, the inputs with a pending interrupt
func (d *Device) InterruptFlags() (uint8, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.regs.Read(mcp23s17.INTFB)
}

// InterruptCapture returns INTCAPB, the inputs latched at the last interrupt.
// Reading it clears the interrupt.
func (d *Device) InterruptCapture() (uint8, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.regs.Read(mcp23s17.INTCAPB)
}

// updateBit is a read-modify-write of one register bit. Call with mutex held.
func (d *Device) updateBit(reg mcp23s17.RegisterAddress, bit uint8, set bool) error {
	data, err := d.regs.Read(reg)
	if err != nil {
		return err
	}

	if set {
		data |= 1 << bit
	} else {
		data &^= 1 << bit
	}

	return d.regs.Write(reg, data)
}

func (d *Device) acquire(slots *slotset.SlotSet, id PinID) (*slotset.Slot, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return nil, ErrorClosed
	}

	slot, err := slots.Claim(int(id.Number))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorPinUnavailable, id)
	}

	d.refs++
	return slot, nil
}

func (d *Device) release(slot *slotset.Slot) error {
	slot.Release()
	return d.unref()
}

func (d *Device) unref() error {
	d.mutex.Lock()
	d.refs--
	last := d.refs == 0
	d.mutex.Unlock()

	if !last {
		return nil
	}

	d.log.Debug("Closing PiFace Digital backend")

	var result error
	if d.line != nil {
		result = d.line.Close()
	}
	for _, c := range d.closers {
		if err := c.Close(); err != nil && result == nil {
			result = err
		}
	}
	return result
}

// Close drops the Device handle. Pins that are still open keep working and
// the backend is closed with the last of them.
func (d *Device) Close() error {
	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		return ErrorClosed
	}
	d.closed = true
	d.mutex.Unlock()

	return d.unref()
}
