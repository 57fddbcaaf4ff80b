// Package mockspi simulates the MCP23S17 register file and the interrupt line
// of a PiFace Digital so that the driver can be exercised without hardware.
//
// Reading INTCAPx or GPIOx clears INTFx, like the chip clears its interrupt
// condition. Writing GPIOx also writes OLATx, and OLATx bits of pins configured
// as outputs in IODIRx appear on GPIOx.
package mockspi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
)

var (
	ErrorNotArmed = errors.New("Interrupt line not armed")
	ErrorClosed   = errors.New("Mock closed")
)

// Chip is a simulated register file
type Chip struct {
	sync.Mutex

	// Absent makes the chip behave as if nothing is connected to the bus:
	// writes are lost and reads return zero.
	Absent bool

	regs   [mcp23s17.RegisterCount]uint8
	reads  [mcp23s17.RegisterCount]int
	writes [mcp23s17.RegisterCount]int
	fail   map[mcp23s17.RegisterAddress]error

	line *Line
}

func New() *Chip {
	c := &Chip{
		fail: make(map[mcp23s17.RegisterAddress]error),
	}

	// Power on reset: all pins inputs
	c.regs[mcp23s17.IODIRA] = 0xFF
	c.regs[mcp23s17.IODIRB] = 0xFF

	c.line = &Line{
		chip:  c,
		edges: make(chan (struct{}), 64),
	}
	return c
}

// Line returns the interrupt line attached to the chip
func (c *Chip) Line() *Line {
	return c.line
}

func (c *Chip) checkRegister(reg mcp23s17.RegisterAddress) error {
	if !reg.Valid() {
		return fmt.Errorf("%w: %s", mcp23s17.ErrorRegisterRange, reg)
	}
	if err, ok := c.fail[reg]; ok {
		return err
	}
	return nil
}

func (c *Chip) Read(reg mcp23s17.RegisterAddress) (uint8, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.checkRegister(reg); err != nil {
		return 0, err
	}

	c.reads[reg]++
	if c.Absent {
		return 0, nil
	}

	data := c.regs[reg]
	switch reg {
	case mcp23s17.INTCAPA, mcp23s17.GPIOA:
		c.regs[mcp23s17.INTFA] = 0
	case mcp23s17.INTCAPB, mcp23s17.GPIOB:
		c.regs[mcp23s17.INTFB] = 0
	}

	return data, nil
}

func (c *Chip) Write(reg mcp23s17.RegisterAddress, data uint8) error {
	c.Lock()
	defer c.Unlock()

	if err := c.checkRegister(reg); err != nil {
		return err
	}

	c.writes[reg]++
	if c.Absent {
		return nil
	}

	switch reg {
	case mcp23s17.INTFA, mcp23s17.INTFB, mcp23s17.INTCAPA, mcp23s17.INTCAPB:
		// Read only
	case mcp23s17.GPIOA, mcp23s17.OLATA:
		c.regs[mcp23s17.OLATA] = data
		c.driveOutputs(mcp23s17.IODIRA, mcp23s17.GPIOA, data)
	case mcp23s17.GPIOB, mcp23s17.OLATB:
		c.regs[mcp23s17.OLATB] = data
		c.driveOutputs(mcp23s17.IODIRB, mcp23s17.GPIOB, data)
	default:
		c.regs[reg] = data
	}

	return nil
}

func (c *Chip) driveOutputs(iodir mcp23s17.RegisterAddress, gpio mcp23s17.RegisterAddress, data uint8) {
	outputs := ^c.regs[iodir]
	c.regs[gpio] = c.regs[gpio]&^outputs | data&outputs
}

func (c *Chip) GetBit(reg mcp23s17.RegisterAddress, bit uint8) (bool, error) {
	if bit > 7 {
		return false, fmt.Errorf("%w: %d", mcp23s17.ErrorBitRange, bit)
	}

	data, err := c.Read(reg)
	if err != nil {
		return false, err
	}
	return data&(1<<bit) != 0, nil
}

// Register returns the content of reg and how often it was read and written
func (c *Chip) Register(reg mcp23s17.RegisterAddress) (uint8, int, int) {
	c.Lock()
	defer c.Unlock()

	return c.regs[reg], c.reads[reg], c.writes[reg]
}

// SetRegister changes reg without counting an access or side effects
func (c *Chip) SetRegister(reg mcp23s17.RegisterAddress, data uint8) {
	c.Lock()
	defer c.Unlock()

	c.regs[reg] = data
}

// Fail makes every access to reg return err until cleared with a nil err
func (c *Chip) Fail(reg mcp23s17.RegisterAddress, err error) {
	c.Lock()
	defer c.Unlock()

	if err == nil {
		delete(c.fail, reg)
	} else {
		c.fail[reg] = err
	}
}

// Interrupt latches an interrupt on port: flags into INTFx, capture into INTCAPx
// and GPIOx, then asserts the interrupt line once.
func (c *Chip) Interrupt(port mcp23s17.Port, flags uint8, capture uint8) {
	c.Lock()
	c.regs[port.Register(mcp23s17.INTFA)] = flags
	c.regs[port.Register(mcp23s17.INTCAPA)] = capture
	c.regs[port.Register(mcp23s17.GPIOA)] = capture
	c.Unlock()

	c.line.Trigger()
}

// Line simulates the host GPIO connected to the chip's interrupt output
type Line struct {
	mutex  sync.Mutex
	chip   *Chip
	armed  bool
	closed bool
	polls  int

	// ArmHook is called from Arm, before the line is armed
	ArmHook func()

	edges chan (struct{})
}

func (l *Line) Arm() error {
	if l.ArmHook != nil {
		l.ArmHook()
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return ErrorClosed
	}
	l.armed = true
	return nil
}

func (l *Line) Armed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.armed
}

func (l *Line) Closed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.closed
}

// Polls returns how many times PollInterrupt was called
func (l *Line) Polls() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.polls
}

// Trigger queues one edge without touching the registers
func (l *Line) Trigger() {
	select {
	case l.edges <- struct{}{}:
	default:
		panic("Too many pending edges")
	}
}

func (l *Line) PollInterrupt(reset bool, timeout time.Duration) (bool, error) {
	l.mutex.Lock()
	l.polls++
	armed := l.armed
	closed := l.closed
	l.mutex.Unlock()

	if closed {
		return false, ErrorClosed
	}
	if !armed {
		return false, ErrorNotArmed
	}

	if reset {
	drain:
		for {
			select {
			case <-l.edges:
			default:
				break drain
			}
		}
	}

	select {
	case <-l.edges:
		return true, nil
	default:
	}

	if timeout < 0 {
		<-l.edges
		return true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.edges:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

func (l *Line) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return ErrorClosed
	}
	l.closed = true
	l.armed = false
	return nil
}
