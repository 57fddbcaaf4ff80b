package pifacedigital

import (
	"fmt"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
	"github.com/BertoldVdb/go-pfd/slotset"
)

// PinID identifies a pin independently of the handle holding it
type PinID struct {
	Port   mcp23s17.Port
	Number uint8
}

func (p PinID) String() string {
	return fmt.Sprintf("%s.%d", p.Port, p.Number)
}

// InputPin is one of the inputs on GPIOB
type InputPin struct {
	id     PinID
	device *Device
	slot   *slotset.Slot
	closed bool

	interruptsEnabled bool
	mode              InterruptMode
}

// OutputPin is one of the outputs on GPIOA
type OutputPin struct {
	id     PinID
	device *Device
	slot   *slotset.Slot
	closed bool
}

// ClaimInput returns the input pin number configured as a high impedance
// input with interrupts disabled. It fails with ErrorPinUnavailable when
// number is above 7 or the pin is held by another handle.
func (d *Device) ClaimInput(number uint8) (*InputPin, error) {
	return d.claimInput(number, false)
}

// ClaimPullUpInput is ClaimInput with the pull-up resistor enabled
func (d *Device) ClaimPullUpInput(number uint8) (*InputPin, error) {
	return d.claimInput(number, true)
}

func (d *Device) claimInput(number uint8, pullUp bool) (*InputPin, error) {
	id := PinID{Port: mcp23s17.GpioB, Number: number}

	slot, err := d.acquire(d.inputs, id)
	if err != nil {
		return nil, err
	}

	d.mutex.Lock()
	err = d.updateBit(mcp23s17.IODIRB, number, true)
	if err == nil {
		err = d.updateBit(mcp23s17.GPPUB, number, pullUp)
	}
	d.mutex.Unlock()

	if err != nil {
		d.release(slot)
		return nil, err
	}

	return &InputPin{
		id:     id,
		device: d,
		slot:   slot,
	}, nil
}

// ClaimOutput returns the output pin number without changing its level
func (d *Device) ClaimOutput(number uint8) (*OutputPin, error) {
	return d.claimOutput(number, nil)
}

// ClaimOutputLevel returns the output pin number driven to level
func (d *Device) ClaimOutputLevel(number uint8, level Level) (*OutputPin, error) {
	return d.claimOutput(number, &level)
}

func (d *Device) claimOutput(number uint8, level *Level) (*OutputPin, error) {
	id := PinID{Port: mcp23s17.GpioA, Number: number}

	slot, err := d.acquire(d.outputs, id)
	if err != nil {
		return nil, err
	}

	d.mutex.Lock()
	if level != nil {
		/* Latch the level before turning on the driver */
		err = d.updateBit(mcp23s17.OLATA, number, *level == High)
	}
	if err == nil {
		err = d.updateBit(mcp23s17.IODIRA, number, false)
	}
	d.mutex.Unlock()

	if err != nil {
		d.release(slot)
		return nil, err
	}

	return &OutputPin{
		id:     id,
		device: d,
		slot:   slot,
	}, nil
}

func (p *InputPin) checkOpen() {
	assert(!p.closed, fmt.Sprintf("InputPin(%d) used after Close", p.id.Number))
}

func (p *InputPin) ID() PinID {
	return p.id
}

func (p *InputPin) Number() uint8 {
	return p.id.Number
}

func (p *InputPin) InterruptsEnabled() bool {
	return p.interruptsEnabled
}

func (p *InputPin) Mode() InterruptMode {
	return p.mode
}

func (p *InputPin) Read() (Level, error) {
	p.checkOpen()

	p.device.mutex.Lock()
	defer p.device.mutex.Unlock()

	set, err := p.device.regs.GetBit(mcp23s17.GPIOB, p.id.Number)
	if err != nil || !set {
		return Low, err
	}
	return High, nil
}

func (p *InputPin) IsLow() (bool, error) {
	level, err := p.Read()
	return level == Low, err
}

func (p *InputPin) IsHigh() (bool, error) {
	level, err := p.Read()
	return level == High, err
}

// SetInterrupt enables interrupts on the pin. Use InterruptBothEdges when
// several pins share the line: the single edge modes compare against DEFVAL
// and keep interrupting for as long as the level is held.
func (p *InputPin) SetInterrupt(mode InterruptMode) error {
	p.checkOpen()

	if mode == InterruptNone {
		return p.ClearInterrupt()
	}
	if mode > InterruptBothEdges {
		return fmt.Errorf("Invalid interrupt mode %d", mode)
	}

	/* Set first, so that Close cleans up after a partial failure */
	p.interruptsEnabled = true
	p.mode = mode

	d := p.device
	n := p.id.Number

	d.mutex.Lock()
	defer d.mutex.Unlock()

	var err error
	switch mode {
	case InterruptBothEdges:
		err = d.updateBit(mcp23s17.INTCONB, n, false)
	case InterruptRisingEdge:
		err = d.updateBit(mcp23s17.DEFVALB, n, false)
		if err == nil {
			err = d.updateBit(mcp23s17.INTCONB, n, true)
		}
	case InterruptFallingEdge:
		err = d.updateBit(mcp23s17.DEFVALB, n, true)
		if err == nil {
			err = d.updateBit(mcp23s17.INTCONB, n, true)
		}
	}
	if err != nil {
		return err
	}

	return d.updateBit(mcp23s17.GPINTENB, n, true)
}

// ClearInterrupt disables interrupts on the pin. It may be called repeatedly.
func (p *InputPin) ClearInterrupt() error {
	p.checkOpen()

	p.interruptsEnabled = false
	p.mode = InterruptNone

	p.device.mutex.Lock()
	defer p.device.mutex.Unlock()

	return p.device.updateBit(mcp23s17.GPINTENB, p.id.Number, false)
}

// Close disables interrupts if they are enabled and gives the pin back to the
// Device. Failing to disable interrupts here panics: the chip is unreachable
// and would keep interrupting for a pin nobody owns.
func (p *InputPin) Close() {
	p.checkOpen()

	if p.interruptsEnabled {
		if err := p.ClearInterrupt(); err != nil {
			panic(fmt.Sprintf("InputPin(%d) failed to clear interrupts on Close: %v", p.id.Number, err))
		}
	}

	p.closed = true
	if err := p.device.release(p.slot); err != nil {
		p.device.log.WithError(err).Warn("Closing backend failed")
	}
}

func (p *OutputPin) checkOpen() {
	assert(!p.closed, fmt.Sprintf("OutputPin(%d) used after Close", p.id.Number))
}

func (p *OutputPin) ID() PinID {
	return p.id
}

func (p *OutputPin) Number() uint8 {
	return p.id.Number
}

// Read returns the level present on the pin
func (p *OutputPin) Read() (Level, error) {
	p.checkOpen()

	p.device.mutex.Lock()
	defer p.device.mutex.Unlock()

	set, err := p.device.regs.GetBit(mcp23s17.GPIOA, p.id.Number)
	if err != nil || !set {
		return Low, err
	}
	return High, nil
}

func (p *OutputPin) IsLow() (bool, error) {
	level, err := p.Read()
	return level == Low, err
}

func (p *OutputPin) IsHigh() (bool, error) {
	level, err := p.Read()
	return level == High, err
}

func (p *OutputPin) Write(level Level) error {
	p.checkOpen()

	p.device.mutex.Lock()
	defer p.device.mutex.Unlock()

	return p.device.updateBit(mcp23s17.OLATA, p.id.Number, level == High)
}

func (p *OutputPin) SetHigh() error {
	return p.Write(High)
}

func (p *OutputPin) SetLow() error {
	return p.Write(Low)
}

func (p *OutputPin) Close() {
	p.checkOpen()

	p.closed = true
	if err := p.device.release(p.slot); err != nil {
		p.device.log.WithError(err).Warn("Closing backend failed")
	}
}
