package pifacedigital

import (
	"fmt"
	"time"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
	"github.com/sirupsen/logrus"
)

// NoTimeout makes the poll functions wait forever
const NoTimeout time.Duration = -1

// Interrupt is an input that caused an interrupt with its captured level
type Interrupt struct {
	Pin   *InputPin
	Level Level
}

// snapshot reads INTFB and then INTCAPB. Together these reads clear the
// interrupt latch for all pins, so they happen once per edge and nothing else
// may access the chip in between.
func (d *Device) snapshot() (uint8, uint8, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	flags, err := d.regs.Read(mcp23s17.INTFB)
	if err != nil {
		return 0, 0, err
	}

	capture, err := d.regs.Read(mcp23s17.INTCAPB)
	if err != nil {
		return 0, 0, err
	}

	return flags, capture, nil
}

func (d *Device) waitEdge(reset bool, timeout time.Duration) (bool, error) {
	edge, err := d.line.PollInterrupt(reset, timeout)
	if err != nil {
		return false, fmt.Errorf("Polling interrupt line failed: %w", err)
	}
	return edge, nil
}

// PollInterrupt waits until this pin raises an interrupt and returns the level
// captured by the chip at that moment. It returns false when timeout expired.
// With reset set, edges that happened before the call are ignored.
//
// The interrupt line is shared by all inputs. When another input caused the
// edge, reading the flags has already cleared its interrupt: it is lost for
// whoever waits on it. This is logged and the wait continues. Use
// Device.PollInterrupts to wait on several pins at once.
//
// Calling PollInterrupt without interrupts enabled panics.
func (p *InputPin) PollInterrupt(reset bool, timeout time.Duration) (Level, bool, error) {
	p.checkOpen()
	assert(p.interruptsEnabled, fmt.Sprintf("InputPin(%d): No interrupts enabled before trying to poll", p.id.Number))

	d := p.device
	n := p.id.Number

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		remaining := NoTimeout
		if timeout >= 0 {
			remaining = time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
		}

		edge, err := d.waitEdge(reset, remaining)
		if err != nil || !edge {
			return Low, false, err
		}

		flags, capture, err := d.snapshot()
		if err != nil {
			return Low, false, err
		}

		if flags&(1<<n) != 0 {
			level := mcp23s17.LevelFromBit(capture, n)
			d.log.Infof("Received interrupt on pin %d level %s", n, level)
			return level, true, nil
		}

		d.log.WithFields(logrus.Fields{
			"flags":   fmt.Sprintf("0x%02x", flags),
			"capture": fmt.Sprintf("0x%02x", capture),
		}).Warnf("Interrupt was not on pin %d - will poll again but interrupt will have been lost!", n)
	}
}

// PollInterrupts waits for an interrupt on the line and returns those of pins
// that caused it, in the order of pins, each pin at most once. The result may
// be empty when the edge came from a pin not in pins; a warning is logged in
// that case. It returns false when timeout expired.
//
// All pins must have interrupts enabled and belong to d, otherwise it panics.
func (d *Device) PollInterrupts(pins []*InputPin, reset bool, timeout time.Duration) ([]Interrupt, bool, error) {
	numbers := make([]uint8, len(pins))
	for i, pin := range pins {
		pin.checkOpen()
		assert(pin.device == d, fmt.Sprintf("InputPin(%d) included in poll belongs to another device", pin.id.Number))
		assert(pin.interruptsEnabled, fmt.Sprintf("InputPin(%d) included in poll does not have interrupts enabled!", pin.id.Number))
		numbers[i] = pin.id.Number
	}

	edge, err := d.waitEdge(reset, timeout)
	if err != nil || !edge {
		return nil, false, err
	}

	flags, capture, err := d.snapshot()
	if err != nil {
		return nil, false, err
	}

	result := make([]Interrupt, 0, len(pins))
	var reported uint8
	for _, pin := range pins {
		bit := uint8(1) << pin.id.Number
		if flags&bit == 0 || reported&bit != 0 {
			continue
		}
		reported |= bit

		level := mcp23s17.LevelFromBit(capture, pin.id.Number)
		d.log.Debugf("Active interrupt on pin %d level %s", pin.id.Number, level)
		result = append(result, Interrupt{Pin: pin, Level: level})
	}

	if len(result) == 0 {
		d.log.WithField("flags", fmt.Sprintf("0x%02x", flags)).Warnf("No interrupts on any of pins %v - interrupt will have been lost!", numbers)
	}

	return result, true, nil
}
