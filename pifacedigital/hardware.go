package pifacedigital

import (
	"fmt"
	"io"
	"time"

	"github.com/BertoldVdb/go-pfd/linux-pio/gpio"
	"github.com/BertoldVdb/go-pfd/linux-pio/spi"
	"github.com/BertoldVdb/go-pfd/mcp23s17"
	"github.com/BertoldVdb/go-pfd/periphio"
)

const consumerLabel = "pifacedigital"

func openHardware(o *options, address HardwareAddress, bus SpiBus, chipSelect ChipSelect, clock uint32, mode SpiMode) (RegisterAccess, InterruptLine, []io.Closer, error) {
	var transport mcp23s17.Transport
	var closer io.Closer

	if o.periph {
		dev, err := periphio.OpenSPI(int(bus), int(chipSelect), clock, uint8(mode))
		if err != nil {
			return nil, nil, nil, err
		}
		transport, closer = dev, dev
	} else {
		dev, err := spi.OpenDevice(int(bus), int(chipSelect))
		if err != nil {
			return nil, nil, nil, err
		}
		if err := dev.Configure(spi.Mode(mode), clock); err != nil {
			dev.Close()
			return nil, nil, nil, err
		}
		transport, closer = dev, dev
	}

	chip, err := mcp23s17.New(transport, uint8(address))
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}

	var line InterruptLine
	if o.periph {
		line, err = periphio.OpenLine(fmt.Sprintf("GPIO%d", o.gpioLine))
	} else {
		line, err = openChardevLine(o.gpioChip, o.gpioLine)
	}
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}

	return chip, line, []io.Closer{closer}, nil
}

// chardevLine is an InterruptLine on the gpiochip character device. The line
// is only requested from the kernel when armed.
type chardevLine struct {
	chip   *gpio.Chip
	offset uint32
	events *gpio.EventLine
}

func openChardevLine(chipID int, offset uint32) (*chardevLine, error) {
	chip, err := gpio.OpenChip(chipID)
	if err != nil {
		return nil, err
	}

	return &chardevLine{
		chip:   chip,
		offset: offset,
	}, nil
}

func (c *chardevLine) Arm() error {
	if c.events != nil {
		return nil
	}

	events, err := c.chip.WatchLine(consumerLabel, 0, gpio.EventFallingEdge, gpio.Line{Offset: c.offset})
	if err != nil {
		return err
	}

	c.events = events
	return nil
}

func (c *chardevLine) PollInterrupt(reset bool, timeout time.Duration) (bool, error) {
	if c.events == nil {
		return false, ErrorNotArmed
	}

	_, ok, err := c.events.Wait(reset, timeout)
	return ok, err
}

func (c *chardevLine) Close() error {
	var result error
	if c.events != nil {
		result = c.events.Close()
		c.events = nil
	}
	if err := c.chip.Close(); err != nil && result == nil {
		result = err
	}
	return result
}
