package pifacedigital

import (
	"fmt"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
)

// HardwareAddress is the two bit address set with JP1 (A0) and JP2 (A1). The
// MCP23S17 has a third address bit but the board ties it low.
type HardwareAddress uint8

const MaxHardwareAddress = 3

func NewHardwareAddress(address uint8) (HardwareAddress, error) {
	if address > MaxHardwareAddress {
		return 0, fmt.Errorf("%w: %d", ErrorAddressBounds, address)
	}
	return HardwareAddress(address), nil
}

func (a HardwareAddress) String() string {
	return fmt.Sprintf("%d", uint8(a))
}

type SpiBus uint8

const (
	Spi0 SpiBus = iota
	Spi1
	Spi2
	Spi3
	Spi4
	Spi5
	Spi6
)

func (b SpiBus) String() string {
	return fmt.Sprintf("Spi%d", uint8(b))
}

type ChipSelect uint8

const (
	Cs0 ChipSelect = iota
	Cs1
	Cs2
	Cs3
)

func (c ChipSelect) String() string {
	return fmt.Sprintf("Cs%d", uint8(c))
}

// SpiMode is the clock polarity and phase, the MCP23S17 supports 0 and 3
type SpiMode uint8

const (
	Mode0 SpiMode = iota
	Mode1
	Mode2
	Mode3
)

func (m SpiMode) String() string {
	return fmt.Sprintf("Mode%d", uint8(m))
}

type Level = mcp23s17.Level

const (
	Low  = mcp23s17.Low
	High = mcp23s17.High
)

type InterruptMode = mcp23s17.InterruptMode

const (
	InterruptNone        = mcp23s17.InterruptNone
	InterruptRisingEdge  = mcp23s17.InterruptRisingEdge
	InterruptFallingEdge = mcp23s17.InterruptFallingEdge
	InterruptBothEdges   = mcp23s17.InterruptBothEdges
)
