package mcp23s17

import (
	"errors"
	"fmt"
)

// Transport performs a full duplex transfer on the bus. readBuf may be nil.
type Transport interface {
	Transfer(writeBuf []byte, readBuf []byte) error
}

// MaxHardwareAddress is the highest address selectable with A2..A0
const MaxHardwareAddress = 7

const (
	opcodeWrite uint8 = 0x40
	opcodeRead  uint8 = 0x41
)

var (
	ErrorAddressRange  = errors.New("Hardware address out of range")
	ErrorRegisterRange = errors.New("Register address out of range")
	ErrorBitRange      = errors.New("Bit index out of range")
)

// Chip gives byte level access to the registers of one MCP23S17. The chip does
// not serialise read-modify-write sequences, callers must do that.
type Chip struct {
	transport Transport
	address   uint8
}

func New(transport Transport, address uint8) (*Chip, error) {
	if address > MaxHardwareAddress {
		return nil, fmt.Errorf("%w: %d", ErrorAddressRange, address)
	}

	return &Chip{
		transport: transport,
		address:   address,
	}, nil
}

func (c *Chip) HardwareAddress() uint8 {
	return c.address
}

func (c *Chip) opcode(base uint8) uint8 {
	return base | c.address<<1
}

func (c *Chip) Read(reg RegisterAddress) (uint8, error) {
	if !reg.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrorRegisterRange, reg)
	}

	write := []byte{c.opcode(opcodeRead), uint8(reg), 0}
	read := make([]byte, len(write))
	if err := c.transport.Transfer(write, read); err != nil {
		return 0, fmt.Errorf("Reading %s failed: %w", reg, err)
	}

	return read[2], nil
}

func (c *Chip) Write(reg RegisterAddress, data uint8) error {
	if !reg.Valid() {
		return fmt.Errorf("%w: %s", ErrorRegisterRange, reg)
	}

	write := []byte{c.opcode(opcodeWrite), uint8(reg), data}
	if err := c.transport.Transfer(write, nil); err != nil {
		return fmt.Errorf("Writing %s failed: %w", reg, err)
	}

	return nil
}

func (c *Chip) GetBit(reg RegisterAddress, bit uint8) (bool, error) {
	if bit > 7 {
		return false, fmt.Errorf("%w: %d", ErrorBitRange, bit)
	}

	data, err := c.Read(reg)
	if err != nil {
		return false, err
	}

	return data&(1<<bit) != 0, nil
}
