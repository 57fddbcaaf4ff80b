package mcp23s17

import "fmt"

// RegisterAddress is a register of the MCP23S17 with IOCON.BANK=0 addressing
type RegisterAddress uint8

const (
	IODIRA RegisterAddress = iota
	IODIRB
	IPOLA
	IPOLB
	GPINTENA
	GPINTENB
	DEFVALA
	DEFVALB
	INTCONA
	INTCONB
	IOCON
	IOCON2
	GPPUA
	GPPUB
	INTFA
	INTFB
	INTCAPA
	INTCAPB
	GPIOA
	GPIOB
	OLATA
	OLATB
)

// RegisterCount is the number of addressable registers
const RegisterCount = 22

var registerNames = [RegisterCount]string{
	"IODIRA", "IODIRB", "IPOLA", "IPOLB", "GPINTENA", "GPINTENB",
	"DEFVALA", "DEFVALB", "INTCONA", "INTCONB", "IOCON", "IOCON2",
	"GPPUA", "GPPUB", "INTFA", "INTFB", "INTCAPA", "INTCAPB",
	"GPIOA", "GPIOB", "OLATA", "OLATB",
}

func (r RegisterAddress) String() string {
	if r.Valid() {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(0x%02x)", uint8(r))
}

func (r RegisterAddress) Valid() bool {
	return r < RegisterCount
}

// Bits of the IOCON register. A zero bit selects the opposite setting.
const (
	IOCONBank   uint8 = 0x80 // Registers of one port in separate banks
	IOCONMirror uint8 = 0x40 // INTA and INTB connected
	IOCONSeqop  uint8 = 0x20 // Sequential operation disabled
	IOCONDisslw uint8 = 0x10 // Slew rate control disabled
	IOCONHaen   uint8 = 0x08 // Hardware address pins enabled
	IOCONOdr    uint8 = 0x04 // Open drain interrupt output
	IOCONIntpol uint8 = 0x02 // Interrupt active high
)

// Port selects one of the two 8 bit ports
type Port uint8

const (
	GpioA Port = iota
	GpioB
)

func (p Port) String() string {
	if p == GpioA {
		return "GPIOA"
	}
	return "GPIOB"
}

// Register returns the port's variant of a register given its A variant
func (p Port) Register(a RegisterAddress) RegisterAddress {
	if p == GpioB && a != IOCON {
		return a + 1
	}
	return a
}
