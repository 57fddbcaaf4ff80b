package pifacedigital

import (
	"errors"
	"fmt"
)

var (
	ErrorAddressBounds  = errors.New("Hardware address out of range")
	ErrorPinUnavailable = errors.New("Pin not available")
	ErrorNoHardware     = errors.New("No hardware detected")
	ErrorClosed         = errors.New("PiFace Digital was closed")
	ErrorNotArmed       = errors.New("Interrupt line not armed, call Init first")
)

// NoHardwareError is returned by Init when the IOCON read-back does not match.
// SPI has no acknowledgement so this is the only way to detect the board.
type NoHardwareError struct {
	Bus     SpiBus
	Address HardwareAddress
}

func (e *NoHardwareError) Error() string {
	return fmt.Sprintf("No hardware connected to %s at hardware address=%s", e.Bus, e.Address)
}

func (e *NoHardwareError) Is(target error) bool {
	return target == ErrorNoHardware
}

func assert(condition bool, reason string) {
	if !condition {
		panic(reason)
	}
}
