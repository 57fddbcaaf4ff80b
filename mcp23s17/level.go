package mcp23s17

// Level is the logic level of a pin
type Level uint8

const (
	Low Level = iota
	High
)

// LevelFromBit returns High when bit is set in data
func LevelFromBit(data uint8, bit uint8) Level {
	if data&(1<<bit) != 0 {
		return High
	}
	return Low
}

func (l Level) String() string {
	if l == High {
		return "High"
	}
	return "Low"
}

// Not returns the opposite level
func (l Level) Not() Level {
	if l == High {
		return Low
	}
	return High
}

// InterruptMode selects what causes a pin to raise an interrupt
type InterruptMode uint8

const (
	InterruptNone InterruptMode = iota
	InterruptRisingEdge
	InterruptFallingEdge
	InterruptBothEdges
)

func (m InterruptMode) String() string {
	switch m {
	case InterruptRisingEdge:
		return "RisingEdge"
	case InterruptFallingEdge:
		return "FallingEdge"
	case InterruptBothEdges:
		return "BothEdges"
	}
	return "None"
}
