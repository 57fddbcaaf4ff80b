package gpio

import (
	"os"
	"sync"
)

type Chip struct {
	file      *os.File
	chipInfo  ChipInfo
	lineNames map[string](uint32)
}

type ChipInfo struct {
	Name  string
	Label string
	Lines uint32
}

// EventLine is a single input line requested for edge events
type EventLine struct {
	mutex  sync.Mutex
	file   *os.File
	offset uint32
}

type LineInfo struct {
	LineOffset uint32
	Flags      LineFlag
	Name       string
	Consumer   string
}

type Line struct {
	Offset uint32
	Name   string
}

// Event is one edge reported by the kernel
type Event struct {
	Timestamp uint64
	ID        EventID
}
