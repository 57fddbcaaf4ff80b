package gpio

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	ErrorLineRange = errors.New("Line out of range")
	ErrorNotFound  = errors.New("Name not found")
)

func ioctlPtr(f *os.File, function uintptr, data unsafe.Pointer) error {
	_, _, errNo := unix.Syscall(unix.SYS_IOCTL, f.Fd(), function, uintptr(data))
	if errNo != 0 {
		return fmt.Errorf("IOCTL failed: %s", errNo.Error())
	}

	return nil
}

func bytesToString(input []byte) string {
	return strings.TrimRight(string(input), "\x00")
}

func stringToBytes(input string, output []byte) {
	n := copy(output, input)
	if n >= len(output) {
		n = len(output) - 1
	}

	output[n] = 0
}

func (g *Chip) readChipInfo() error {
	type chipInfoRaw struct {
		Name  [32]byte
		Label [32]byte
		Lines uint32
	}
	var ci chipInfoRaw

	err := ioctlPtr(g.file, gpioGetChipinfoIoctl, unsafe.Pointer(&ci))
	if err != nil {
		return err
	}

	g.chipInfo.Name = bytesToString(ci.Name[:])
	g.chipInfo.Label = bytesToString(ci.Label[:])
	g.chipInfo.Lines = ci.Lines

	return nil
}

func (g *Chip) readLineNames() error {
	names := make(map[string](uint32))

	for i := uint32(0); i < g.chipInfo.Lines; i++ {
		line, err := g.GetLineInfo(i)
		if err != nil {
			return err
		}

		if line.Name != "" {
			names[line.Name] = i
		}
	}

	g.lineNames = names

	return nil
}

func OpenChip(chip int) (*Chip, error) {
	g := &Chip{}

	var err error
	g.file, err = os.OpenFile(fmt.Sprintf("/dev/gpiochip%d", chip), unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}

	err = g.readChipInfo()
	if err == nil {
		err = g.readLineNames()
	}
	if err != nil {
		g.file.Close()
		return nil, err
	}

	return g, nil
}

func (g *Chip) Close() error {
	return g.file.Close()
}

func (g *Chip) GetChipInfo() ChipInfo {
	return g.chipInfo
}

func (g *Chip) GetLineInfo(line uint32) (LineInfo, error) {
	result := LineInfo{
		LineOffset: line,
	}

	if result.LineOffset >= g.chipInfo.Lines {
		return result, ErrorLineRange
	}

	type lineInfoRaw struct {
		LineOffset uint32
		Flags      uint32
		Name       [32]byte
		Consumer   [32]byte
	}

	li := lineInfoRaw{
		LineOffset: result.LineOffset,
	}

	err := ioctlPtr(g.file, gpioGetLineinfoIoctl, unsafe.Pointer(&li))
	if err != nil {
		return result, err
	}

	result.Flags = LineFlag(li.Flags)
	result.Name = bytesToString(li.Name[:])
	result.Consumer = bytesToString(li.Consumer[:])

	return result, nil
}

func (g *Chip) findLineByName(name string) (uint32, error) {
	if index, found := g.lineNames[name]; found {
		return index, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrorNotFound, name)
}

// WatchLine requests line as an input delivering the edges in eventFlags
func (g *Chip) WatchLine(label string, requestFlags RequestFlag, eventFlags EventFlag, line Line) (*EventLine, error) {
	type eventRequestRaw struct {
		LineOffset    uint32
		HandleFlags   uint32
		EventFlags    uint32
		ConsumerLabel [32]byte
		Fd            int32
	}

	req := eventRequestRaw{
		HandleFlags: uint32(requestFlags | RequestInput),
		EventFlags:  uint32(eventFlags),
		LineOffset:  line.Offset,
	}
	stringToBytes(label, req.ConsumerLabel[:])

	if len(line.Name) != 0 {
		off, err := g.findLineByName(line.Name)
		if err != nil {
			return nil, err
		}

		req.LineOffset = off
	}

	if req.LineOffset >= g.chipInfo.Lines {
		return nil, ErrorLineRange
	}

	err := ioctlPtr(g.file, gpioGetLineeventIoctl, unsafe.Pointer(&req))
	if err != nil {
		return nil, err
	}

	if req.Fd <= 0 {
		return nil, errors.New("Invalid file descriptor returned")
	}

	return &EventLine{
		file:   os.NewFile(uintptr(req.Fd), label),
		offset: req.LineOffset,
	}, nil
}
