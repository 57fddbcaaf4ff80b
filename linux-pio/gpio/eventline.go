package gpio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var ErrorClosed = errors.New("Event line is closed")

// Offset returns the line offset on its chip
func (e *EventLine) Offset() uint32 {
	return e.offset
}

func (e *EventLine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.file == nil {
		return ErrorClosed
	}

	err := e.file.Close()
	e.file = nil
	return err
}

func (e *EventLine) GetValue() (bool, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.file == nil {
		return false, ErrorClosed
	}

	var values [64]uint8
	if err := ioctlPtr(e.file, gpiohandleGetLineValuesIoctl, unsafe.Pointer(&values)); err != nil {
		return false, err
	}

	return values[0] > 0, nil
}

// Wait blocks until the next edge or until timeout expires. A negative timeout
// waits forever. When flush is set, events that were queued before the call are
// discarded first. The boolean result is false on timeout.
func (e *EventLine) Wait(flush bool, timeout time.Duration) (Event, bool, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.file == nil {
		return Event{}, false, ErrorClosed
	}
	fd := int(e.file.Fd())

	if flush {
		for {
			ready, err := pollIn(fd, 0)
			if err != nil {
				return Event{}, false, err
			}
			if !ready {
				break
			}
			if _, err := readEvent(fd); err != nil {
				return Event{}, false, err
			}
		}
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		ms := -1
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		ready, err := pollIn(fd, ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Event{}, false, err
		}
		if !ready {
			return Event{}, false, nil
		}

		ev, err := readEvent(fd)
		return ev, err == nil, err
	}
}

func pollIn(fd int, ms int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN | unix.POLLPRI}}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func readEvent(fd int) (Event, error) {
	var buf [eventDataSize]byte

	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return Event{}, fmt.Errorf("Reading event failed: %w", err)
	}
	if n != eventDataSize {
		return Event{}, fmt.Errorf("Short event read: %d bytes", n)
	}

	return Event{
		Timestamp: binary.LittleEndian.Uint64(buf[0:8]),
		ID:        EventID(binary.LittleEndian.Uint32(buf[8:12])),
	}, nil
}
