package gpio

import (
	"encoding/binary"
	"errors"
	"os"
	"testing"
	"time"
)

func pipeLine(t *testing.T) (*EventLine, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	return &EventLine{file: r, offset: 25}, w
}

func writeEvent(t *testing.T, w *os.File, ts uint64, id EventID) {
	var buf [eventDataSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], ts)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(id))
	if _, err := w.Write(buf[:]); err != nil {
		t.Fatal(err)
	}
}

func TestWait(t *testing.T) {
	e, w := pipeLine(t)
	defer w.Close()
	defer e.Close()

	_, ok, err := e.Wait(false, 0)
	if ok || err != nil {
		t.Error("Event without edge", ok, err)
	}

	start := time.Now()
	_, ok, err = e.Wait(false, 20*time.Millisecond)
	if ok || err != nil || time.Since(start) < 20*time.Millisecond {
		t.Error("Timeout not respected", ok, err)
	}

	writeEvent(t, w, 1234, EventIDFallingEdge)
	ev, ok, err := e.Wait(false, time.Second)
	if !ok || err != nil {
		t.Fatal("Edge lost", ok, err)
	}
	if ev.Timestamp != 1234 || ev.ID != EventIDFallingEdge || ev.ID.String() != "falling" {
		t.Error("Bad event", ev)
	}
}

func TestWaitFlush(t *testing.T) {
	e, w := pipeLine(t)
	defer w.Close()
	defer e.Close()

	writeEvent(t, w, 1, EventIDFallingEdge)
	writeEvent(t, w, 2, EventIDRisingEdge)

	_, ok, err := e.Wait(true, 10*time.Millisecond)
	if ok || err != nil {
		t.Error("Queued edges not flushed", ok, err)
	}
}

func TestEventLineClose(t *testing.T) {
	e, w := pipeLine(t)
	defer w.Close()

	if e.Offset() != 25 {
		t.Error("Wrong offset", e.Offset())
	}
	if err := e.Close(); err != nil {
		t.Error(err)
	}
	if err := e.Close(); err != ErrorClosed {
		t.Error("Double close accepted", err)
	}
	if _, _, err := e.Wait(false, 0); err != ErrorClosed {
		t.Error("Wait after close", err)
	}
	if _, err := e.GetValue(); err != ErrorClosed {
		t.Error("GetValue after close", err)
	}
}

func TestWatchLineChecks(t *testing.T) {
	c := &Chip{
		chipInfo:  ChipInfo{Lines: 28},
		lineNames: map[string](uint32){"GPIO25": 25},
	}

	if _, err := c.WatchLine("test", 0, EventFallingEdge, Line{Offset: 28}); err != ErrorLineRange {
		t.Error("Line 28 accepted", err)
	}
	if _, err := c.WatchLine("test", 0, EventFallingEdge, Line{Name: "GPIO99"}); !errors.Is(err, ErrorNotFound) {
		t.Error("Unknown name accepted", err)
	}

	off, err := c.findLineByName("GPIO25")
	if err != nil || off != 25 {
		t.Error("Name lookup failed", off, err)
	}
}

func TestStrings(t *testing.T) {
	var buf [8]byte
	stringToBytes("pifacedigital", buf[:])
	if bytesToString(buf[:]) != "pifaced" {
		t.Error("Label not truncated", bytesToString(buf[:]))
	}

	if EventID(7).String() != "unknown" || EventIDRisingEdge.String() != "rising" {
		t.Error("Bad event names")
	}
}
