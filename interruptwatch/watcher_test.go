package interruptwatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BertoldVdb/go-pfd/mcp23s17"
	"github.com/BertoldVdb/go-pfd/mockspi"
	"github.com/BertoldVdb/go-pfd/pifacedigital"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func check(t *testing.T, condition bool, reason ...interface{}) {
	if !condition {
		t.Error(reason...)
		t.FailNow()
	}
}

type fixture struct {
	chip    *mockspi.Chip
	device  *pifacedigital.Device
	pins    []*pifacedigital.InputPin
	watcher *Watcher
	result  chan (error)
}

func start(t *testing.T, ctx context.Context, opts ...Option) *fixture {
	f := &fixture{
		chip:   mockspi.New(),
		result: make(chan (error), 1),
	}

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	var err error
	f.device, err = pifacedigital.New(0, pifacedigital.Spi0, pifacedigital.Cs0, 100000, pifacedigital.Mode0,
		pifacedigital.WithBackend(f.chip, f.chip.Line()), pifacedigital.WithLogger(log))
	check(t, err == nil, err)
	check(t, f.device.Init() == nil, "Init failed")

	for i := uint8(0); i < 3; i++ {
		pin, err := f.device.ClaimPullUpInput(i)
		check(t, err == nil, err)
		check(t, pin.SetInterrupt(pifacedigital.InterruptBothEdges) == nil, "SetInterrupt failed")
		f.pins = append(f.pins, pin)
	}

	opts = append([]Option{WithPollTimeout(10 * time.Millisecond), WithLogger(log)}, opts...)
	f.watcher = New(f.device, f.pins, opts...)
	go func() {
		f.result <- f.watcher.Run(ctx)
	}()

	/* The first poll flushes old edges */
	for f.chip.Line().Polls() < 2 {
		time.Sleep(time.Millisecond)
	}

	return f
}

func (f *fixture) wait(t *testing.T) error {
	select {
	case err := <-f.result:
		return err
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	return nil
}

func TestEvents(t *testing.T) {
	f := start(t, context.Background())

	f.chip.Interrupt(mcp23s17.GpioB, 0x02, 0x00)

	select {
	case interrupts := <-f.watcher.Events():
		check(t, len(interrupts) == 1, "Wrong number of interrupts", len(interrupts))
		check(t, interrupts[0].Pin == f.pins[1] && interrupts[0].Level == pifacedigital.Low, "Wrong interrupt")
	case <-time.After(time.Second):
		t.Fatal("No event")
	}

	check(t, f.watcher.Close() == nil, "Close failed")
	check(t, f.wait(t) == nil, "Run failed after Close")
	check(t, f.watcher.Close() == ErrorClosed, "Double close accepted")

	_, ok := <-f.watcher.Events()
	check(t, !ok, "Events not closed")
}

func TestStaleEdgeDropped(t *testing.T) {
	chip := mockspi.New()
	logger, _ := test.NewNullLogger()
	d, err := pifacedigital.New(0, pifacedigital.Spi0, pifacedigital.Cs0, 100000, pifacedigital.Mode0,
		pifacedigital.WithBackend(chip, chip.Line()), pifacedigital.WithLogger(logrus.NewEntry(logger)))
	check(t, err == nil, err)
	check(t, d.Init() == nil, "Init failed")

	pin, err := d.ClaimInput(0)
	check(t, err == nil, err)
	check(t, pin.SetInterrupt(pifacedigital.InterruptBothEdges) == nil, "SetInterrupt failed")

	chip.Interrupt(mcp23s17.GpioB, 0x01, 0x00)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w := New(d, []*pifacedigital.InputPin{pin}, WithPollTimeout(10*time.Millisecond), WithBuffer(1))
	check(t, errors.Is(w.Run(ctx), context.DeadlineExceeded), "Run did not stop at deadline")

	_, ok := <-w.Events()
	check(t, !ok, "Stale edge delivered")
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := start(t, ctx)

	cancel()
	check(t, errors.Is(f.wait(t), context.Canceled), "Run did not return the context error")
}

func TestUnmatchedEdge(t *testing.T) {
	f := start(t, context.Background(), WithBuffer(4))

	f.chip.Interrupt(mcp23s17.GpioB, 0x80, 0x00)
	for {
		if _, reads, _ := f.chip.Register(mcp23s17.INTCAPB); reads > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	f.chip.Interrupt(mcp23s17.GpioB, 0x04, 0x04)

	select {
	case interrupts := <-f.watcher.Events():
		check(t, len(interrupts) == 1 && interrupts[0].Pin == f.pins[2], "Empty result delivered")
		check(t, interrupts[0].Level == pifacedigital.High, "Wrong level")
	case <-time.After(time.Second):
		t.Fatal("No event")
	}

	f.watcher.Close()
	f.wait(t)
}

func TestLatest(t *testing.T) {
	f := start(t, context.Background(), WithBuffer(4))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	_, _, err := f.watcher.Latest(ctx, 0)
	cancel()
	check(t, errors.Is(err, context.DeadlineExceeded), "Latest returned without a result", err)

	f.chip.Interrupt(mcp23s17.GpioB, 0x01, 0x01)

	count, interrupts, err := f.watcher.Latest(context.Background(), 0)
	check(t, err == nil && count == 1, "Bad result", count, err)
	check(t, len(interrupts) == 1 && interrupts[0].Pin == f.pins[0], "Wrong interrupt")

	f.watcher.Close()
	_, _, err = f.watcher.Latest(context.Background(), count)
	check(t, err == ErrorClosed, "Latest after Close", err)
	f.wait(t)
}

func TestPollError(t *testing.T) {
	f := start(t, context.Background())

	f.chip.Line().Close()

	err := f.wait(t)
	check(t, errors.Is(err, mockspi.ErrorClosed), "Poll error lost", err)
}
