// Package interruptwatch polls a set of input pins on a goroutine and hands
// the interrupts to the application over a channel.
package interruptwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BertoldVdb/go-pfd/pifacedigital"
	"github.com/sirupsen/logrus"
)

var (
	// ErrorClosed is returned when the Watcher is closed multiple times or
	// waited on after Close
	ErrorClosed = errors.New("Watcher was closed")
)

const DefaultPollTimeout = 100 * time.Millisecond

// Watcher runs Device.PollInterrupts in a loop. The poll timeout bounds how
// long Run takes to notice a cancelled context or Close.
type Watcher struct {
	device  *pifacedigital.Device
	pins    []*pifacedigital.InputPin
	timeout time.Duration
	log     *logrus.Entry

	events chan ([]pifacedigital.Interrupt)

	mutex       sync.Mutex
	closed      bool
	closeChan   chan (struct{})
	updateCount uint64
	updateChan  chan (struct{})
	last        []pifacedigital.Interrupt
}

type Option func(*Watcher)

// WithPollTimeout changes DefaultPollTimeout. It must be positive.
func WithPollTimeout(timeout time.Duration) Option {
	return func(w *Watcher) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// WithBuffer sets how many results may be queued before Run blocks
func WithBuffer(n int) Option {
	return func(w *Watcher) {
		w.events = make(chan ([]pifacedigital.Interrupt), n)
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// New creates a Watcher for pins of device. Interrupts must already be
// enabled on all of them.
func New(device *pifacedigital.Device, pins []*pifacedigital.InputPin, opts ...Option) *Watcher {
	w := &Watcher{
		device:    device,
		pins:      append([]*pifacedigital.InputPin{}, pins...),
		timeout:   DefaultPollTimeout,
		closeChan: make(chan (struct{})),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.events == nil {
		w.events = make(chan ([]pifacedigital.Interrupt))
	}
	if w.log == nil {
		w.log = logrus.NewEntry(logrus.StandardLogger())
	}
	w.log = w.log.WithField("prefix", "interruptwatch")

	return w
}

// Events returns the channel receiving every non empty poll result. It is
// closed when Run returns.
func (w *Watcher) Events() <-chan ([]pifacedigital.Interrupt) {
	return w.events
}

// Run polls until ctx is done, Close is called or polling fails. Edges that
// happened before Run started are dropped. It returns nil after Close.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	w.log.WithField("pins", len(w.pins)).Debug("Watching interrupts")

	reset := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closeChan:
			return nil
		default:
		}

		interrupts, ok, err := w.device.PollInterrupts(w.pins, reset, w.timeout)
		if err != nil {
			w.log.WithError(err).Error("Polling failed")
			return fmt.Errorf("Watching interrupts failed: %w", err)
		}
		reset = false

		if !ok || len(interrupts) == 0 {
			continue
		}

		w.publish(interrupts)

		select {
		case w.events <- interrupts:
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closeChan:
			return nil
		}
	}
}

func (w *Watcher) publish(interrupts []pifacedigital.Interrupt) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.last = interrupts
	w.updateCount++
	if w.updateChan != nil {
		close(w.updateChan)
		w.updateChan = nil
	}
}

// Latest blocks until a result newer than lastCount was seen and returns it
// with its count. Pass 0 to get the first result. Unlike Events, results that
// were not read in time are skipped.
func (w *Watcher) Latest(ctx context.Context, lastCount uint64) (uint64, []pifacedigital.Interrupt, error) {
	for {
		w.mutex.Lock()
		if w.closed {
			w.mutex.Unlock()
			return 0, nil, ErrorClosed
		}

		if w.updateCount > lastCount {
			count, last := w.updateCount, w.last
			w.mutex.Unlock()
			return count, last, nil
		}

		if w.updateChan == nil {
			w.updateChan = make(chan (struct{}))
		}
		c := w.updateChan
		w.mutex.Unlock()

		select {
		case <-ctx.Done():
			return lastCount, nil, ctx.Err()
		case <-w.closeChan:
		case <-c:
		}
	}
}

// Close makes Run return after the poll in progress. The pins stay claimed.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return ErrorClosed
	}
	w.closed = true
	close(w.closeChan)
	return nil
}
