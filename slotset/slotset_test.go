package slotset

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func check(t *testing.T, condition bool, reason ...interface{}) {
	if !condition {
		t.Error(reason...)
		t.FailNow()
	}
}

func checkPanic(t *testing.T) {
	r := recover()
	if r == nil {
		t.Errorf("The code did not panic")
	}
}

func TestClaim(t *testing.T) {
	ss := New(8)

	for i := 0; i < 8; i++ {
		slot, err := ss.Claim(i)
		check(t, err == nil && slot != nil, "TestClaim: Invalid response", err)
		check(t, slot.GetID() == i, "Wrong ID", slot.GetID())

		again, err := ss.Claim(i)
		check(t, errors.Is(err, ErrorUnavailable) && again == nil, "Double claim succeeded", i)
	}

	check(t, ss.NumGiven() == 8, "Not all slots given")

	_, err := ss.Claim(8)
	check(t, errors.Is(err, ErrorUnavailable), "Out of range claim succeeded")
	_, err = ss.Claim(-1)
	check(t, errors.Is(err, ErrorUnavailable), "Negative claim succeeded")
}

func TestRelease(t *testing.T) {
	ss := New(8)

	for i := 0; i < 8; i++ {
		slot, err := ss.Claim(i)
		check(t, err == nil, err)
		check(t, ss.IsGiven(i), "Slot not marked given")

		slot.Release()
		check(t, !ss.IsGiven(i), "Slot still marked given")

		slot, err = ss.Claim(i)
		check(t, err == nil, "Released slot could not be claimed again", err)
		ss.Put(slot)
	}

	check(t, ss.NumGiven() == 0, "Slots leaked")
	check(t, !ss.IsGiven(99), "Nonexistent slot given")
}

func TestConcurrentClaim(t *testing.T) {
	ss := New(1)
	won := int32(0)

	var wg sync.WaitGroup
	wg.Add(16)
	for i := 0; i < 16; i++ {
		go func() {
			defer wg.Done()
			if _, err := ss.Claim(0); err == nil {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()

	check(t, won == 1, "Slot claimed more than once", won)
}

func TestWeirdAbuse(t *testing.T) {
	func() {
		defer checkPanic(t)
		ss := New(7)
		s1, _ := ss.Claim(0)
		s1.Release()
		s1.Release()
	}()

	func() {
		defer checkPanic(t)
		ss := New(7)
		ss2 := New(7)

		s2, _ := ss2.Claim(0)
		ss.Put(s2)
	}()

	func() {
		defer checkPanic(t)
		ss := New(7)
		ss.Put(&Slot{parent: ss})
	}()
}

func TestAssert(t *testing.T) {
	assert(true, "Works great")
	defer checkPanic(t)

	assert(false, "Assert failed")
}
