package slotset

import (
	"errors"
	"fmt"
	"sync"
)

// SlotSet hands out a fixed number of numbered slots. Each slot can be held
// by one owner at a time.
type SlotSet struct {
	sync.Mutex

	slots []*Slot
}

type Slot struct {
	parent *SlotSet

	id    int
	given bool
}

var (
	ErrorUnavailable = errors.New("Slot is not available")
)

func New(numSlots int) *SlotSet {
	s := &SlotSet{
		slots: make([]*Slot, numSlots),
	}

	for i := range s.slots {
		s.slots[i] = &Slot{
			parent: s,
			id:     i,
		}
	}

	return s
}

// Claim takes slot id. It fails when id does not exist or is already held.
func (s *SlotSet) Claim(id int) (*Slot, error) {
	if id < 0 || id >= len(s.slots) {
		return nil, fmt.Errorf("%w: %d out of range", ErrorUnavailable, id)
	}

	s.Lock()
	defer s.Unlock()

	slot := s.slots[id]
	if slot.given {
		return nil, fmt.Errorf("%w: %d in use", ErrorUnavailable, id)
	}

	slot.given = true
	return slot, nil
}

// Put returns a claimed slot to the set
func (s *SlotSet) Put(slot *Slot) {
	assert(slot.parent == s, "Slot does not belong to this set")

	s.Lock()
	defer s.Unlock()

	assert(s.slots[slot.id] == slot, "Slot is not part of this set")
	assert(slot.given, "Slot was not yet given out!")
	slot.given = false
}

func (s *SlotSet) IsGiven(id int) bool {
	if id < 0 || id >= len(s.slots) {
		return false
	}

	s.Lock()
	defer s.Unlock()

	return s.slots[id].given
}

// NumGiven returns how many slots are currently held
func (s *SlotSet) NumGiven() int {
	s.Lock()
	defer s.Unlock()

	cnt := 0
	for _, m := range s.slots {
		if m.given {
			cnt++
		}
	}
	return cnt
}

func (s *Slot) GetID() int {
	return s.id
}

func (s *Slot) Release() {
	s.parent.Put(s)
}

func assert(condition bool, reason string) {
	if !condition {
		panic(reason)
	}
}
