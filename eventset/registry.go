// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import (
	"container/heap"
	"slices"

	"github.com/perfpipedream/perfpipedream/events"
)

// EventSet is a handle to an event set. Valid handles are positive; handle h
// lives in slot h-1 of the registry.
type EventSet int

// Null is the handle that refers to no event set.
const Null EventSet = -1

type slot struct {
	free  bool
	codes []events.Code // Insertion order, no duplicates
}

// registry is an arena of slots. Released slots are reused lowest index
// first before the arena grows.
type registry struct {
	slots []slot
	freed freeList
}

// freeList is a min-heap of released slot indices.
type freeList []int

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *freeList) Push(x any)        { *f = append(*f, x.(int)) }
func (f *freeList) Pop() any {
	old := *f
	x := old[len(old)-1]
	*f = old[:len(old)-1]
	return x
}

func (r *registry) create() EventSet {
	if r.freed.Len() > 0 {
		i := heap.Pop(&r.freed).(int)
		r.slots[i] = slot{}
		return EventSet(i + 1)
	}
	r.slots = append(r.slots, slot{})
	return EventSet(len(r.slots))
}

func (r *registry) lookup(h EventSet) (*slot, bool) {
	i := int(h) - 1
	if i < 0 || i >= len(r.slots) || r.slots[i].free {
		return nil, false
	}
	return &r.slots[i], true
}

// release marks the slot of a valid handle free.
func (r *registry) release(h EventSet) {
	i := int(h) - 1
	r.slots[i] = slot{free: true}
	heap.Push(&r.freed, i)
}

func (r *registry) reset() {
	r.slots = nil
	r.freed = nil
}

func (s *slot) add(code events.Code) bool {
	if slices.Contains(s.codes, code) {
		return false
	}
	s.codes = append(s.codes, code)
	return true
}

func (s *slot) remove(code events.Code) bool {
	i := slices.Index(s.codes, code)
	if i < 0 {
		return false
	}
	s.codes = slices.Delete(s.codes, i, i+1)
	if len(s.codes) == 0 {
		s.codes = nil
	}
	return true
}

// existing resolves a handle for an operation that does not modify the set.
func (l *Library) existing(h EventSet) (*slot, error) {
	if !l.initialized {
		return nil, ErrNotInitialized
	}
	if h == Null {
		return nil, ErrEventSetNull
	}
	s, ok := l.sets.lookup(h)
	if !ok {
		return nil, ErrEventSetNotFound
	}
	return s, nil
}

// mutable resolves a handle for an operation that modifies the set, which is
// not allowed while the set is running.
func (l *Library) mutable(h EventSet) (*slot, error) {
	if !l.initialized {
		return nil, ErrNotInitialized
	}
	if h == Null {
		return nil, ErrEventSetNull
	}
	if l.session != nil && l.session.set == h {
		return nil, ErrEventSetRunning
	}
	s, ok := l.sets.lookup(h)
	if !ok {
		return nil, ErrEventSetNotFound
	}
	return s, nil
}

// Create allocates an empty event set and stores its handle in *h, which must
// be [Null] on entry. A nil h fails with [ErrEventSetNull].
func (l *Library) Create(h *EventSet) error {
	if h == nil {
		l.trace("create event set", "initial", nil)
		return l.fail(ErrEventSetNull)
	}
	l.trace("create event set", "initial", *h)
	if !l.initialized {
		return l.fail(ErrNotInitialized)
	}
	if *h != Null {
		return l.fail(ErrEventSetNotNull)
	}
	*h = l.sets.create()
	l.trace("created event set", "eventSet", *h)
	return nil
}

// AddEvent appends code to the set. Codes are not checked against the catalog
// here; [Library.Start] rejects unknown ones.
func (l *Library) AddEvent(h EventSet, code events.Code) error {
	l.trace("add event", "eventSet", h, "code", code)
	s, err := l.mutable(h)
	if err != nil {
		return l.fail(err)
	}
	if !s.add(code) {
		return l.fail(ErrEventAlreadyInSet)
	}
	l.trace("added event", "eventSet", h, "events", s.codes)
	return nil
}

// RemoveEvent removes code from the set, keeping the order of the others.
func (l *Library) RemoveEvent(h EventSet, code events.Code) error {
	l.trace("remove event", "eventSet", h, "code", code)
	s, err := l.mutable(h)
	if err != nil {
		return l.fail(err)
	}
	if !s.remove(code) {
		return l.fail(ErrEventNotInSet)
	}
	l.trace("removed event", "eventSet", h, "events", s.codes)
	return nil
}

// Cleanup removes every event from the set. The handle stays valid.
func (l *Library) Cleanup(h EventSet) error {
	l.trace("cleanup event set", "eventSet", h)
	s, err := l.mutable(h)
	if err != nil {
		return l.fail(err)
	}
	s.codes = nil
	l.trace("cleaned up event set", "eventSet", h, "events", s.codes)
	return nil
}

// Destroy empties the set, releases its slot and sets *h to [Null]. On error
// *h is left unchanged. A nil h fails with [ErrEventSetNull].
func (l *Library) Destroy(h *EventSet) error {
	if h == nil {
		l.trace("destroy event set", "eventSet", nil)
		return l.fail(ErrEventSetNull)
	}
	l.trace("destroy event set", "eventSet", *h)
	s, err := l.mutable(*h)
	if err != nil {
		return l.fail(err)
	}
	old := *h
	s.codes = nil
	l.sets.release(old)
	*h = Null
	l.trace("destroyed event set", "eventSet", old, "handle", *h, "freeSlots", l.sets.freed.Len())
	return nil
}

// Events returns a copy of the codes of the set, in insertion order.
func (l *Library) Events(h EventSet) ([]events.Code, error) {
	l.trace("list events", "eventSet", h)
	s, err := l.existing(h)
	if err != nil {
		return nil, l.fail(err)
	}
	l.trace("listed events", "eventSet", h, "events", s.codes)
	return slices.Clone(s.codes), nil
}

// NumEvents returns the number of events in the set.
func (l *Library) NumEvents(h EventSet) (int, error) {
	l.trace("count events", "eventSet", h)
	s, err := l.existing(h)
	if err != nil {
		return 0, l.fail(err)
	}
	l.trace("counted events", "eventSet", h, "numEvents", len(s.codes))
	return len(s.codes), nil
}
