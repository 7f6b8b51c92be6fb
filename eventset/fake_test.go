// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset_test

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
	"github.com/perfpipedream/perfpipedream/perf"
)

// fakeHardware stands in for perf_event_open. Each enabled counter advances by
// its step on every read, so values identify the event they came from.
type fakeHardware struct {
	opened []*fakeCounter
	fail   map[uint64]error // Keyed by hardware config
}

type fakeCounter struct {
	cfg     events.Config
	step    uint64
	value   uint64
	resets  int
	enabled bool
	closed  bool
}

var errFakeOpen = errors.New("fake: no such counter")

func (h *fakeHardware) open(cfg events.Config) (eventset.Counter, error) {
	if err, ok := h.fail[cfg.Config]; ok {
		return nil, err
	}
	c := &fakeCounter{cfg: cfg, step: stepFor(cfg), value: 7}
	h.opened = append(h.opened, c)
	return c, nil
}

func stepFor(cfg events.Config) uint64 {
	return (cfg.Config + 1) * 10
}

func (h *fakeHardware) live() []*fakeCounter {
	var live []*fakeCounter
	for _, c := range h.opened {
		if !c.closed {
			live = append(live, c)
		}
	}
	return live
}

func (c *fakeCounter) Reset() error {
	c.resets++
	c.value = 0
	return nil
}

func (c *fakeCounter) Enable() error {
	c.enabled = true
	return nil
}

func (c *fakeCounter) Disable() error {
	c.enabled = false
	return nil
}

func (c *fakeCounter) Read() (perf.Count, error) {
	if c.closed {
		return perf.Count{}, perf.ErrClosed
	}
	if c.enabled {
		c.value += c.step
	}
	return perf.Count{RawValue: c.value}, nil
}

func (c *fakeCounter) Close() error {
	c.closed = true
	return nil
}

// newLibrary returns an initialized Library backed by fake hardware.
func newLibrary(t *testing.T, opts ...eventset.Option) (*eventset.Library, *fakeHardware) {
	t.Helper()
	hw := &fakeHardware{fail: map[uint64]error{}}
	opts = append([]eventset.Option{
		eventset.WithLogger(testr.New(t)),
		eventset.WithOpener(hw.open),
	}, opts...)
	lib := eventset.New(opts...)
	if _, err := lib.Init(eventset.CurrentVersion); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(lib.Shutdown)
	return lib, hw
}

func newSet(t *testing.T, lib *eventset.Library, codes ...events.Code) eventset.EventSet {
	t.Helper()
	set := eventset.Null
	if err := lib.Create(&set); err != nil {
		t.Fatal(err)
	}
	for _, code := range codes {
		if err := lib.AddEvent(set, code); err != nil {
			t.Fatal(err)
		}
	}
	return set
}
