// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-logr/logr/funcr"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
	"github.com/perfpipedream/perfpipedream/perf"
)

var defaultEvents = []string{
	"PAPI_TOT_CYC",
	"PAPI_TOT_INS",
	"PAPI_L3_TCM",
	"PAPI_L3_TCA",
}

// countersOS counts through an event set of its own library. Starting an event
// set resets its counters, so totals accumulate across Start/Stop spans and
// baseline is subtracted from the span in progress.
type countersOS struct {
	b  testingB
	bN int

	lib     *eventset.Library
	set     eventset.EventSet
	names   []string
	running bool

	totals   []int64
	baseline []int64
	buf      []int64
}

var printUnits = sync.OnceFunc(func() {
	// Print unit metadata.
	for _, name := range defaultEvents {
		e, ok := lookup(name)
		if !ok {
			continue
		}
		// Currently all events are better=lower.
		fmt.Printf("Unit %s better=lower\n", e.PerfName)
	}
	fmt.Printf("\n")
})

// testingB is the *testing.B interface needed by Counters. Used for testing.
type testingB interface {
	ReportMetric(n float64, unit string)
	Logf(format string, args ...any)
	Cleanup(func())
}

// hardware is how Counters reaches the counters. Tests substitute it.
type hardware struct {
	opener    eventset.Opener // nil means perf_event_open
	available func(events.Config) bool
}

var realHardware = hardware{available: perf.Available}

var openErrors sync.Map

// logOnce reports msg through b once per process, to avoid flooding the
// benchmark log.
func logOnce(b testingB, msg string) {
	if _, prev := openErrors.Swap(msg, true); !prev {
		b.Logf("%s", msg)
	}
}

func lookup(name string) (events.Entry, bool) {
	code, err := events.CodeForName(name)
	if err != nil {
		return events.Entry{}, false
	}
	return events.Lookup(code)
}

func openOS(b *testing.B) *Counters {
	printUnits()
	return open(b, b.N, realHardware)
}

func open(b testingB, bN int, hw hardware) *Counters {
	logger := funcr.New(func(prefix, args string) {
		b.Logf("%s %s", prefix, args)
	}, funcr.Options{})
	opts := []eventset.Option{eventset.WithLogger(logger)}
	if hw.opener != nil {
		opts = append(opts, eventset.WithOpener(hw.opener))
	}

	cs := &Counters{countersOS{
		b:   b,
		bN:  bN,
		lib: eventset.New(opts...),
		set: eventset.Null,
	}}
	b.Cleanup(cs.close)

	if _, err := cs.lib.Init(eventset.CurrentVersion); err != nil {
		b.Logf("error initializing counters: %v", err)
		cs.lib = nil
		return cs
	}
	if err := cs.lib.Create(&cs.set); err != nil {
		b.Logf("error creating event set: %v", err)
		cs.lib.Shutdown()
		cs.lib = nil
		return cs
	}
	for _, name := range defaultEvents {
		e, ok := lookup(name)
		if !ok {
			logOnce(b, fmt.Sprintf("unknown event %s", name))
			continue
		}
		if !hw.available(e.Config) {
			logOnce(b, fmt.Sprintf("counter %s (%s) not available", e.PerfName, name))
			continue
		}
		if err := cs.lib.AddEvent(cs.set, e.Code); err != nil {
			logOnce(b, fmt.Sprintf("error adding counter %s: %v", e.PerfName, err))
			continue
		}
		cs.names = append(cs.names, e.PerfName)
	}
	n := len(cs.names)
	cs.totals = make([]int64, n)
	cs.baseline = make([]int64, n)
	cs.buf = make([]int64, n)

	// Start all of the counters.
	cs.Start()

	return cs
}

func (cs *Counters) startOS() {
	if cs.lib == nil || cs.running || len(cs.names) == 0 {
		return
	}
	if err := cs.lib.Start(cs.set); err != nil {
		logOnce(cs.b, fmt.Sprintf("error starting counters: %v", err))
		return
	}
	clear(cs.baseline)
	cs.running = true
}

func (cs *Counters) stopOS() {
	if !cs.running {
		return
	}
	cs.running = false
	if err := cs.lib.Stop(cs.set, cs.buf); err != nil {
		cs.b.Logf("error reading counters: %v", err)
		return
	}
	for i, v := range cs.buf {
		cs.totals[i] += v - cs.baseline[i]
	}
}

func (cs *Counters) resetOS() {
	clear(cs.totals)
	if !cs.running {
		return
	}
	if err := cs.lib.Read(cs.set, cs.baseline); err != nil {
		cs.b.Logf("error reading counters: %v", err)
	}
}

func (cs *Counters) totalOS(name string) (float64, bool) {
	for i, n := range cs.names {
		if n != name {
			continue
		}
		total := cs.totals[i]
		if cs.running {
			if err := cs.lib.Read(cs.set, cs.buf); err != nil {
				return 0, false
			}
			total += cs.buf[i] - cs.baseline[i]
		}
		return float64(total), true
	}
	return 0, false
}

func (cs *Counters) close() {
	if cs.b == nil {
		return
	}

	cs.Stop()
	if cs.lib != nil {
		for i, name := range cs.names {
			cs.b.ReportMetric(float64(cs.totals[i])/float64(cs.bN), name+"/op")
		}
		cs.lib.Destroy(&cs.set)
		cs.lib.Shutdown()
	}
	cs.b = nil
}
