// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package events is the fixed catalog of hardware events that can be placed in
// an event set.
//
// Every event has a small integer [Code]. Code 0 is reserved as the "no event"
// marker and never maps to a hardware counter. Codes are stable for the life of
// the process and the catalog never changes after package initialization.
package events

import (
	"errors"
	"fmt"
)

// A Code identifies an entry in the catalog.
type Code int

// NoEvent is the reserved code that marks the end of an event list.
const NoEvent Code = 0

var (
	// ErrNotFound is returned by [CodeForName] for names outside the catalog.
	ErrNotFound = errors.New("event name not found")
	// ErrUnknownCode is returned for codes outside the catalog or equal to
	// [NoEvent].
	ErrUnknownCode = errors.New("unknown event code")
)

// Config is the selector the kernel needs to open a counter for an event. The
// values follow the perf_event_attr ABI.
type Config struct {
	Type   uint32
	Config uint64
}

// Perf event types and hardware event IDs from linux/perf_event.h.
const (
	TypeHardware uint32 = 0

	hwCPUCycles          = 0
	hwInstructions       = 1
	hwCacheReferences    = 2
	hwCacheMisses        = 3
	hwBranchInstructions = 4
	hwBranchMisses       = 5
	hwRefCPUCycles       = 9
)

// An Entry describes one event of the catalog.
type Entry struct {
	Code        Code
	Name        string // Catalog name, e.g. "PAPI_TOT_CYC"
	PerfName    string // Name used by "perf stat -e"
	Description string
	Config      Config
}

// String returns the name perf uses for this event.
func (e Entry) String() string {
	return e.PerfName
}

// catalog is indexed by Code.
var catalog = func() []Entry {
	var c []Entry
	hw := func(name, perfName string, config uint64, desc string) {
		c = append(c, Entry{
			Code:        Code(len(c)),
			Name:        name,
			PerfName:    perfName,
			Description: desc,
			Config:      Config{TypeHardware, config},
		})
	}
	hw("PERFPIPEDREAM_NO_EVENT", "", 0, "Reserved end of list marker")
	hw("PAPI_TOT_CYC", "cpu-cycles", hwCPUCycles, "Total CPU cycles")
	hw("PAPI_TOT_INS", "instructions", hwInstructions, "Total instructions retired")
	// Codes above are part of the public numbering and must not move.
	hw("PAPI_L3_TCA", "cache-references", hwCacheReferences, "Last level cache accesses")
	hw("PAPI_L3_TCM", "cache-misses", hwCacheMisses, "Last level cache misses")
	hw("PAPI_BR_INS", "branch-instructions", hwBranchInstructions, "Branch instructions retired")
	hw("PAPI_BR_MSP", "branch-misses", hwBranchMisses, "Mispredicted branches")
	hw("PAPI_REF_CYC", "ref-cycles", hwRefCPUCycles, "Reference clock cycles")
	return c
}()

// Common codes.
const (
	TotalCycles       Code = 1
	TotalInstructions Code = 2
)

// CodeForName returns the code of the catalog entry whose name is exactly name.
// It is safe to call at any time.
func CodeForName(name string) (Code, error) {
	for _, e := range catalog {
		if e.Name == name {
			return e.Code, nil
		}
	}
	return NoEvent, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Query reports whether code is part of the catalog. Unlike [HardwareConfig] it
// accepts [NoEvent].
func Query(code Code) error {
	if code < 0 || int(code) >= len(catalog) {
		return fmt.Errorf("%w: %d", ErrUnknownCode, code)
	}
	return nil
}

// HardwareConfig returns the kernel counter selector for code.
func HardwareConfig(code Code) (Config, error) {
	if code == NoEvent || Query(code) != nil {
		return Config{}, fmt.Errorf("%w: %d", ErrUnknownCode, code)
	}
	return catalog[code].Config, nil
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	if Query(code) != nil {
		return Entry{}, false
	}
	return catalog[code], true
}

// All returns a copy of the catalog in code order, including [NoEvent].
func All() []Entry {
	return append([]Entry(nil), catalog...)
}

// String returns the catalog name of c, or its number if c is unknown.
func (c Code) String() string {
	if e, ok := Lookup(c); ok {
		return e.Name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}
