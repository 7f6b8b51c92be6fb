// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perf opens and drives kernel hardware counters, one file descriptor
// per event.
package perf

import (
	"errors"
	"runtime"
)

// ErrNotSupported is returned when the platform has no perf_event_open.
var ErrNotSupported = errors.New("perf events are not supported on this platform")

// ErrClosed is returned by operations on a closed [Counter].
var ErrClosed = errors.New("counter is closed")

// Target specifies what goroutine, thread, or CPU a [Counter] should monitor.
type Target interface {
	pidCPU() (pid, cpu int)
	open()
	close()
}

type targetThisGoroutine struct{}

func (targetThisGoroutine) pidCPU() (pid, cpu int) { return 0, -1 }
func (targetThisGoroutine) open()                  { runtime.LockOSThread() }
func (targetThisGoroutine) close()                 { runtime.UnlockOSThread() }

var (
	// TargetThisGoroutine monitors the calling goroutine. This will call
	// [runtime.LockOSThread] on Open and [runtime.UnlockOSThread] on Close, so
	// a Counter must be closed by the goroutine that opened it.
	TargetThisGoroutine = targetThisGoroutine{}
)

// Count is the value of a Counter.
type Count struct {
	RawValue uint64 // The number of events while this counter was enabled.

	// Normally, TimeEnabled == TimeRunning. If the PMU is oversubscribed by
	// other users, the kernel multiplexes counters and TimeRunning will be
	// smaller.

	TimeEnabled uint64 // Total time the Counter was enabled, in ns.
	TimeRunning uint64 // Total time the Counter was actually counting, in ns.
}

// Value returns RawValue scaled to account for the time the counter was not
// scheduled on the hardware.
func (c Count) Value() float64 {
	raw := float64(c.RawValue)
	if c.TimeEnabled == c.TimeRunning {
		return raw
	}
	if c.TimeRunning == 0 {
		// Avoid divide by zero.
		return 0
	}
	return raw * (float64(c.TimeEnabled) / float64(c.TimeRunning))
}
