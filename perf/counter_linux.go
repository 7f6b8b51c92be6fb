// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/perfpipedream/perfpipedream/events"
)

// A Counter counts one hardware event on a [Target]. Only user space is
// counted: kernel and hypervisor samples are excluded.
type Counter struct {
	target Target
	f      *os.File

	// value, time enabled, time running
	readBuf [3 * 8]byte
}

// Open returns a new [Counter] for the event selected by cfg. The counter is
// initially disabled. Callers are expected to call [Counter.Close] when done
// with it.
func Open(target Target, cfg events.Config) (*Counter, error) {
	attr := unix.PerfEventAttr{}
	attr.Size = uint32(unsafe.Sizeof(attr))
	cfg.SetAttrs(&attr)
	attr.Read_format = unix.PERF_FORMAT_TOTAL_TIME_ENABLED |
		unix.PERF_FORMAT_TOTAL_TIME_RUNNING
	attr.Bits = unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv

	pid, cpu := target.pidCPU()
	target.open()
	fd, err := unix.PerfEventOpen(&attr, pid, cpu, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		target.close()
		return nil, explainOpenError(err)
	}
	return &Counter{
		target: target,
		f:      os.NewFile(uintptr(fd), "<perf-event>"),
	}, nil
}

// explainOpenError adds a hint to the common ways perf_event_open fails.
func explainOpenError(err error) error {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		const path = "/proc/sys/kernel/perf_event_paranoid"
		data, err2 := os.ReadFile(path)
		data = bytes.TrimSpace(data)
		if val, err3 := strconv.Atoi(string(data)); err2 != nil || err3 != nil || val > 2 {
			// We can't read it, or it forbids user space counting.
			return fmt.Errorf("%w (consider: echo 2 | sudo tee %s)", err, path)
		}
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.EOPNOTSUPP):
		return fmt.Errorf("%w (hardware event not exposed by this CPU or hypervisor)", err)
	}
	return err
}

// Available reports whether a counter for cfg can be opened on the calling
// goroutine right now.
func Available(cfg events.Config) bool {
	c, err := Open(TargetThisGoroutine, cfg)
	if err != nil {
		return false
	}
	c.Close()
	return true
}

// Fd returns the counter's file descriptor, or -1 if it is closed.
func (c *Counter) Fd() int {
	if c == nil || c.f == nil {
		return -1
	}
	return int(c.f.Fd())
}

func (c *Counter) ioctl(req uint) error {
	if c == nil || c.f == nil {
		return ErrClosed
	}
	return unix.IoctlSetInt(int(c.f.Fd()), req, 0)
}

// Reset sets the counter value to zero.
func (c *Counter) Reset() error {
	return c.ioctl(unix.PERF_EVENT_IOC_RESET)
}

// Enable starts counting.
func (c *Counter) Enable() error {
	return c.ioctl(unix.PERF_EVENT_IOC_ENABLE)
}

// Disable stops counting. The value is kept.
func (c *Counter) Disable() error {
	return c.ioctl(unix.PERF_EVENT_IOC_DISABLE)
}

// Read returns the current value of the counter.
func (c *Counter) Read() (Count, error) {
	if c == nil || c.f == nil {
		return Count{}, ErrClosed
	}
	buf := c.readBuf[:]
	n, err := c.f.Read(buf)
	if err != nil {
		return Count{}, err
	}
	if n != len(buf) {
		return Count{}, fmt.Errorf("short read: got %d bytes, want %d", n, len(buf))
	}
	return Count{
		RawValue:    binary.NativeEndian.Uint64(buf[0:]),
		TimeEnabled: binary.NativeEndian.Uint64(buf[8:]),
		TimeRunning: binary.NativeEndian.Uint64(buf[16:]),
	}, nil
}

// Close closes the counter and unlocks the goroutine from the OS thread. It is
// safe to call more than once.
func (c *Counter) Close() error {
	if c == nil || c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	c.target.close()
	c.target = nil
	return err
}
