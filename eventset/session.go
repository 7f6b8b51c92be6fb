// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import (
	"fmt"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/perf"
)

// Counter is one open hardware counter. [perf.Counter] implements it.
type Counter interface {
	Reset() error
	Enable() error
	Disable() error
	Read() (perf.Count, error)
	Close() error
}

// An Opener opens a disabled counter for cfg.
type Opener func(cfg events.Config) (Counter, error)

func openPerfCounter(cfg events.Config) (Counter, error) {
	c, err := perf.Open(perf.TargetThisGoroutine, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// session is the running event set. counters[i] counts codes[i].
type session struct {
	set      EventSet
	codes    []events.Code
	counters []Counter
}

// Start opens one counter per event of the set, in set order, resets them and
// enables them. If any counter cannot be opened, the ones already opened are
// closed and nothing is left running.
func (l *Library) Start(h EventSet) error {
	l.trace("start", "eventSet", h)
	s, err := l.existing(h)
	if err != nil {
		return l.fail(err)
	}
	if l.session != nil {
		return l.fail(ErrAlreadyRunning)
	}

	configs := make([]events.Config, len(s.codes))
	for i, code := range s.codes {
		cfg, err := events.HardwareConfig(code)
		if err != nil {
			return l.fail(&lookupError{kind: ErrUnknownEventCode, subject: code.String(), err: err})
		}
		configs[i] = cfg
	}

	sess := &session{set: h, codes: append([]events.Code(nil), s.codes...)}
	success := false
	defer func() {
		if !success {
			for _, c := range sess.counters {
				c.Close()
			}
		}
	}()

	for i, cfg := range configs {
		c, err := l.opener(cfg)
		if err != nil {
			return l.fail(fmt.Errorf("%w: %s: %w", ErrCounterOpen, sess.codes[i], err))
		}
		sess.counters = append(sess.counters, c)
	}
	for i, c := range sess.counters {
		if err := c.Reset(); err != nil {
			return l.fail(fmt.Errorf("%w: reset %s: %w", ErrCounterOpen, sess.codes[i], err))
		}
	}
	for i, c := range sess.counters {
		if err := c.Enable(); err != nil {
			return l.fail(fmt.Errorf("%w: enable %s: %w", ErrCounterOpen, sess.codes[i], err))
		}
	}

	success = true
	l.session = sess
	if l.debug {
		l.trace("started", "eventSet", h, "fds", sess.fds())
	}
	return nil
}

// Read stores the current count of every event of the running set h in out,
// in set order, and leaves the counters running. At most len(out) values are
// stored; a nil out only checks that h is running.
func (l *Library) Read(h EventSet, out []int64) error {
	l.trace("read", "eventSet", h, "out", out != nil)
	if err := l.checkRunning(h); err != nil {
		return l.fail(err)
	}
	if out == nil {
		return nil
	}
	if err := l.session.read(out); err != nil {
		return l.fail(err)
	}
	l.trace("read values", "eventSet", h, "values", out[:min(len(out), len(l.session.counters))])
	return nil
}

// Stop optionally reads the running set h into out like [Library.Read], then
// disables and closes all of its counters. The counters are closed even if the
// final read fails.
func (l *Library) Stop(h EventSet, out []int64) error {
	l.trace("stop", "eventSet", h, "out", out != nil)
	if err := l.checkRunning(h); err != nil {
		return l.fail(err)
	}
	var readErr error
	if out != nil {
		readErr = l.session.read(out)
		if readErr == nil {
			l.trace("stop values", "eventSet", h, "values", out[:min(len(out), len(l.session.counters))])
		}
	}
	l.teardown()
	l.trace("stopped", "eventSet", h)
	return l.fail(readErr)
}

// Running returns the handle of the running event set.
func (l *Library) Running() (EventSet, bool) {
	if l.session == nil {
		l.trace("running", "eventSet", Null, "running", false)
		return Null, false
	}
	if l.debug {
		l.trace("running", "eventSet", l.session.set, "running", true, "fds", l.session.fds())
	}
	return l.session.set, true
}

func (l *Library) checkRunning(h EventSet) error {
	if _, err := l.existing(h); err != nil {
		return err
	}
	if l.session == nil || l.session.set != h {
		return ErrNotRunning
	}
	return nil
}

// teardown disables and closes every counter of the session and ends it.
func (l *Library) teardown() {
	for i, c := range l.session.counters {
		if err := c.Disable(); err != nil {
			l.log.Error(err, "failed to disable counter", "event", l.session.codes[i])
		}
		if err := c.Close(); err != nil {
			l.log.Error(err, "failed to close counter", "event", l.session.codes[i])
		}
	}
	l.session = nil
}

func (s *session) read(out []int64) error {
	for i := 0; i < len(out) && i < len(s.counters); i++ {
		count, err := s.counters[i].Read()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCounterRead, s.codes[i], err)
		}
		out[i] = int64(count.RawValue)
	}
	return nil
}

func (s *session) fds() []int {
	fds := make([]int, len(s.counters))
	for i, c := range s.counters {
		fds[i] = -1
		if f, ok := c.(interface{ Fd() int }); ok {
			fds[i] = f.Fd()
		}
	}
	return fds
}
