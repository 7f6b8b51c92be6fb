// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eventset manages named groups of hardware events ("event sets") and
// counts them with kernel performance counters.
//
// A [Library] owns a table of event sets and at most one running counting
// session. The typical life cycle is:
//
//	lib := eventset.New()
//	lib.Init(eventset.CurrentVersion)
//	set := eventset.Null
//	lib.Create(&set)
//	lib.AddEvent(set, events.TotalCycles)
//	lib.Start(set)
//	// ... measured code ...
//	values := make([]int64, 1)
//	lib.Stop(set, values)
//	lib.Destroy(&set)
//	lib.Shutdown()
//
// A Library is not safe for concurrent use. Counters are bound to the OS
// thread of the goroutine that called Start, so Start, Read and Stop must be
// called from the same goroutine.
package eventset

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
)

// CurrentVersion is the only version [Library.Init] accepts.
const CurrentVersion = 1

// Library is the context every operation runs against.
type Library struct {
	log    logr.Logger
	opener Opener
	abort  func(error)

	// Requested by options, latched by Init.
	wantDebug bool
	wantTrap  bool

	debug       bool
	trap        bool
	initialized bool

	sets    registry
	session *session
}

// An Option configures a [Library] built by [New].
type Option func(l *Library)

// WithLogger sets the logger used for tracing and for trapped errors.
func WithLogger(logger logr.Logger) Option {
	return func(l *Library) {
		l.log = logger
	}
}

// WithDebug traces every call and the state it leaves behind.
func WithDebug(debug bool) Option {
	return func(l *Library) {
		l.wantDebug = debug
	}
}

// WithTrap turns every error, except those of the name and code queries, into
// a call to the abort function.
func WithTrap(trap bool) Option {
	return func(l *Library) {
		l.wantTrap = trap
	}
}

// WithOpener replaces the function that opens hardware counters.
func WithOpener(opener Opener) Option {
	return func(l *Library) {
		l.opener = opener
	}
}

// WithAbort replaces the function called for trapped errors. The default prints
// the error code and message to standard error and exits the process with
// status 134.
func WithAbort(abort func(error)) Option {
	return func(l *Library) {
		l.abort = abort
	}
}

// New returns an uninitialized Library.
func New(opts ...Option) *Library {
	l := &Library{
		log:    logr.Discard(),
		opener: openPerfCounter,
		abort:  abortProcess,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithName("perfpipedream")
	return l
}

// Init initializes the library and returns the version in use. Debug and trap
// settings take effect here, before version is checked.
func (l *Library) Init(version int) (int, error) {
	l.debug = l.wantDebug
	l.trap = l.wantTrap
	l.trace("init", "version", version)

	if version != CurrentVersion {
		return 0, l.fail(ErrInvalidVersion)
	}
	if l.initialized {
		return 0, l.fail(ErrAlreadyInitialized)
	}
	l.initialized = true
	return CurrentVersion, nil
}

// IsInitialized reports whether Init has succeeded since New or the last
// Shutdown.
func (l *Library) IsInitialized() bool {
	l.trace("is initialized", "initialized", l.initialized)
	return l.initialized
}

// Shutdown stops the running session, if any, discarding its values, releases
// every event set and leaves the library uninitialized. Calling it on an
// uninitialized Library does nothing.
func (l *Library) Shutdown() {
	l.trace("shutdown", "running", l.session != nil, "slots", len(l.sets.slots))
	if l.session != nil {
		l.teardown()
	}
	l.sets.reset()
	l.initialized = false
}

func (l *Library) trace(msg string, keysAndValues ...any) {
	if l.debug {
		l.log.Info(msg, keysAndValues...)
	}
}

func abortProcess(err error) {
	fmt.Fprintf(os.Stderr, "TRAP: perfpipedream: unexpected error (%d): %v\n", Code(err), err)
	os.Exit(134)
}

// fail applies the trap policy to err and returns it.
func (l *Library) fail(err error) error {
	if err != nil && l.trap {
		l.log.Error(err, "unexpected error", "code", Code(err))
		l.abort(err)
	}
	return err
}
