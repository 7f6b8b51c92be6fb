// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import "errors"

// Errno is an error kind of the library. Values are negative, 0 meaning
// success, so they can double as process or C-style return codes.
type Errno int

const (
	ErrEventNotFound      Errno = -1
	ErrUnknownEventCode   Errno = -2
	ErrCounterOpen        Errno = -3
	ErrEventAlreadyInSet  Errno = -4
	ErrAlreadyRunning     Errno = -5
	ErrNotRunning         Errno = -6
	ErrEventSetNotFound   Errno = -7
	ErrEventSetNotEmpty   Errno = -8 // Reserved; no operation returns it.
	ErrEventSetNotNull    Errno = -9
	ErrAlreadyInitialized Errno = -10
	ErrInvalidVersion     Errno = -11
	ErrEventNotInSet      Errno = -12
	ErrEventSetRunning    Errno = -13
	ErrEventSetNull       Errno = -14
	ErrNotInitialized     Errno = -15
	ErrCounterRead        Errno = -16
)

// CodeUnknown is what [Code] returns for errors that carry no [Errno].
const CodeUnknown = -99

func (e Errno) Error() string {
	return Strerror(int(e))
}

// Strerror returns the message for an error code. It is defined for every
// code, including 0 and codes the library never returns.
func Strerror(code int) string {
	switch Errno(code) {
	case 0:
		return "Operation completed successfully"
	case ErrEventNotFound:
		return "Event name not found"
	case ErrUnknownEventCode:
		return "Event set has an unknown event"
	case ErrCounterOpen:
		return "Error occurred during perf_event_open syscall"
	case ErrEventAlreadyInSet:
		return "Event already exists in event set"
	case ErrAlreadyRunning:
		return "One event capture set is already running, more are unsupported"
	case ErrNotRunning:
		return "Event capture is not running"
	case ErrEventSetNotFound:
		return "Event set not found"
	case ErrEventSetNotEmpty:
		return "Event set is not empty"
	case ErrEventSetNotNull:
		return "Event set is not Null"
	case ErrAlreadyInitialized:
		return "Library already initialized"
	case ErrInvalidVersion:
		return "Invalid version selected"
	case ErrEventNotInSet:
		return "Event is not present in event set"
	case ErrEventSetRunning:
		return "Event set is currently running"
	case ErrEventSetNull:
		return "Event set is not initialized"
	case ErrNotInitialized:
		return "Library is not initialized"
	case ErrCounterRead:
		return "Error occurred while reading a counter"
	default:
		return "Unknown error"
	}
}

// Code returns the numeric code carried by err: 0 for nil, the value of the
// first [Errno] in err's chain, or [CodeUnknown].
func Code(err error) int {
	if err == nil {
		return 0
	}
	var errno Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return CodeUnknown
}
