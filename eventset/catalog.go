// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import (
	"strconv"

	"github.com/perfpipedream/perfpipedream/events"
)

// lookupError reports a catalog lookup failure as an [Errno] about subject. It
// also unwraps to the catalog's own error, but only the Errno's message is
// printed.
type lookupError struct {
	kind    Errno
	subject string
	err     error
}

func (e *lookupError) Error() string {
	return e.kind.Error() + ": " + e.subject
}

func (e *lookupError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// CodeForName returns the catalog code of the event called name. It can be
// used to probe for an event: it needs no initialization and never traps.
func CodeForName(name string) (events.Code, error) {
	code, err := events.CodeForName(name)
	if err != nil {
		return events.NoEvent, &lookupError{kind: ErrEventNotFound, subject: strconv.Quote(name), err: err}
	}
	return code, nil
}

// QueryEvent reports whether code is part of the catalog. Like CodeForName it
// needs no initialization and never traps.
func QueryEvent(code events.Code) error {
	if err := events.Query(code); err != nil {
		return &lookupError{kind: ErrUnknownEventCode, subject: strconv.Itoa(int(code)), err: err}
	}
	return nil
}
