// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import "golang.org/x/sys/unix"

// SetAttrs sets the event selection fields of a [unix.PerfEventAttr]. Other
// fields are left alone.
func (c Config) SetAttrs(a *unix.PerfEventAttr) {
	a.Type = c.Type
	a.Config = c.Config
}
