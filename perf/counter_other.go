// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package perf

import "github.com/perfpipedream/perfpipedream/events"

type Counter struct{}

func Open(Target, events.Config) (*Counter, error) {
	return nil, ErrNotSupported
}

func Available(events.Config) bool { return false }

func (c *Counter) Fd() int { return -1 }

func (c *Counter) Reset() error { return ErrNotSupported }

func (c *Counter) Enable() error { return ErrNotSupported }

func (c *Counter) Disable() error { return ErrNotSupported }

func (c *Counter) Read() (Count, error) { return Count{}, ErrNotSupported }

func (c *Counter) Close() error { return nil }
