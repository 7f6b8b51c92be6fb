// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perf

import (
	"testing"

	"github.com/perfpipedream/perfpipedream/events"
)

func openOrSkip(t *testing.T, code events.Code) *Counter {
	t.Helper()
	cfg, err := events.HardwareConfig(code)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Open(TargetThisGoroutine, cfg)
	if err != nil {
		t.Skipf("cannot open %s counter: %v", code, err)
	}
	return c
}

func TestOpenOne(t *testing.T) {
	c := openOrSkip(t, events.TotalInstructions)
	defer c.Close()

	doRead := func(min Count) Count {
		t.Helper()
		count, err := c.Read()
		if err != nil {
			t.Fatal("read failed:", err)
		}
		t.Logf("read %+v", count)
		checkCount(t, count, min)
		return count
	}

	c1 := doRead(Count{})
	if c1.RawValue != 0 || c1.TimeEnabled != 0 {
		t.Fatal("counter is non-zero before starting")
	}

	t.Log("starting counter")
	if err := c.Enable(); err != nil {
		t.Fatal(err)
	}
	c2 := doRead(c1)
	if c2.RawValue == 0 {
		t.Fatal("counter did not count while enabled")
	}

	t.Log("stopping counter")
	if err := c.Disable(); err != nil {
		t.Fatal(err)
	}
	c3 := doRead(c2)
	c4 := doRead(c2)
	if c3 != c4 {
		t.Fatal("counter changed while stopped")
	}

	t.Log("resetting counter")
	if err := c.Reset(); err != nil {
		t.Fatal(err)
	}
	if c5 := doRead(Count{}); c5.RawValue != 0 {
		t.Fatalf("counter is %d after reset", c5.RawValue)
	}
}

func TestClose(t *testing.T) {
	c := openOrSkip(t, events.TotalCycles)
	if c.Fd() < 0 {
		t.Fatal("open counter has no fd")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal("second close:", err)
	}
	if _, err := c.Read(); err != ErrClosed {
		t.Fatalf("read after close: got %v, want ErrClosed", err)
	}
	if err := c.Enable(); err != ErrClosed {
		t.Fatalf("enable after close: got %v, want ErrClosed", err)
	}
	if c.Fd() != -1 {
		t.Fatal("closed counter still has an fd")
	}
}

func TestValue(t *testing.T) {
	for _, tc := range []struct {
		c    Count
		want float64
	}{
		{Count{RawValue: 10, TimeEnabled: 5, TimeRunning: 5}, 10},
		{Count{RawValue: 10, TimeEnabled: 10, TimeRunning: 5}, 20},
		{Count{RawValue: 10, TimeEnabled: 10, TimeRunning: 0}, 0},
	} {
		if got := tc.c.Value(); got != tc.want {
			t.Errorf("%+v.Value() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func checkCount(t *testing.T, count Count, min Count) {
	t.Helper()
	if count.TimeRunning > count.TimeEnabled {
		t.Fatal("TimeRunning > TimeEnabled")
	}
	if count.RawValue < min.RawValue {
		t.Fatal("RawValue decreased")
	}
	if count.TimeEnabled < min.TimeEnabled {
		t.Fatal("TimeEnabled decreased")
	}
	if count.TimeRunning < min.TimeRunning {
		t.Fatal("TimeRunning decreased")
	}
}
