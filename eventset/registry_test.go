// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
)

const (
	cyc = events.TotalCycles
	ins = events.TotalInstructions
	l3a = events.Code(3)
	l3m = events.Code(4)
	bri = events.Code(5)
)

func TestCreateReusesFirstFreeSlot(t *testing.T) {
	lib, _ := newLibrary(t)

	h1, h2, h3 := eventset.Null, eventset.Null, eventset.Null
	require.NoError(t, lib.Create(&h1))
	require.NoError(t, lib.Create(&h2))
	require.NoError(t, lib.Create(&h3))
	assert.Equal(t, eventset.EventSet(1), h1)
	assert.Equal(t, eventset.EventSet(2), h2)
	assert.Equal(t, eventset.EventSet(3), h3)

	require.NoError(t, lib.Destroy(&h3))
	require.NoError(t, lib.Destroy(&h1))
	assert.Equal(t, eventset.Null, h1)
	assert.Equal(t, eventset.Null, h3)

	// Lowest freed slot first, then the next, then growth.
	for _, want := range []eventset.EventSet{1, 3, 4} {
		h := eventset.Null
		require.NoError(t, lib.Create(&h))
		assert.Equal(t, want, h)
	}
}

func TestCreateRequiresNull(t *testing.T) {
	lib, _ := newLibrary(t)

	h := eventset.Null
	require.NoError(t, lib.Create(&h))
	old := h
	require.ErrorIs(t, lib.Create(&h), eventset.ErrEventSetNotNull)
	assert.Equal(t, old, h)

	h = 42
	require.ErrorIs(t, lib.Create(&h), eventset.ErrEventSetNotNull)
}

func TestAddRemoveOrder(t *testing.T) {
	type op struct {
		add  bool
		code events.Code
	}
	add := func(c events.Code) op { return op{true, c} }
	rm := func(c events.Code) op { return op{false, c} }

	for _, tc := range []struct {
		name string
		ops  []op
		want []events.Code
	}{
		{"empty", nil, nil},
		{"adds", []op{add(ins), add(cyc), add(l3m)}, []events.Code{ins, cyc, l3m}},
		{"remove middle", []op{add(cyc), add(ins), add(l3a), rm(ins)}, []events.Code{cyc, l3a}},
		{"remove first", []op{add(cyc), add(ins), add(l3a), rm(cyc)}, []events.Code{ins, l3a}},
		{"remove last", []op{add(cyc), add(ins), add(l3a), rm(l3a)}, []events.Code{cyc, ins}},
		{"remove all", []op{add(cyc), add(ins), rm(ins), rm(cyc)}, nil},
		{"re-add goes last", []op{add(cyc), add(ins), rm(cyc), add(cyc)}, []events.Code{ins, cyc}},
		{"mixed", []op{add(bri), add(l3m), add(cyc), rm(l3m), add(ins), add(l3m), rm(bri)}, []events.Code{cyc, ins, l3m}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lib, _ := newLibrary(t)
			set := newSet(t, lib)
			for _, o := range tc.ops {
				if o.add {
					require.NoError(t, lib.AddEvent(set, o.code))
				} else {
					require.NoError(t, lib.RemoveEvent(set, o.code))
				}
			}
			got, err := lib.Events(set)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			n, err := lib.NumEvents(set)
			require.NoError(t, err)
			assert.Equal(t, len(tc.want), n)
		})
	}
}

func TestAddDuplicate(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib, cyc, ins)

	require.ErrorIs(t, lib.AddEvent(set, cyc), eventset.ErrEventAlreadyInSet)
	got, err := lib.Events(set)
	require.NoError(t, err)
	assert.Equal(t, []events.Code{cyc, ins}, got)
}

func TestRemoveMissing(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib, cyc, ins)

	require.ErrorIs(t, lib.RemoveEvent(set, l3m), eventset.ErrEventNotInSet)
	got, err := lib.Events(set)
	require.NoError(t, err)
	assert.Equal(t, []events.Code{cyc, ins}, got)

	empty := newSet(t, lib)
	require.ErrorIs(t, lib.RemoveEvent(empty, cyc), eventset.ErrEventNotInSet)
}

func TestEventsIsCopy(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib, cyc, ins)

	got, err := lib.Events(set)
	require.NoError(t, err)
	got[0] = l3m
	again, err := lib.Events(set)
	require.NoError(t, err)
	assert.Equal(t, []events.Code{cyc, ins}, again)
}

func TestCleanup(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib, cyc, ins)

	require.NoError(t, lib.Cleanup(set))
	got, err := lib.Events(set)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The handle survives and the set is usable again.
	require.NoError(t, lib.Cleanup(set))
	require.NoError(t, lib.AddEvent(set, ins))
	got, err = lib.Events(set)
	require.NoError(t, err)
	assert.Equal(t, []events.Code{ins}, got)
}

func TestDestroyedHandle(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib, cyc)
	old := set

	require.NoError(t, lib.Destroy(&set))
	assert.Equal(t, eventset.Null, set)

	out := make([]int64, 1)
	checks := map[string]error{
		"add":     lib.AddEvent(old, ins),
		"remove":  lib.RemoveEvent(old, cyc),
		"cleanup": lib.Cleanup(old),
		"start":   lib.Start(old),
		"read":    lib.Read(old, out),
		"stop":    lib.Stop(old, out),
	}
	_, checks["events"] = lib.Events(old)
	for name, err := range checks {
		assert.ErrorIs(t, err, eventset.ErrEventSetNotFound, name)
	}
	h := old
	require.ErrorIs(t, lib.Destroy(&h), eventset.ErrEventSetNotFound)
	assert.Equal(t, old, h, "failed destroy must not touch the handle")

	// Recycling the slot makes the old value valid again.
	set = eventset.Null
	require.NoError(t, lib.Create(&set))
	assert.Equal(t, old, set)
	got, err := lib.Events(old)
	require.NoError(t, err)
	assert.Empty(t, got, "recycled set must start empty")
}

func TestInvalidHandles(t *testing.T) {
	lib, _ := newLibrary(t)
	newSet(t, lib, cyc)

	for _, tc := range []struct {
		h    eventset.EventSet
		want error
	}{
		{eventset.Null, eventset.ErrEventSetNull},
		{0, eventset.ErrEventSetNotFound},
		{-7, eventset.ErrEventSetNotFound},
		{2, eventset.ErrEventSetNotFound},
		{1000, eventset.ErrEventSetNotFound},
	} {
		assert.ErrorIs(t, lib.AddEvent(tc.h, ins), tc.want, "add %d", tc.h)
		assert.ErrorIs(t, lib.RemoveEvent(tc.h, cyc), tc.want, "remove %d", tc.h)
		assert.ErrorIs(t, lib.Cleanup(tc.h), tc.want, "cleanup %d", tc.h)
		assert.ErrorIs(t, lib.Start(tc.h), tc.want, "start %d", tc.h)
		assert.ErrorIs(t, lib.Read(tc.h, nil), tc.want, "read %d", tc.h)
		assert.ErrorIs(t, lib.Stop(tc.h, nil), tc.want, "stop %d", tc.h)
		h := tc.h
		assert.ErrorIs(t, lib.Destroy(&h), tc.want, "destroy %d", tc.h)
		assert.Equal(t, tc.h, h)
	}
	_, running := lib.Running()
	assert.False(t, running)
}

func TestAddDoesNotValidateCodes(t *testing.T) {
	lib, _ := newLibrary(t)
	set := newSet(t, lib)

	require.NoError(t, lib.AddEvent(set, events.NoEvent))
	require.NoError(t, lib.AddEvent(set, 1000))
	got, err := lib.Events(set)
	require.NoError(t, err)
	assert.True(t, slices.Equal([]events.Code{events.NoEvent, 1000}, got))
}

func TestNilHandlePointer(t *testing.T) {
	lib, _ := newLibrary(t)
	require.ErrorIs(t, lib.Create(nil), eventset.ErrEventSetNull)
	require.ErrorIs(t, lib.Destroy(nil), eventset.ErrEventSetNull)

	// The registry is untouched.
	set := eventset.Null
	require.NoError(t, lib.Create(&set))
	assert.Equal(t, eventset.EventSet(1), set)
}
