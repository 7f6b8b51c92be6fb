// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
)

func newRunCmd(d deps, v *viper.Viper, cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count cycles and instructions of a multiply loop",
		Long: `Run a multiply loop over two arrays several times, counting CPU cycles and
retired instructions around each execution. The repetition count grows tenfold
per execution. Between executions the event set is rebuilt in different ways
to exercise the whole library life cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, flush, err := newLibrary(d, cfg)
			if err != nil {
				return err
			}
			defer flush()

			rep := newReporter(cmd.OutOrStdout(), cfg.Output)
			if err := runWorkload(lib, *cfg, rep); err != nil {
				return err
			}
			return rep.flush()
		},
	}

	flags := cmd.Flags()
	flags.Int64("reps", 1000, "repetitions of the first execution")
	flags.Int("execs", 5, "number of executions")
	flags.Int("size", 100000, "array length")
	for _, name := range []string{"reps", "execs", "size"} {
		v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

// sink keeps the multiply loop from being optimized away.
var sink int32

// workload drives one Library through the demonstration life cycle.
type workload struct {
	lib *eventset.Library
	set eventset.EventSet
	cyc events.Code
	ins events.Code
}

func runWorkload(lib *eventset.Library, cfg config, rep reporter) error {
	w := &workload{lib: lib, set: eventset.Null}
	if err := w.init(); err != nil {
		return err
	}
	var err error
	if w.cyc, err = eventset.CodeForName("PAPI_TOT_CYC"); err != nil {
		return err
	}
	if w.ins, err = eventset.CodeForName("PAPI_TOT_INS"); err != nil {
		return err
	}
	if err := w.create(); err != nil {
		return err
	}

	a := make([]int32, cfg.Size)
	b := make([]int32, cfg.Size)
	a[0], b[0] = 4, 8
	for i := 1; i < cfg.Size; i++ {
		a[i] = (a[i-1] * 42) % 405
		b[i] = (a[i] * 56) % 308
	}

	values := make([]int64, 2)
	reps := cfg.Reps
	size := int64(cfg.Size)
	for e := 0; e < cfg.Execs; e++ {
		its, rounds := reps, int64(1)
		if reps > size {
			its, rounds = size, reps/size
		}

		if err := lib.AddEvent(w.set, w.ins); err != nil {
			return err
		}
		if err := lib.Start(w.set); err != nil {
			return err
		}

		rep.running(e, rounds*its)
		for r := int64(0); r < rounds; r++ {
			for i := int64(0); i < its; i++ {
				b[i] = a[i] * b[i]
			}
		}

		// Alternate between a final read and a read before stopping.
		if e%2 == 1 {
			err = lib.Stop(w.set, values)
		} else {
			err = lib.Read(w.set, values)
			if err == nil {
				err = lib.Stop(w.set, nil)
			}
		}
		if err != nil {
			return err
		}
		if err := lib.RemoveEvent(w.set, w.ins); err != nil {
			return err
		}
		if err := w.rebuild(e); err != nil {
			return err
		}
		sink = b[rand.IntN(cfg.Size)]

		ipc := 0.0
		if values[0] != 0 {
			ipc = float64(values[1]) / float64(values[0])
		}
		rep.result(execResult{
			Reps:         rounds * its,
			Cycles:       values[0],
			Instructions: values[1],
			IPC:          ipc,
		})
		reps *= 10
	}

	if err := lib.Cleanup(w.set); err != nil {
		return err
	}
	if err := lib.Destroy(&w.set); err != nil {
		return err
	}
	lib.Shutdown()
	return nil
}

func (w *workload) init() error {
	version, err := w.lib.Init(eventset.CurrentVersion)
	if err != nil {
		return err
	}
	if version != eventset.CurrentVersion {
		return fmt.Errorf("bad version %d, expected %d", version, eventset.CurrentVersion)
	}
	return nil
}

// create makes a fresh event set counting cycles.
func (w *workload) create() error {
	w.set = eventset.Null
	if err := w.lib.Create(&w.set); err != nil {
		return err
	}
	return w.lib.AddEvent(w.set, w.cyc)
}

// rebuild takes the set apart in a different way after each of the first
// executions and leaves it counting cycles only.
func (w *workload) rebuild(exec int) error {
	switch exec {
	case 0:
		w.lib.Shutdown()
		if err := w.init(); err != nil {
			return err
		}
		return w.create()
	case 1:
		if err := w.lib.Cleanup(w.set); err != nil {
			return err
		}
		return w.lib.AddEvent(w.set, w.cyc)
	case 2:
		if err := w.lib.Destroy(&w.set); err != nil {
			return err
		}
		return w.create()
	case 3:
		if err := w.lib.RemoveEvent(w.set, w.cyc); err != nil {
			return err
		}
		if err := w.lib.Cleanup(w.set); err != nil {
			return err
		}
		return w.lib.AddEvent(w.set, w.cyc)
	}
	return nil
}
