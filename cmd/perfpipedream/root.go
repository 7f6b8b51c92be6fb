// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
	"github.com/perfpipedream/perfpipedream/perf"
)

// deps is what the commands need from the outside world. Tests replace it.
type deps struct {
	newLogger func(debug bool) (logr.Logger, func(), error)
	available func(events.Config) bool
	exit      func(code int)
	libOpts   []eventset.Option
}

func defaultDeps() deps {
	return deps{
		newLogger: newZapLogger,
		available: perf.Available,
		exit:      os.Exit,
	}
}

func newRootCmd(d deps) *cobra.Command {
	var cfgFile string
	v := newViper()
	cfg := &config{}

	root := &cobra.Command{
		Use:   "perfpipedream",
		Short: "Count hardware events with kernel performance counters",
		Long: `perfpipedream groups hardware events into event sets and counts them
around a region of code with Linux perf_event_open counters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			*cfg = c
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.Bool("debug", false, "trace every library call (env "+envPrefix+"_DEBUG)")
	flags.Bool("trap", false, "abort on any library error (env "+envPrefix+"_TRAP)")
	flags.StringP("output", "o", "text", "output format: text or yaml")
	for _, name := range []string{"debug", "trap", "output"} {
		v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(newRunCmd(d, v, cfg))
	root.AddCommand(newEventsCmd(d, cfg))
	root.AddCommand(newStrerrorCmd())
	return root
}

// newLibrary returns a library configured from cfg and a func that releases
// its logger.
func newLibrary(d deps, cfg *config) (*eventset.Library, func(), error) {
	logger, flush, err := d.newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	opts := []eventset.Option{
		eventset.WithLogger(logger),
		eventset.WithDebug(cfg.Debug),
		eventset.WithTrap(cfg.Trap),
		eventset.WithAbort(func(error) {
			flush()
			d.exit(134)
		}),
	}
	return eventset.New(append(opts, d.libOpts...)...), flush, nil
}
