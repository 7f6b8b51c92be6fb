// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/viper"
)

const envPrefix = "PERF_PIPEDREAM"

type config struct {
	Debug  bool
	Trap   bool
	Reps   int64
	Execs  int
	Size   int
	Output string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("trap", false)
	v.SetDefault("reps", 1000)
	v.SetDefault("execs", 5)
	v.SetDefault("size", 100000)
	v.SetDefault("output", "text")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// loadConfig reads cfgFile, if any, and returns the merged settings of v.
func loadConfig(v *viper.Viper, cfgFile string) (config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg := config{
		Debug:  v.GetBool("debug"),
		Trap:   v.GetBool("trap"),
		Reps:   v.GetInt64("reps"),
		Execs:  v.GetInt("execs"),
		Size:   v.GetInt("size"),
		Output: v.GetString("output"),
	}
	switch {
	case cfg.Reps <= 0:
		return config{}, fmt.Errorf("reps must be positive, got %d", cfg.Reps)
	case cfg.Execs < 0:
		return config{}, fmt.Errorf("execs must not be negative, got %d", cfg.Execs)
	case cfg.Size <= 0:
		return config{}, fmt.Errorf("size must be positive, got %d", cfg.Size)
	case cfg.Output != "text" && cfg.Output != "yaml":
		return config{}, fmt.Errorf("unknown output format %q (want text or yaml)", cfg.Output)
	}
	return cfg, nil
}
