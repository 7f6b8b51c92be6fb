// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command perfpipedream counts hardware events around a small demonstration
// workload and inspects the event catalog.
//
// Usage:
//
//	perfpipedream run [--reps N] [--execs N] [--size N]
//	perfpipedream events
//	perfpipedream strerror CODE
//
// The --debug and --trap flags, or the PERF_PIPEDREAM_DEBUG and
// PERF_PIPEDREAM_TRAP environment variables, turn on call tracing and
// abort-on-error in the counting library.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
