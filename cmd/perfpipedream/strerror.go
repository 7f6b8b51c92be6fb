// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/perfpipedream/perfpipedream/eventset"
)

func newStrerrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "strerror CODE",
		Short:   "Print the message for a library error code",
		Example: `  perfpipedream strerror -6`,
		Args:    cobra.ExactArgs(1),

		// Error codes are negative and would parse as shorthand flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid error code %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), eventset.Strerror(code))
			return nil
		},
	}
}
