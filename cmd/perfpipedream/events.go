// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/perfpipedream/perfpipedream/events"
	"github.com/perfpipedream/perfpipedream/eventset"
)

func newEventsCmd(d deps, cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the event catalog and which events this machine can count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderEvents(cmd.OutOrStdout(), cfg.Output, catalogRows(d))
		},
	}
}

func catalogRows(d deps) []eventRow {
	var rows []eventRow
	for _, e := range events.All() {
		row := eventRow{
			Code:        int(e.Code),
			Name:        e.Name,
			PerfName:    e.PerfName,
			Description: e.Description,
			Query:       "ok",
		}
		if err := eventset.QueryEvent(e.Code); err != nil {
			row.Query = err.Error()
		}
		if _, err := events.HardwareConfig(e.Code); err == nil {
			row.Available = d.available(e.Config)
		}
		rows = append(rows, row)
	}
	return rows
}
