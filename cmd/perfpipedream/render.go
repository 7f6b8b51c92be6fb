// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

const labelWidth = 12

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFE66D"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(labelWidth)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	ipcStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Width(4)
	nameStyle   = lipgloss.NewStyle().Bold(true).Width(24)
	perfStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3")).Width(22)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Width(6)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Width(6)
)

// execResult is one execution of the demonstration workload.
type execResult struct {
	Reps         int64   `yaml:"reps"`
	Cycles       int64   `yaml:"cycles"`
	Instructions int64   `yaml:"instructions"`
	IPC          float64 `yaml:"ipc"`
}

// reporter receives workload progress.
type reporter interface {
	running(exec int, reps int64)
	result(r execResult)
	flush() error
}

func newReporter(w io.Writer, format string) reporter {
	if format == "yaml" {
		return &yamlReporter{w: w}
	}
	return &textReporter{w: w}
}

type textReporter struct {
	w io.Writer
}

func (t *textReporter) running(exec int, reps int64) {
	if exec > 0 {
		fmt.Fprintln(t.w)
	}
	fmt.Fprintln(t.w, headerStyle.Render(fmt.Sprintf("Running: %d...", reps)))
}

func (t *textReporter) result(r execResult) {
	line := func(label, value string) {
		fmt.Fprintln(t.w, labelStyle.Render(label)+valueStyle.Render(value))
	}
	line("Num reps:", strconv.FormatInt(r.Reps, 10))
	line("Num cycles:", strconv.FormatInt(r.Cycles, 10))
	line("Num instrs:", strconv.FormatInt(r.Instructions, 10))
	fmt.Fprintln(t.w, labelStyle.Render("IPC:")+ipcStyle.Render(fmt.Sprintf("%f", r.IPC)))
}

func (t *textReporter) flush() error { return nil }

type yamlReporter struct {
	w    io.Writer
	runs []execResult
}

func (y *yamlReporter) running(int, int64) {}

func (y *yamlReporter) result(r execResult) {
	y.runs = append(y.runs, r)
}

func (y *yamlReporter) flush() error {
	return encodeYAML(y.w, map[string]any{"runs": y.runs})
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// eventRow is one catalog entry as listed by the events command.
type eventRow struct {
	Code        int    `yaml:"code"`
	Name        string `yaml:"name"`
	PerfName    string `yaml:"perf_name,omitempty"`
	Description string `yaml:"description"`
	Query       string `yaml:"query"`
	Available   bool   `yaml:"available"`
}

func renderEvents(w io.Writer, format string, rows []eventRow) error {
	if format == "yaml" {
		return encodeYAML(w, map[string]any{"events": rows})
	}
	for _, r := range rows {
		avail := badStyle.Render("no")
		if r.Available {
			avail = okStyle.Render("yes")
		}
		perfName := r.PerfName
		if perfName == "" {
			perfName = "-"
		}
		fmt.Fprintln(w, codeStyle.Render(strconv.Itoa(r.Code))+
			nameStyle.Render(r.Name)+
			perfStyle.Render(perfName)+
			avail+
			r.Description)
	}
	return nil
}
