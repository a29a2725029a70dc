/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

var stepsJSON bool

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Print the generated step sequence",
	Long: `Generate the steps of the timeline definition and print them.

Examples:
  # Table of index, label and instant
  timeline steps -f timeline.yaml

  # JSON array
  timeline steps -f timeline.yaml --json
`,
	RunE: runSteps,
}

func init() {
	stepsCmd.Flags().BoolVar(&stepsJSON, "json", false, "Print steps as JSON")
	rootCmd.AddCommand(stepsCmd)
}

func runSteps(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	opts, err := loadTimelineOptions()
	if err != nil {
		return err
	}
	return printSteps(cmd.OutOrStdout(), opts, stepsJSON)
}

type stepLine struct {
	Index int       `json:"index"`
	Label string    `json:"label"`
	Step  time.Time `json:"step"`
}

func printSteps(w io.Writer, opts timeline.Options, asJSON bool) error {
	opts.OnNextStep = func(time.Time) {}
	ctrl, err := timeline.New(opts)
	if err != nil {
		return err
	}

	steps, labels := ctrl.Steps(), ctrl.Labels()
	lines := make([]stepLine, len(steps))
	for i := range steps {
		lines[i] = stepLine{Index: i, Label: labels[i], Step: steps[i]}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tLABEL\tSTEP")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.Index, l.Label, l.Step.Format(time.RFC3339))
	}
	return tw.Flush()
}
