// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/ux"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <trace_id>",
	Short: "Show one trace",
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the raw JSON record")
}

func runShow(cmd *cobra.Command, args []string) {
	s, _, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	t, err := s.Get(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if t == nil {
		fmt.Fprintf(os.Stderr, "trace %q not found\n", args[0])
		os.Exit(1)
	}

	if showJSON {
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	ux.Title(fmt.Sprintf("%s  %s/%s", t.TraceID, t.Request.Provider, t.Request.Model))
	fmt.Printf("execution_id: %s\n", t.ExecutionID)
	fmt.Printf("node_id:      %s\n", t.NodeID)
	fmt.Printf("latency_ms:   %d\n", t.Response.LatencyMS)
	fmt.Printf("response:     %s\n", t.Response.Text)
	if t.Verdict != nil {
		fmt.Printf("verdict:      %s %s\n", ux.StatusIcon(!t.Verdict.IsFailing()), t.Verdict.Status)
		for _, v := range t.Verdict.Violations {
			fmt.Printf("  - %s\n", v)
		}
	}
	if t.Blessed {
		fmt.Println(ux.Styles.Label.Render("blessed"))
	}
}
