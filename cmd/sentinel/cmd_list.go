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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace/store"
)

var (
	listLimit    int
	listModel    string
	listProvider string
	listFailed   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured traces, newest first",
	Run:   runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum traces to show")
	listCmd.Flags().StringVar(&listModel, "model", "", "filter by model")
	listCmd.Flags().StringVar(&listProvider, "provider", "", "filter by provider")
	listCmd.Flags().BoolVar(&listFailed, "failed", false, "show only failing traces")
}

func runList(cmd *cobra.Command, args []string) {
	s, _, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	traces, err := s.List(store.ListFilter{Limit: listLimit, Model: listModel, Provider: listProvider, Failed: listFailed})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(traces) == 0 {
		ux.Muted("no traces found")
		return
	}

	for _, t := range traces {
		status := "-"
		if t.Verdict != nil {
			status = ux.StatusIcon(!t.Verdict.IsFailing())
		}
		blessed := ""
		if t.Blessed {
			blessed = ux.Styles.Label.Render(" [blessed]")
		}
		fmt.Printf("%s  %s  %-12s %-10s %5dms  %s%s\n",
			status, t.TraceID, t.Request.Provider, t.Request.Model, t.Response.LatencyMS, t.Timestamp, blessed)
	}
}
