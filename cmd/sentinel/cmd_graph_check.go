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
	"github.com/AleutianAI/sentinel/services/trace/regression"
)

var graphCheckCmd = &cobra.Command{
	Use:   "graph-check",
	Short: "Verify every stored execution's graph still computes a passing verdict",
	Run:   runGraphCheck,
}

func runGraphCheck(cmd *cobra.Command, args []string) {
	s, _, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	report, err := regression.GraphCheck(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, execID := range report.ExecutionIDs {
		failed := false
		for _, f := range report.Failed {
			if f == execID {
				failed = true
				break
			}
		}
		fmt.Printf("%s  %s\n", ux.StatusIcon(!failed), execID)
	}
	ux.Title(fmt.Sprintf("%d executions, %d failed", len(report.ExecutionIDs), len(report.Failed)))

	os.Exit(report.ExitCode())
}
