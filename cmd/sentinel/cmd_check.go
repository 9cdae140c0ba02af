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
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace/regression"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-invoke every blessed trace and compare output fingerprints",
	Run:   runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
}

func runCheck(cmd *cobra.Command, args []string) {
	s, cfg, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	registry := buildRegistry(cfg)
	report, err := regression.Check(context.Background(), s, registry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if checkJSON {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		os.Exit(report.ExitCode())
	}

	for _, rec := range report.Records {
		icon := ux.StatusIcon(rec.Passed)
		if rec.Error != "" {
			fmt.Printf("%s  %s  %s/%s  error: %s\n", icon, rec.TraceID, rec.Provider, rec.Model, rec.Error)
			continue
		}
		fmt.Printf("%s  %s  %s/%s  old=%s new=%s\n", icon, rec.TraceID, rec.Provider, rec.Model, rec.OldHash, rec.NewHash)
	}
	ux.Title(fmt.Sprintf("%d checked, %d failed", len(report.Records), report.Failures))

	os.Exit(report.ExitCode())
}
