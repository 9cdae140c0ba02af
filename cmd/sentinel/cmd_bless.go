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
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace/errs"
)

var (
	blessForce bool
	blessYes   bool
)

var blessCmd = &cobra.Command{
	Use:   "bless <trace_id>",
	Short: "Mark a trace as the golden reference for its model/provider pair",
	Args:  cobra.ExactArgs(1),
	Run:   runBless,
}

func init() {
	blessCmd.Flags().BoolVar(&blessForce, "force", false, "demote the current golden trace for this model/provider")
	blessCmd.Flags().BoolVar(&blessYes, "yes", false, "skip the confirmation prompt")
}

func runBless(cmd *cobra.Command, args []string) {
	s, _, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	traceID := args[0]

	if !blessYes {
		fmt.Printf("Bless %s as golden? [y/N] ", traceID)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			ux.Muted("aborted")
			return
		}
	}

	t, err := s.Bless(traceID, blessForce)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyBlessed) {
			fmt.Fprintf(os.Stderr, "%v; re-run with --force\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	ux.Title(fmt.Sprintf("Blessed %s (%s/%s)", t.TraceID, t.Request.Provider, t.Request.Model))
}
