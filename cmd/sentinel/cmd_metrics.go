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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/services/trace/store"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print captures/store-op/regression counters in Prometheus text format",
	Run:   runMetrics,
}

// runMetrics touches the store once so sentinelMetrics has at least one
// real sample for this process, then dumps everything gathered by
// prometheus.DefaultGatherer to stdout. There is no long-running HTTP
// surface here; this command is the scrape target for anyone who wants
// one, run on a cron or piped straight into a pushgateway.
func runMetrics(cmd *cobra.Command, args []string) {
	s, _, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := s.List(store.ListFilter{Limit: 1}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
