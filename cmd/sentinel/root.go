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
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/internal/config"
	"github.com/AleutianAI/sentinel/internal/metrics"
	"github.com/AleutianAI/sentinel/services/trace/store"
	"github.com/AleutianAI/sentinel/services/trace/store/index"
)

var storeRootFlag string

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Regression testing and observability for LLM-invoking programs",
	Long: `sentinel inspects, replays, and regression-checks traces captured by
the Sentinel capture pipeline: one JSON record per model call, organized
into execution graphs with pass/fail verdicts.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeRootFlag, "store-root", "", "trace store root (default ~/.sentinel)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(blessCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCheckCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(metricsCmd)
}

// sentinelMetrics is the one Registry the CLI's store operations record
// against for the lifetime of the process; metricsCmd gathers it back out.
var sentinelMetrics = metrics.New(prometheus.DefaultRegisterer)

// openStore loads config and opens the FileStore it describes. When
// cfg.UseIndex is set, it also opens the Badger accelerator index under
// <StoreRoot>/index and attaches it via WithIndex, so Get/GetGolden hit
// the index instead of scanning the JSON tree. Save, List, Delete and
// Bless outcomes are recorded against sentinelMetrics.
func openStore() (*store.FileStore, config.Config, error) {
	cfg, err := config.Load(storeRootFlag)
	if err != nil {
		return nil, config.Config{}, err
	}
	s, err := store.New(cfg.StoreRoot)
	if err != nil {
		return nil, config.Config{}, err
	}
	s.WithMetrics(sentinelMetrics)
	if cfg.UseIndex {
		idx, err := index.Open(filepath.Join(cfg.StoreRoot, "index"))
		if err != nil {
			return nil, config.Config{}, err
		}
		s.WithIndex(idx)
	}
	return s, cfg, nil
}
