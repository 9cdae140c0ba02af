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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/internal/config"
	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace/store"
	"github.com/AleutianAI/sentinel/services/trace/store/index"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the accelerator index's golden pointers from the trace store",
	Run:   runReindex,
}

// runReindex repopulates the Badger accelerator index's (model, provider)
// -> blessed trace_id pointers from a full scan of the JSON trace tree.
// Safe to run at any time: the index is never ground truth, and Get falls
// back to a filesystem scan for anything Rebuild doesn't restore.
//
// This loads the store and config directly rather than via openStore,
// since openStore already opens and attaches the same Badger directory
// when UseIndex is set, and Badger refuses a second concurrent handle on
// one directory.
func runReindex(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(storeRootFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !cfg.UseIndex {
		ux.Muted("use_index is disabled in config; nothing to rebuild")
		return
	}

	s, err := store.New(cfg.StoreRoot)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	traces, err := s.List(store.ListFilter{Limit: 10000000})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	idx, err := index.Open(filepath.Join(cfg.StoreRoot, "index"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer idx.Close()

	if err := idx.Rebuild(traces); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ux.Title(fmt.Sprintf("Rebuilt accelerator index from %d traces", len(traces)))
}
