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

	"github.com/AleutianAI/sentinel/internal/config"
	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config root and trace store",
	Run:   runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
}

func runInit(cmd *cobra.Command, args []string) {
	path, err := config.Path(storeRootFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		ux.Muted(fmt.Sprintf("config already exists at %s (use --force to overwrite)", path))
		return
	}

	cfg := config.Default()
	if storeRootFlag != "" {
		cfg.StoreRoot = storeRootFlag
	}
	if err := config.Save(storeRootFlag, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := store.New(cfg.StoreRoot); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ux.Title(fmt.Sprintf("Initialized Sentinel store at %s", cfg.StoreRoot))
}
