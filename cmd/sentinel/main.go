// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command sentinel is the operator CLI over a Sentinel trace store:
// listing, inspecting, replaying, blessing, and regression-checking
// captured model calls.
//
// Usage:
//
//	sentinel init [--force]
//	sentinel list [--limit] [--model] [--provider] [--failed]
//	sentinel show <trace_id> [--json]
//	sentinel replay <trace_id>
//	sentinel bless <trace_id> [--force] [--yes]
//	sentinel check [--json]
//	sentinel graph-check
//	sentinel reindex
//	sentinel metrics
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	shutdown, err := setupTracing()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tracing setup failed:", err)
		return 1
	}
	defer shutdown(context.Background())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
