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
	"os"

	"github.com/AleutianAI/sentinel/internal/config"
	"github.com/AleutianAI/sentinel/services/trace/provider"
	"github.com/AleutianAI/sentinel/services/trace/provider/openai"
)

// buildRegistry registers every provider adapter this module ships. A
// blank API key still registers the adapter; the call simply fails at
// invocation time, which regression.Check already reports as a record
// error rather than a panic.
func buildRegistry(cfg config.Config) *provider.Registry {
	registry := provider.NewRegistry()

	apiKey := os.Getenv(cfg.OpenAIAPIKeyEnv)
	adapter := openai.NewAdapter(openai.NewClient(apiKey))
	registry.Register("openai", adapter.Constructor())

	return registry
}
