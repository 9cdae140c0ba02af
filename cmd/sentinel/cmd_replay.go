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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/pkg/ux"
	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/provider"
)

var (
	replayModel  string
	replayDryRun bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace_id>",
	Short: "Re-invoke a single trace against its provider, optionally under a different model",
	Args:  cobra.ExactArgs(1),
	Run:   runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayModel, "model", "", "override the original model")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "invoke and print, but don't store the result")
}

func runReplay(cmd *cobra.Command, args []string) {
	s, cfg, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	original, err := s.Get(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if original == nil {
		fmt.Fprintf(os.Stderr, "trace %q not found\n", args[0])
		os.Exit(1)
	}

	model := original.Request.Model
	if replayModel != "" {
		model = replayModel
	}

	registry := buildRegistry(cfg)
	callable, ok := registry.Build(original.Request.Provider, model, toProviderMessages(original.Request.Messages), toProviderParameters(original.Request.Parameters))
	if !ok {
		fmt.Fprintf(os.Stderr, "no provider registered for %q\n", original.Request.Provider)
		os.Exit(1)
	}

	start := time.Now()
	raw, callErr := callable(context.Background())
	latencyMS := int(time.Since(start).Milliseconds())
	if callErr != nil {
		fmt.Fprintln(os.Stderr, callErr)
		os.Exit(1)
	}

	text := provider.NormalizeText(raw)
	fmt.Println(text)

	if replayDryRun {
		return
	}

	replay := trace.Trace{
		TraceID:     fmt.Sprintf("%s-replay-%d", original.TraceID, time.Now().UnixNano()),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ExecutionID: original.ExecutionID,
		NodeID:      fmt.Sprintf("%s-replay", original.NodeID),
		Request:     trace.Request{Model: model, Provider: original.Request.Provider, Messages: original.Request.Messages, Parameters: original.Request.Parameters},
		Response:    trace.Response{Text: text, LatencyMS: latencyMS},
		Runtime:     trace.Runtime{Library: provider.DetectLibrary(original.Request.Provider), Version: "unknown"},
		ReplayOf:    original.TraceID,
	}
	if err := s.Save(replay); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ux.Muted(fmt.Sprintf("stored as %s", replay.TraceID))
}

func toProviderMessages(msgs []trace.Message) []provider.Message {
	out := make([]provider.Message, len(msgs))
	for i, m := range msgs {
		out[i] = provider.Message{Role: m.Role, Content: m.Content, Name: m.Name}
	}
	return out
}

func toProviderParameters(p trace.Parameters) provider.Parameters {
	return provider.Parameters{
		Temperature:      p.Temperature,
		MaxTokens:        p.MaxTokens,
		TopP:             p.TopP,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
		Stop:             p.Stop,
	}
}
