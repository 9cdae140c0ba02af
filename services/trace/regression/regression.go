// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package regression re-invokes blessed traces against their original
// provider and checks the new output's fingerprint against the golden
// hash. This is the CI contract: exit 0 iff every blessed trace still
// matches.
package regression

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/graph"
	"github.com/AleutianAI/sentinel/services/trace/provider"
	"github.com/AleutianAI/sentinel/services/trace/store"
)

// Store is the subset of store.FileStore regression checking needs.
type Store interface {
	ListBlessed() ([]trace.Trace, error)
	Save(trace.Trace) error
	List(filter store.ListFilter) ([]trace.Trace, error)
	TracesByExecution(executionID string) ([]trace.Trace, error)
}

// Record is one blessed trace's regression result.
type Record struct {
	TraceID    string `json:"trace_id"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	Passed     bool   `json:"passed"`
	OldHash    string `json:"old_hash"`
	NewHash    string `json:"new_hash,omitempty"`
	Error      string `json:"error,omitempty"`
	ReplayID   string `json:"replay_trace_id,omitempty"`
}

// Report is the outcome of a full Check run.
type Report struct {
	Records  []Record `json:"records"`
	Failures int      `json:"failures"`
}

// ExitCode returns 0 iff every record passed.
func (r Report) ExitCode() int {
	if r.Failures == 0 {
		return 0
	}
	return 1
}

// Check re-invokes every blessed trace's original call via the provider
// registry and compares the new output's fingerprint to
// metadata.output_hash. Any provider error counts as a failure for that
// record. Whenever the provider call returns, a new trace is stored with
// replay_of set to the original, whether or not the fingerprint matches;
// a record whose provider is unregistered or whose call fails stores no
// replay trace.
func Check(ctx context.Context, s Store, registry *provider.Registry) (Report, error) {
	blessed, err := s.ListBlessed()
	if err != nil {
		return Report{}, fmt.Errorf("list blessed traces: %w", err)
	}

	var report Report
	for _, original := range blessed {
		rec := Record{
			TraceID:  original.TraceID,
			Model:    original.Request.Model,
			Provider: original.Request.Provider,
			OldHash:  outputHash(original),
		}

		callable, ok := registry.Build(original.Request.Provider, original.Request.Model, toProviderMessages(original.Request.Messages), toProviderParameters(original.Request.Parameters))
		if !ok {
			rec.Error = fmt.Sprintf("no provider registered for %q", original.Request.Provider)
			report.Failures++
			report.Records = append(report.Records, rec)
			continue
		}

		start := time.Now()
		raw, callErr := callable(ctx)
		latencyMS := int(time.Since(start).Milliseconds())

		if callErr != nil {
			rec.Error = callErr.Error()
			report.Failures++
			report.Records = append(report.Records, rec)
			continue
		}

		newText := provider.NormalizeText(raw)
		rec.NewHash = fingerprint(newText)
		rec.Passed = rec.NewHash == rec.OldHash

		replay := trace.Trace{
			TraceID:      fmt.Sprintf("%s-replay-%d", original.TraceID, time.Now().UnixNano()),
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			ExecutionID:  original.ExecutionID,
			NodeID:       fmt.Sprintf("%s-replay", original.NodeID),
			Request:      original.Request,
			Response:     trace.Response{Text: newText, LatencyMS: latencyMS},
			Runtime:      trace.Runtime{Library: provider.DetectLibrary(original.Request.Provider), Version: "unknown"},
			ReplayOf:     original.TraceID,
		}
		if err := s.Save(replay); err != nil {
			rec.Error = fmt.Sprintf("replay stored failed: %v", err)
		} else {
			rec.ReplayID = replay.TraceID
		}

		if !rec.Passed {
			report.Failures++
		}
		report.Records = append(report.Records, rec)
	}

	return report, nil
}

func outputHash(t trace.Trace) string {
	if t.Metadata == nil {
		return ""
	}
	h, _ := t.Metadata["output_hash"].(string)
	return h
}

func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
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

// GraphReport is the outcome of GraphCheck.
type GraphReport struct {
	ExecutionIDs []string `json:"execution_ids"`
	Failed       []string `json:"failed_execution_ids"`
}

// ExitCode returns 0 iff no execution graph failed.
func (r GraphReport) ExitCode() int {
	if len(r.Failed) == 0 {
		return 0
	}
	return 1
}

// GraphCheck walks every stored execution and reports which ones have a
// failing ComputeVerdict().
func GraphCheck(s Store) (GraphReport, error) {
	all, err := s.List(store.ListFilter{Limit: 1000000})
	if err != nil {
		return GraphReport{}, fmt.Errorf("list traces: %w", err)
	}

	var order []string
	seen := map[string]bool{}
	for _, t := range all {
		if !seen[t.ExecutionID] {
			seen[t.ExecutionID] = true
			order = append(order, t.ExecutionID)
		}
	}

	var report GraphReport
	for _, execID := range order {
		report.ExecutionIDs = append(report.ExecutionIDs, execID)

		traces, err := s.TracesByExecution(execID)
		if err != nil {
			report.Failed = append(report.Failed, execID)
			continue
		}

		g, err := graph.Build(traces)
		if err != nil {
			report.Failed = append(report.Failed, execID)
			continue
		}
		if g.ComputeVerdict().Status == trace.StatusFail {
			report.Failed = append(report.Failed, execID)
		}
	}
	return report, nil
}
