// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trace defines the canonical, immutable record of a single model
// call and the deterministic pass/fail verdict attached to it.
//
// # Thread Safety
//
// Every type in this package is a value type. None of them expose mutating
// methods; the only way to change a Trace is to build a new one (see
// package capture and the Store.Bless contract in package store).
package trace

import "time"

// ============================================================================
// Request / Response / Runtime
// ============================================================================

// Message is one entry in an ordered chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// Parameters carries the generation parameters sent to the provider.
//
// Fields default to their zero value when unset; callers that need to
// distinguish "unset" from "explicitly zero" should not rely on this type
// and should instead record the distinction in Metadata.
type Parameters struct {
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop,omitempty"`
}

// Request is the normalized, recorded form of what was sent to the provider.
type Request struct {
	Provider   string     `json:"provider"`
	Model      string     `json:"model"`
	Messages   []Message  `json:"messages"`
	Parameters Parameters `json:"parameters"`
}

// Usage reports token accounting, when the provider exposes it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized, recorded form of what the provider returned.
type Response struct {
	Text      string `json:"text"`
	LatencyMS int    `json:"latency_ms"`
	Usage     *Usage `json:"usage,omitempty"`
}

// Runtime records which client library produced the response.
type Runtime struct {
	Library string `json:"library"`
	Version string `json:"version"`
}

// ============================================================================
// Verdict
// ============================================================================

// Severity orders the three levels a failing rule can carry.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// rank returns the total order used to pick the maximum severity among a
// set of failing rules. Unknown values sort below SeverityLow.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	default:
		return -1
	}
}

// MaxSeverity returns whichever of a, b ranks higher under
// low < medium < high.
func MaxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// VerdictStatus is pass or fail. There is no third state.
type VerdictStatus string

const (
	StatusPass VerdictStatus = "pass"
	StatusFail VerdictStatus = "fail"
)

// Verdict is the immutable, deterministic result of evaluating a Trace's
// response against a fixed rule set. Once attached to a Trace it is never
// recomputed or rewritten; see Invariant 1 in SPEC_FULL.md.
type Verdict struct {
	Status     VerdictStatus `json:"status"`
	Severity   *Severity     `json:"severity,omitempty"`
	Violations []string      `json:"violations"`
}

// IsFailing reports whether the verdict carries a fail status. A nil
// Verdict is treated as passing (no expectations were evaluated).
func (v *Verdict) IsFailing() bool {
	return v != nil && v.Status == StatusFail
}

// ============================================================================
// Trace
// ============================================================================

// Trace is the canonical immutable unit of this system: one captured model
// call, its verdict, and the causal keys that let it be stitched into an
// execution graph.
type Trace struct {
	TraceID       string `json:"trace_id"`
	Timestamp     string `json:"timestamp"`
	ExecutionID   string `json:"execution_id"`
	NodeID        string `json:"node_id"`
	ParentNodeID  string `json:"parent_node_id,omitempty"`

	Request  Request  `json:"request"`
	Response Response `json:"response"`
	Runtime  Runtime  `json:"runtime"`

	ReplayOf string                 `json:"replay_of,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Verdict  *Verdict               `json:"verdict,omitempty"`
	Blessed  bool                   `json:"blessed"`
}

// FirstUserMessage returns the content of the first message with
// role == "user", or "" if there is none. Used by role inference (C6.1)
// and human-label derivation.
func (t Trace) FirstUserMessage() string {
	for _, m := range t.Request.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

// DateDir returns the YYYY-MM-DD partition this trace belongs to, derived
// from Timestamp. Store uses this to pick the directory a trace is written
// into.
func (t Trace) DateDir() (string, error) {
	ts, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		return "", err
	}
	return ts.UTC().Format("2006-01-02"), nil
}
