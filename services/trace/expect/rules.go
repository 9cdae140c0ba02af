// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package expect is the deterministic expectation evaluator. It implements
// a closed set of four rules against a response's text and latency and
// produces an immutable trace.Verdict. There is no extension point: adding
// a fifth rule means adding a case here, not registering a plugin.
package expect

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/sentinel/services/trace"
)

// RuleResult is the outcome of evaluating a single rule.
type RuleResult struct {
	Passed           bool
	RuleName         string
	Severity         trace.Severity
	ViolationMessage string
}

// Rule is the closed sum of evaluable expectations.
type Rule interface {
	// Evaluate runs the rule against a response's text and latency.
	Evaluate(responseText string, latencyMS int) RuleResult
}

// MustInclude fails if any of Substrings is absent from the response text.
// Severity low.
type MustInclude struct {
	Substrings    []string
	CaseSensitive bool
}

func (r MustInclude) Evaluate(responseText string, _ int) RuleResult {
	haystack := responseText
	if !r.CaseSensitive {
		haystack = strings.ToLower(haystack)
	}
	var missing []string
	for _, s := range r.Substrings {
		needle := s
		if !r.CaseSensitive {
			needle = strings.ToLower(needle)
		}
		if !strings.Contains(haystack, needle) {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return RuleResult{Passed: true, RuleName: "must_include", Severity: trace.SeverityLow}
	}
	return RuleResult{
		Passed:           false,
		RuleName:         "must_include",
		Severity:         trace.SeverityLow,
		ViolationMessage: fmt.Sprintf("missing substring(s): %s", formatList(missing)),
	}
}

// MustNotInclude fails if any of Substrings is present in the response
// text. Severity high.
type MustNotInclude struct {
	Substrings    []string
	CaseSensitive bool
}

func (r MustNotInclude) Evaluate(responseText string, _ int) RuleResult {
	haystack := responseText
	if !r.CaseSensitive {
		haystack = strings.ToLower(haystack)
	}
	var found []string
	for _, s := range r.Substrings {
		needle := s
		if !r.CaseSensitive {
			needle = strings.ToLower(needle)
		}
		if strings.Contains(haystack, needle) {
			found = append(found, s)
		}
	}
	if len(found) == 0 {
		return RuleResult{Passed: true, RuleName: "must_not_include", Severity: trace.SeverityHigh}
	}
	return RuleResult{
		Passed:           false,
		RuleName:         "must_not_include",
		Severity:         trace.SeverityHigh,
		ViolationMessage: fmt.Sprintf("forbidden substring(s) found: %s", formatList(found)),
	}
}

// MaxLatency fails iff latency_ms > MaxMS. Equality passes. Severity
// medium.
type MaxLatency struct {
	MaxMS int
}

func (r MaxLatency) Evaluate(_ string, latencyMS int) RuleResult {
	if latencyMS <= r.MaxMS {
		return RuleResult{Passed: true, RuleName: "max_latency_ms", Severity: trace.SeverityMedium}
	}
	return RuleResult{
		Passed:           false,
		RuleName:         "max_latency_ms",
		Severity:         trace.SeverityMedium,
		ViolationMessage: fmt.Sprintf("latency %dms exceeds max %dms", latencyMS, r.MaxMS),
	}
}

// MinTokens fails iff the whitespace-split word count of the response text
// is below MinCount. Severity low.
type MinTokens struct {
	MinCount int
}

func (r MinTokens) Evaluate(responseText string, _ int) RuleResult {
	count := len(strings.Fields(responseText))
	if count >= r.MinCount {
		return RuleResult{Passed: true, RuleName: "min_tokens", Severity: trace.SeverityLow}
	}
	return RuleResult{
		Passed:           false,
		RuleName:         "min_tokens",
		Severity:         trace.SeverityLow,
		ViolationMessage: fmt.Sprintf("response has ~%d tokens, expected at least %d", count, r.MinCount),
	}
}

// formatList renders a slice of strings the way Python's list repr would,
// e.g. ['help', 'refund'], preserving the original source's violation
// message shape for anyone cross-referencing historical reports.
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
