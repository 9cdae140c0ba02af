// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expect

import "github.com/AleutianAI/sentinel/services/trace"

// Evaluator accumulates rules and evaluates all of them against a response.
//
// Usage:
//
//	v := expect.NewEvaluator().
//	    MustInclude([]string{"refund"}).
//	    MaxLatencyMS(1500).
//	    Evaluate(responseText, latencyMS)
type Evaluator struct {
	rules []Rule
}

// NewEvaluator returns an empty Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// AddRule appends a rule and returns the Evaluator for chaining.
func (e *Evaluator) AddRule(r Rule) *Evaluator {
	e.rules = append(e.rules, r)
	return e
}

// MustInclude adds a MustInclude rule.
func (e *Evaluator) MustInclude(substrings []string) *Evaluator {
	return e.AddRule(MustInclude{Substrings: substrings})
}

// MustNotInclude adds a MustNotInclude rule.
func (e *Evaluator) MustNotInclude(substrings []string) *Evaluator {
	return e.AddRule(MustNotInclude{Substrings: substrings})
}

// MaxLatencyMS adds a MaxLatency rule.
func (e *Evaluator) MaxLatencyMS(maxMS int) *Evaluator {
	return e.AddRule(MaxLatency{MaxMS: maxMS})
}

// MinTokens adds a MinTokens rule.
func (e *Evaluator) MinTokens(minCount int) *Evaluator {
	return e.AddRule(MinTokens{MinCount: minCount})
}

// Evaluate runs every rule against (responseText, latencyMS) without
// short-circuiting, and folds the results into a single Verdict. Severity
// is the max of all failing rules' severities; violations are
// concatenated in rule-evaluation order.
func (e *Evaluator) Evaluate(responseText string, latencyMS int) trace.Verdict {
	if len(e.rules) == 0 {
		return trace.Verdict{Status: trace.StatusPass, Violations: []string{}}
	}

	results := make([]RuleResult, len(e.rules))
	for i, r := range e.rules {
		results[i] = r.Evaluate(responseText, latencyMS)
	}

	var violations []string
	var maxSeverity trace.Severity
	haveFailure := false
	for _, r := range results {
		if r.Passed {
			continue
		}
		haveFailure = true
		violations = append(violations, r.ViolationMessage)
		if maxSeverity == "" {
			maxSeverity = r.Severity
		} else {
			maxSeverity = trace.MaxSeverity(maxSeverity, r.Severity)
		}
	}

	if !haveFailure {
		return trace.Verdict{Status: trace.StatusPass, Violations: []string{}}
	}

	sev := maxSeverity
	return trace.Verdict{
		Status:     trace.StatusFail,
		Severity:   &sev,
		Violations: violations,
	}
}

// Options bundles the convenience-function form of expectation
// construction, mirroring the original source's standalone evaluate()
// helper.
type Options struct {
	MustInclude    []string
	MustNotInclude []string
	MaxLatencyMS   *int
	MinTokens      *int
}

// Evaluate builds a one-shot Evaluator from Options and evaluates it. A
// zero-value Options produces an always-passing verdict.
func Evaluate(responseText string, latencyMS int, opts Options) trace.Verdict {
	e := NewEvaluator()
	if len(opts.MustInclude) > 0 {
		e.MustInclude(opts.MustInclude)
	}
	if len(opts.MustNotInclude) > 0 {
		e.MustNotInclude(opts.MustNotInclude)
	}
	if opts.MaxLatencyMS != nil {
		e.MaxLatencyMS(*opts.MaxLatencyMS)
	}
	if opts.MinTokens != nil {
		e.MinTokens(*opts.MinTokens)
	}
	return e.Evaluate(responseText, latencyMS)
}
