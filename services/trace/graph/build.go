// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/errs"
)

var validationKeywords = []string{"check", "validate", "verify"}
var transformKeywords = []string{"parse", "extract"}

var roleDescriptions = map[Role]string{
	RoleInput:      "Entry point of the execution.",
	RoleTransform:  "Parses or extracts structured data from prior output.",
	RoleLLM:        "Model invocation.",
	RoleTool:       "External tool or function call.",
	RoleValidation: "Validates or checks a prior result.",
	RoleOutput:     "Final node of the execution.",
}

// Build assembles traces (all sharing one execution_id) into an
// ExecutionGraph. traces must be non-empty and share a single
// execution_id; either violation is an input error.
func Build(traces []trace.Trace) (*ExecutionGraph, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("%w: cannot build a graph from zero traces", errs.ErrInput)
	}
	executionID := traces[0].ExecutionID
	for _, t := range traces {
		if t.ExecutionID != executionID {
			return nil, fmt.Errorf("%w: traces span multiple execution ids (%q, %q)", errs.ErrInput, executionID, t.ExecutionID)
		}
	}

	g := &ExecutionGraph{
		ExecutionID: executionID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	byNodeID := make(map[string]int, len(traces))
	for i, t := range traces {
		byNodeID[t.NodeID] = i
	}

	for i, t := range traces {
		role := inferRole(t, i, len(traces))
		label := fmt.Sprintf("%s_%d", role, i)

		node := Node{
			NodeID:      t.NodeID,
			TraceID:     t.TraceID,
			Role:        role,
			HumanLabel:  humanLabel(t, role),
			Description: roleDescriptions[role],
			Model:       t.Request.Model,
			Provider:    t.Request.Provider,
			LatencyMS:   t.Response.LatencyMS,
			Label:       label,
		}
		if t.Verdict != nil {
			status := t.Verdict.Status
			node.VerdictStatus = &status
		}

		g.Nodes = append(g.Nodes, node)
		g.TotalLatencyMS += t.Response.LatencyMS

		if t.ParentNodeID != "" {
			if _, ok := byNodeID[t.ParentNodeID]; ok {
				g.Edges = append(g.Edges, Edge{From: t.ParentNodeID, To: t.NodeID, Type: EdgeCalls})
				continue
			}
		}
		if g.RootNodeID == "" {
			g.RootNodeID = t.NodeID
		}
	}

	g.NodeCount = len(g.Nodes)
	g.Stages = buildStages(g.Nodes)

	return g, nil
}

// inferRole applies C6.1's three-signal cascade.
func inferRole(t trace.Trace, index, total int) Role {
	firstUser := strings.ToLower(t.FirstUserMessage())

	if t.Verdict != nil || containsAny(firstUser, validationKeywords) {
		return RoleValidation
	}
	if containsAny(firstUser, transformKeywords) {
		return RoleTransform
	}
	if index == 0 && t.ParentNodeID == "" {
		return RoleInput
	}
	if index == total-1 {
		return RoleOutput
	}
	return RoleLLM
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// humanLabel derives C6's display label: first 40 characters of the
// first user message, capitalised, with an ellipsis if truncated; falls
// back to "<role> (<model>)" when there is no user message.
func humanLabel(t trace.Trace, role Role) string {
	msg := t.FirstUserMessage()
	if msg == "" {
		return fmt.Sprintf("%s (%s)", role, t.Request.Model)
	}

	runes := []rune(msg)
	truncated := len(runes) > 40
	if truncated {
		runes = runes[:40]
	}
	label := string(runes)
	if len(label) > 0 {
		r := []rune(label)
		r[0] = unicode.ToUpper(r[0])
		label = string(r)
	}
	if truncated {
		label += "..."
	}
	return label
}

// buildStages implements C6.2: walk nodes in ingestion order, closing a
// stage whenever the role changes.
func buildStages(nodes []Node) []Stage {
	var stages []Stage
	var current *Stage

	for _, n := range nodes {
		if current == nil || current.Role != n.Role {
			if current != nil {
				stages = append(stages, *current)
			}
			current = &Stage{Role: n.Role}
		}
		current.NodeIDs = append(current.NodeIDs, n.NodeID)
		current.LatencyMS += n.LatencyMS
		current.NodeCount++
		if n.VerdictStatus != nil && *n.VerdictStatus == trace.StatusFail {
			current.HasFailure = true
		}
	}
	if current != nil {
		stages = append(stages, *current)
	}
	return stages
}
