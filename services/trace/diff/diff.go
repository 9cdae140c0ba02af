// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff compares two execution graphs by semantic node identity
// rather than by node id, since node ids are random per capture and
// never comparable across runs.
package diff

import (
	"github.com/AleutianAI/sentinel/services/trace/graph"
)

// DefaultThreshold is the magic constant from Open Question (b): a
// latency delta at or below this is not considered a meaningful change.
const DefaultThreshold = 50

// Options configures Diff.
type Options struct {
	// Threshold is the latency-delta-in-milliseconds above which a node
	// present in both graphs is reported as changed even with an
	// unchanged verdict. Zero means DefaultThreshold.
	Threshold int
}

func (o Options) threshold() int {
	if o.Threshold == 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// NodeDiff describes one node's delta between graph a (before) and
// graph b (after).
type NodeDiff struct {
	Key          string `json:"key"`
	LatencyMSA   int    `json:"latency_ms_a,omitempty"`
	LatencyMSB   int    `json:"latency_ms_b,omitempty"`
	DeltaMS      int    `json:"delta_ms"`
	VerdictAfter string `json:"verdict_after,omitempty"`
}

// GraphDiff is the result of comparing two execution graphs.
type GraphDiff struct {
	Added           []NodeDiff `json:"added"`
	Removed         []NodeDiff `json:"removed"`
	Changed         []NodeDiff `json:"changed"`
	LatencyDeltaMS  int        `json:"latency_delta_ms"`
	VerdictChanged  bool       `json:"verdict_changed"`
	TotalChanges    int        `json:"total_changes"`
}

// Diff compares a (before) to b (after) by semantic key
// (human_label || label).
func Diff(a, b *graph.ExecutionGraph, opts Options) GraphDiff {
	threshold := opts.threshold()

	nodesA := make(map[string]graph.Node, len(a.Nodes))
	for _, n := range a.Nodes {
		nodesA[n.Key()] = n
	}
	nodesB := make(map[string]graph.Node, len(b.Nodes))
	for _, n := range b.Nodes {
		nodesB[n.Key()] = n
	}

	var result GraphDiff

	for key, nb := range nodesB {
		if _, ok := nodesA[key]; !ok {
			nd := NodeDiff{Key: key, LatencyMSB: nb.LatencyMS, DeltaMS: nb.LatencyMS}
			if nb.VerdictStatus != nil {
				nd.VerdictAfter = string(*nb.VerdictStatus)
			}
			result.Added = append(result.Added, nd)
		}
	}

	for key, na := range nodesA {
		if _, ok := nodesB[key]; !ok {
			result.Removed = append(result.Removed, NodeDiff{Key: key, LatencyMSA: na.LatencyMS, DeltaMS: -na.LatencyMS})
		}
	}

	for key, na := range nodesA {
		nb, ok := nodesB[key]
		if !ok {
			continue
		}
		delta := nb.LatencyMS - na.LatencyMS
		absDelta := delta
		if absDelta < 0 {
			absDelta = -absDelta
		}
		verdictChanged := !sameVerdict(na, nb)
		if absDelta > threshold || verdictChanged {
			nd := NodeDiff{Key: key, LatencyMSA: na.LatencyMS, LatencyMSB: nb.LatencyMS, DeltaMS: delta}
			if nb.VerdictStatus != nil {
				nd.VerdictAfter = string(*nb.VerdictStatus)
			}
			result.Changed = append(result.Changed, nd)
		}
	}

	result.LatencyDeltaMS = b.TotalLatencyMS - a.TotalLatencyMS
	result.VerdictChanged = a.ComputeVerdict().Status != b.ComputeVerdict().Status
	result.TotalChanges = len(result.Added) + len(result.Removed) + len(result.Changed)

	return result
}

func sameVerdict(a, b graph.Node) bool {
	switch {
	case a.VerdictStatus == nil && b.VerdictStatus == nil:
		return true
	case a.VerdictStatus == nil || b.VerdictStatus == nil:
		return false
	default:
		return *a.VerdictStatus == *b.VerdictStatus
	}
}
