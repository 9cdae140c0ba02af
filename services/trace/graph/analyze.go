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
	"sort"

	"github.com/AleutianAI/sentinel/services/trace"
)

// TopoOrder returns every node id in a valid topological order under
// Kahn's algorithm, ties broken by insertion (ingestion) order. An error
// indicates the graph is malformed (a cycle, or an edge to an id the
// builder never assigned).
func (g *ExecutionGraph) TopoOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	order := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		indegree[n.NodeID] = 0
		order[n.NodeID] = i
	}
	for _, e := range g.Edges {
		indegree[e.To]++
	}

	var queue []string
	for _, n := range g.Nodes {
		if indegree[n.NodeID] == 0 {
			queue = append(queue, n.NodeID)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return order[queue[i]] < order[queue[j]] })

	var result []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		var newlyReady []string
		for _, child := range g.Children(id) {
			indegree[child]--
			if indegree[child] == 0 {
				newlyReady = append(newlyReady, child)
			}
		}
		sort.Slice(newlyReady, func(i, j int) bool { return order[newlyReady[i]] < order[newlyReady[j]] })
		queue = append(queue, newlyReady...)
	}

	if len(result) != len(g.Nodes) {
		return nil, fmt.Errorf("graph is malformed: topological order covers %d of %d nodes (cycle or dangling edge)", len(result), len(g.Nodes))
	}
	return result, nil
}

// Tainted returns the blast radius of nodeID: nodeID itself plus every
// node reachable from it via outgoing edges.
func (g *ExecutionGraph) Tainted(nodeID string) []string {
	visited := map[string]bool{nodeID: true}
	queue := []string{nodeID}
	var out []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, child := range g.Children(id) {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return out
}

// ComputeVerdict summarises pass/fail across the whole graph.
func (g *ExecutionGraph) ComputeVerdict() Verdict {
	failed := g.FailedNodes()
	if len(failed) == 0 {
		return Verdict{Status: trace.StatusPass, Message: "All nodes passed"}
	}

	order, err := g.TopoOrder()
	var rootCause Node
	if err == nil {
		failedSet := make(map[string]bool, len(failed))
		for _, n := range failed {
			failedSet[n.NodeID] = true
		}
		for _, id := range order {
			if failedSet[id] {
				n, _ := g.NodeByID(id)
				rootCause = n
				break
			}
		}
	} else {
		rootCause = failed[0]
	}

	tainted := map[string]bool{}
	for _, n := range failed {
		for _, id := range g.Tainted(n.NodeID) {
			tainted[id] = true
		}
	}
	for _, n := range failed {
		delete(tainted, n.NodeID)
	}

	return Verdict{
		Status:        trace.StatusFail,
		RootCauseNode: rootCause.NodeID,
		FailedCount:   len(failed),
		TaintedCount:  len(tainted),
		Message:       fmt.Sprintf("Root cause: %s", rootCause.Key()),
	}
}

// pathState is the DP record CriticalPath relaxes over each node's
// parents in topological order.
type pathState struct {
	distance int
	path     []string
}

// CriticalPath returns the longest-latency path through the graph (node
// ids, root to leaf) and its total latency. Ties in end-node distance
// break by topological order.
func (g *ExecutionGraph) CriticalPath() ([]string, int, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, 0, err
	}

	states := make(map[string]pathState, len(g.Nodes))
	for _, id := range order {
		n, _ := g.NodeByID(id)
		best := pathState{distance: n.LatencyMS, path: []string{id}}

		parent := g.Parent(id)
		if parent != "" {
			if ps, ok := states[parent]; ok {
				candidate := ps.distance + n.LatencyMS
				if candidate > best.distance {
					newPath := make([]string, len(ps.path), len(ps.path)+1)
					copy(newPath, ps.path)
					newPath = append(newPath, id)
					best = pathState{distance: candidate, path: newPath}
				}
			}
		}
		states[id] = best
	}

	var bestEnd pathState
	found := false
	for _, id := range order {
		if len(g.Children(id)) == 0 {
			ps := states[id]
			if !found || ps.distance > bestEnd.distance {
				bestEnd = ps
				found = true
			}
		}
	}
	if !found {
		return nil, 0, nil
	}
	return bestEnd.path, bestEnd.distance, nil
}

// Bottleneck is one entry in a Bottlenecks report.
type Bottleneck struct {
	NodeID     string  `json:"node_id"`
	Label      string  `json:"label"`
	LatencyMS  int     `json:"latency_ms"`
	PercentOf  float64 `json:"percent_of_total"`
}

// Bottlenecks returns the topN highest-latency nodes, each annotated with
// its share of TotalLatencyMS.
func (g *ExecutionGraph) Bottlenecks(topN int) []Bottleneck {
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].LatencyMS > nodes[j].LatencyMS })

	if topN > len(nodes) {
		topN = len(nodes)
	}
	out := make([]Bottleneck, 0, topN)
	for _, n := range nodes[:topN] {
		pct := 0.0
		if g.TotalLatencyMS > 0 {
			pct = float64(n.LatencyMS) / float64(g.TotalLatencyMS) * 100
		}
		out = append(out, Bottleneck{NodeID: n.NodeID, Label: n.Key(), LatencyMS: n.LatencyMS, PercentOf: pct})
	}
	return out
}

// InvestigationPath is a deterministic, ordered playbook derived purely
// from graph structure — no learned component.
func (g *ExecutionGraph) InvestigationPath() []string {
	verdict := g.ComputeVerdict()
	if verdict.Status == trace.StatusPass {
		return []string{"No investigation needed: all nodes passed."}
	}

	var steps []string
	rootCause, _ := g.NodeByID(verdict.RootCauseNode)
	steps = append(steps, fmt.Sprintf("Examine root cause node %s (%s).", rootCause.NodeID, rootCause.Key()))

	if parent := g.Parent(rootCause.NodeID); parent != "" {
		parentNode, _ := g.NodeByID(parent)
		steps = append(steps, fmt.Sprintf("Review its input, produced by node %s (%s).", parentNode.NodeID, parentNode.Key()))
	}

	for _, n := range g.Nodes {
		if n.Role == RoleValidation {
			steps = append(steps, fmt.Sprintf("Review validation rules at node %s (%s).", n.NodeID, n.Key()))
			break
		}
	}

	if verdict.TaintedCount > 0 {
		steps = append(steps, fmt.Sprintf("Blast radius: %d downstream node(s) tainted by the failure.", verdict.TaintedCount))
	}

	return steps
}
