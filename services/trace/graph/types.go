// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph assembles a single execution's traces into a read-only
// DAG and answers structural questions about it: topological order,
// blast radius, root cause, critical path, bottlenecks, and an
// investigation playbook. An ExecutionGraph owns no state of its own; it
// is materialised fresh from traces on every call and never mutated in
// place.
package graph

import "github.com/AleutianAI/sentinel/services/trace"

// Role is the semantic classification C6.1 infers for a node.
type Role string

const (
	RoleInput      Role = "input"
	RoleTransform  Role = "transform"
	RoleLLM        Role = "llm"
	RoleTool       Role = "tool"
	RoleValidation Role = "validation"
	RoleOutput     Role = "output"
)

// EdgeType distinguishes the (currently singular) causal relationship a
// graph edge represents. data_flow is reserved for a future non-call
// parent/child relationship; the builder only ever emits calls today.
type EdgeType string

const (
	EdgeCalls    EdgeType = "calls"
	EdgeDataFlow EdgeType = "data_flow"
)

// Node is a read-only view of one trace within an execution graph.
type Node struct {
	NodeID        string         `json:"node_id"`
	TraceID       string         `json:"trace_id"`
	Role          Role           `json:"role"`
	HumanLabel    string         `json:"human_label"`
	Description   string         `json:"description"`
	Model         string         `json:"model,omitempty"`
	Provider      string         `json:"provider,omitempty"`
	LatencyMS     int            `json:"latency_ms"`
	VerdictStatus *trace.VerdictStatus `json:"verdict_status,omitempty"`
	Label         string         `json:"label"`
}

// Key returns the semantic identity used by the diff engine (C9):
// human_label if present, else the structural label.
func (n Node) Key() string {
	if n.HumanLabel != "" {
		return n.HumanLabel
	}
	return n.Label
}

// Edge connects two nodes by node id.
type Edge struct {
	From string   `json:"from_node_id"`
	To   string   `json:"to_node_id"`
	Type EdgeType `json:"edge_type"`
}

// Stage is a contiguous run of nodes (in ingestion order) sharing a role.
type Stage struct {
	Role        Role     `json:"role"`
	NodeIDs     []string `json:"node_ids"`
	LatencyMS   int      `json:"latency_ms"`
	NodeCount   int      `json:"node_count"`
	HasFailure  bool     `json:"has_failure"`
}

// Verdict summarises pass/fail across an entire graph. See ComputeVerdict.
type Verdict struct {
	Status        trace.VerdictStatus `json:"status"`
	RootCauseNode string              `json:"root_cause_node,omitempty"`
	FailedCount   int                 `json:"failed_count"`
	TaintedCount  int                 `json:"tainted_count"`
	Message       string              `json:"message"`
}

// ExecutionGraph is the frozen, derived structure built from one
// execution's traces. Nothing on it is mutated after Build returns;
// ToSnapshot (package snapshot) returns a new value with integrity
// fields populated rather than modifying this one in place.
type ExecutionGraph struct {
	ExecutionID     string   `json:"execution_id"`
	CreatedAt       string   `json:"created_at"`
	Nodes           []Node   `json:"nodes"`
	Edges           []Edge   `json:"edges"`
	Stages          []Stage  `json:"stages"`
	RootNodeID      string   `json:"root_node_id"`
	TotalLatencyMS  int      `json:"total_latency_ms"`
	NodeCount       int      `json:"node_count"`
	Verdict         *Verdict `json:"verdict,omitempty"`
	IntegrityHash   string   `json:"integrity_hash,omitempty"`
	SnapshotAt      string   `json:"snapshot_at,omitempty"`
}

// NodeByID returns the node with the given id, or false if absent.
func (g *ExecutionGraph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the ids of nodes whose edge originates at id.
func (g *ExecutionGraph) Children(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Parent returns the id of the node whose edge terminates at id, or ""
// for a root node.
func (g *ExecutionGraph) Parent(id string) string {
	for _, e := range g.Edges {
		if e.To == id {
			return e.From
		}
	}
	return ""
}

// FailedNodes returns every node whose verdict status is fail, in
// ingestion order.
func (g *ExecutionGraph) FailedNodes() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.VerdictStatus != nil && *n.VerdictStatus == trace.StatusFail {
			out = append(out, n)
		}
	}
	return out
}
