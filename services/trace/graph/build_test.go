// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/graph"
)

func chainTraces(execID string, latencies []int, verdictFail map[int]bool) []trace.Trace {
	traces := make([]trace.Trace, len(latencies))
	prevNode := ""
	for i, lat := range latencies {
		nodeID := uuid.NewString()
		tr := trace.Trace{
			TraceID:      uuid.NewString(),
			ExecutionID:  execID,
			NodeID:       nodeID,
			ParentNodeID: prevNode,
			Request:      trace.Request{Model: "m", Provider: "p", Messages: []trace.Message{{Role: "user", Content: "do the thing"}}},
			Response:     trace.Response{Text: "ok", LatencyMS: lat},
		}
		if verdictFail[i] {
			sev := trace.SeverityHigh
			tr.Verdict = &trace.Verdict{Status: trace.StatusFail, Severity: &sev, Violations: []string{"x"}}
		} else {
			tr.Verdict = &trace.Verdict{Status: trace.StatusPass, Violations: []string{}}
		}
		traces[i] = tr
		prevNode = nodeID
	}
	return traces
}

func TestBuild_EmptyTraces_IsInputError(t *testing.T) {
	_, err := graph.Build(nil)
	require.Error(t, err)
}

func TestBuild_MixedExecutionIDs_IsInputError(t *testing.T) {
	a := chainTraces(uuid.NewString(), []int{10}, nil)
	b := chainTraces(uuid.NewString(), []int{10}, nil)
	_, err := graph.Build(append(a, b...))
	require.Error(t, err)
}

func TestBuild_LinearChain_RootAndEdges(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{100, 500, 100}, nil)

	g, err := graph.Build(traces)
	require.NoError(t, err)

	assert.Equal(t, traces[0].NodeID, g.RootNodeID)
	assert.Equal(t, 3, g.NodeCount)
	assert.Equal(t, 700, g.TotalLatencyMS)
	assert.Len(t, g.Edges, 2)
}

func TestBuild_TwoNodePassing_ZeroTaint(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 20}, nil)

	g, err := graph.Build(traces)
	require.NoError(t, err)

	v := g.ComputeVerdict()
	assert.Equal(t, trace.StatusPass, v.Status)
	assert.Equal(t, 0, v.TaintedCount)
}

func TestBuild_StagesGroupByRole(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 20, 30}, nil)

	g, err := graph.Build(traces)
	require.NoError(t, err)
	require.NotEmpty(t, g.Stages)

	total := 0
	for _, s := range g.Stages {
		total += s.NodeCount
	}
	assert.Equal(t, g.NodeCount, total)
}
