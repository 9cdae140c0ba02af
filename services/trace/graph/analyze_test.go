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

func TestComputeVerdict_MidChainFailure(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 10, 10}, map[int]bool{1: true})

	g, err := graph.Build(traces)
	require.NoError(t, err)

	v := g.ComputeVerdict()
	assert.Equal(t, trace.StatusFail, v.Status)
	assert.Equal(t, 1, v.FailedCount)
	assert.Equal(t, 1, v.TaintedCount)
	assert.Equal(t, traces[1].NodeID, v.RootCauseNode)
	assert.Contains(t, v.Message, "Root cause:")
}

func TestTopoOrder_RespectsParentBeforeChild(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 20, 30}, nil)
	g, err := graph.Build(traces)
	require.NoError(t, err)

	order, err := g.TopoOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, traces[0].NodeID, order[0])
	assert.Equal(t, traces[1].NodeID, order[1])
	assert.Equal(t, traces[2].NodeID, order[2])
}

func TestTainted_IncludesSelfAndDescendants(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 20, 30}, nil)
	g, err := graph.Build(traces)
	require.NoError(t, err)

	tainted := g.Tainted(traces[1].NodeID)
	assert.ElementsMatch(t, []string{traces[1].NodeID, traces[2].NodeID}, tainted)
}

func TestCriticalPath_BranchingGraph(t *testing.T) {
	execID := uuid.NewString()

	a := trace.Trace{TraceID: uuid.NewString(), ExecutionID: execID, NodeID: uuid.NewString(),
		Request: trace.Request{Model: "m", Provider: "p"}, Response: trace.Response{Text: "a", LatencyMS: 100}}
	b := trace.Trace{TraceID: uuid.NewString(), ExecutionID: execID, NodeID: uuid.NewString(), ParentNodeID: a.NodeID,
		Request: trace.Request{Model: "m", Provider: "p"}, Response: trace.Response{Text: "b", LatencyMS: 500}}
	c := trace.Trace{TraceID: uuid.NewString(), ExecutionID: execID, NodeID: uuid.NewString(), ParentNodeID: b.NodeID,
		Request: trace.Request{Model: "m", Provider: "p"}, Response: trace.Response{Text: "c", LatencyMS: 100}}
	d := trace.Trace{TraceID: uuid.NewString(), ExecutionID: execID, NodeID: uuid.NewString(), ParentNodeID: a.NodeID,
		Request: trace.Request{Model: "m", Provider: "p"}, Response: trace.Response{Text: "d", LatencyMS: 50}}

	g, err := graph.Build([]trace.Trace{a, b, c, d})
	require.NoError(t, err)

	path, total, err := g.CriticalPath()
	require.NoError(t, err)
	assert.Equal(t, 700, total)
	assert.Equal(t, []string{a.NodeID, b.NodeID, c.NodeID}, path)

	bottlenecks := g.Bottlenecks(1)
	require.Len(t, bottlenecks, 1)
	assert.Equal(t, b.NodeID, bottlenecks[0].NodeID)
}

func TestInvestigationPath_PassingGraph(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 20}, nil)
	g, err := graph.Build(traces)
	require.NoError(t, err)

	steps := g.InvestigationPath()
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0], "No investigation needed")
}

func TestInvestigationPath_FailingGraph(t *testing.T) {
	execID := uuid.NewString()
	traces := chainTraces(execID, []int{10, 10, 10}, map[int]bool{1: true})
	g, err := graph.Build(traces)
	require.NoError(t, err)

	steps := g.InvestigationPath()
	require.NotEmpty(t, steps)
	assert.Contains(t, steps[0], "root cause")
}
