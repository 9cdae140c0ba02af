// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/diff"
	"github.com/AleutianAI/sentinel/services/trace/graph"
)

func singleNodeGraph(t *testing.T, text string, latency int) *graph.ExecutionGraph {
	t.Helper()
	tr := trace.Trace{
		TraceID:     uuid.NewString(),
		ExecutionID: uuid.NewString(),
		NodeID:      uuid.NewString(),
		Request:     trace.Request{Model: "m", Provider: "p", Messages: []trace.Message{{Role: "user", Content: "fixed label"}}},
		Response:    trace.Response{Text: text, LatencyMS: latency},
	}
	g, err := graph.Build([]trace.Trace{tr})
	require.NoError(t, err)
	return g
}

func TestDiff_NoChange(t *testing.T) {
	a := singleNodeGraph(t, "x", 100)
	b := singleNodeGraph(t, "x", 110)

	d := diff.Diff(a, b, diff.Options{})
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Changed)
	assert.Equal(t, 10, d.LatencyDeltaMS)
}

func TestDiff_LatencyBeyondThreshold_IsChanged(t *testing.T) {
	a := singleNodeGraph(t, "x", 100)
	b := singleNodeGraph(t, "x", 200)

	d := diff.Diff(a, b, diff.Options{Threshold: 50})
	require.Len(t, d.Changed, 1)
	assert.Equal(t, 100, d.Changed[0].DeltaMS)
}

func TestDiff_DefaultThreshold(t *testing.T) {
	a := singleNodeGraph(t, "x", 100)
	b := singleNodeGraph(t, "x", 130)

	d := diff.Diff(a, b, diff.Options{})
	assert.Empty(t, d.Changed)
}

func TestDiff_AddedAndRemovedByLabel(t *testing.T) {
	tr1 := trace.Trace{TraceID: uuid.NewString(), ExecutionID: uuid.NewString(), NodeID: uuid.NewString(),
		Request: trace.Request{Model: "m", Provider: "p", Messages: []trace.Message{{Role: "user", Content: "alpha"}}},
		Response: trace.Response{Text: "a", LatencyMS: 10}}
	a, err := graph.Build([]trace.Trace{tr1})
	require.NoError(t, err)

	tr2 := trace.Trace{TraceID: uuid.NewString(), ExecutionID: uuid.NewString(), NodeID: uuid.NewString(),
		Request: trace.Request{Model: "m", Provider: "p", Messages: []trace.Message{{Role: "user", Content: "beta"}}},
		Response: trace.Response{Text: "b", LatencyMS: 20}}
	b, err := graph.Build([]trace.Trace{tr2})
	require.NoError(t, err)

	d := diff.Diff(a, b, diff.Options{})
	require.Len(t, d.Added, 1)
	require.Len(t, d.Removed, 1)
	assert.Equal(t, 2, d.TotalChanges)
}
