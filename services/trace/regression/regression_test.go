// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package regression_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/provider"
	"github.com/AleutianAI/sentinel/services/trace/regression"
	"github.com/AleutianAI/sentinel/services/trace/store"
)

type fakeStore struct {
	blessed []trace.Trace
	all     []trace.Trace
	saved   []trace.Trace
}

func (f *fakeStore) ListBlessed() ([]trace.Trace, error) { return f.blessed, nil }
func (f *fakeStore) Save(t trace.Trace) error {
	f.saved = append(f.saved, t)
	f.all = append(f.all, t)
	return nil
}
func (f *fakeStore) List(filter store.ListFilter) ([]trace.Trace, error) { return f.all, nil }
func (f *fakeStore) TracesByExecution(executionID string) ([]trace.Trace, error) {
	var out []trace.Trace
	for _, t := range f.all {
		if t.ExecutionID == executionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func blessedTrace(text, outputHash string) trace.Trace {
	return trace.Trace{
		TraceID:     uuid.NewString(),
		ExecutionID: uuid.NewString(),
		NodeID:      uuid.NewString(),
		Request:     trace.Request{Model: "m", Provider: "stub"},
		Response:    trace.Response{Text: text},
		Metadata:    map[string]interface{}{"output_hash": outputHash},
		Blessed:     true,
	}
}

func TestCheck_RegressionMiss(t *testing.T) {
	// "Paris." blessed; replay produces "Paris" (no period) -> hash mismatch.
	original := blessedTrace("Paris.", fingerprintFor("Paris."))
	s := &fakeStore{blessed: []trace.Trace{original}}

	registry := provider.NewRegistry()
	registry.Register("stub", func(model string, messages []provider.Message, params provider.Parameters) provider.Callable {
		return func(ctx context.Context) (any, error) { return "Paris", nil }
	})

	report, err := regression.Check(context.Background(), s, registry)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExitCode())
	require.Len(t, report.Records, 1)
	assert.False(t, report.Records[0].Passed)
	require.Len(t, s.saved, 1)
	assert.Equal(t, original.TraceID, s.saved[0].ReplayOf)
}

func TestCheck_RegressionMatch(t *testing.T) {
	original := blessedTrace("Paris.", fingerprintFor("Paris."))
	s := &fakeStore{blessed: []trace.Trace{original}}

	registry := provider.NewRegistry()
	registry.Register("stub", func(model string, messages []provider.Message, params provider.Parameters) provider.Callable {
		return func(ctx context.Context) (any, error) { return "Paris.", nil }
	})

	report, err := regression.Check(context.Background(), s, registry)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ExitCode())
	assert.True(t, report.Records[0].Passed)
}

func TestCheck_UnregisteredProvider_CountsAsFailure(t *testing.T) {
	original := blessedTrace("x", "somehash")
	original.Request.Provider = "unregistered"
	s := &fakeStore{blessed: []trace.Trace{original}}

	report, err := regression.Check(context.Background(), s, provider.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExitCode())
	assert.NotEmpty(t, report.Records[0].Error)
}

func TestGraphCheck_OrdersByTimestampNotListOrder(t *testing.T) {
	execID := uuid.NewString()
	input := trace.Trace{
		TraceID:     uuid.NewString(),
		ExecutionID: execID,
		NodeID:      "input-node",
		Timestamp:   "2026-01-01T00:00:00Z",
		Request:     trace.Request{Model: "m", Provider: "stub"},
		Response:    trace.Response{Text: "in"},
	}
	output := trace.Trace{
		TraceID:      uuid.NewString(),
		ExecutionID:  execID,
		NodeID:       "output-node",
		ParentNodeID: "input-node",
		Timestamp:    "2026-01-01T00:00:05Z",
		Request:      trace.Request{Model: "m", Provider: "stub"},
		Response:     trace.Response{Text: "out"},
	}

	// FileStore.List returns newest-first; a fakeStore.all in the same
	// (reverse-chronological) order must not flip which node GraphCheck's
	// graph.Build treats as the input vs. the output.
	s := &fakeStore{all: []trace.Trace{output, input}}

	report, err := regression.GraphCheck(s)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	require.Len(t, report.ExecutionIDs, 1)
	assert.Equal(t, execID, report.ExecutionIDs[0])
}

func fingerprintFor(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
