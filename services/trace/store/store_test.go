// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/internal/metrics"
	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/errs"
	"github.com/AleutianAI/sentinel/services/trace/store"
)

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	return s
}

func makeTrace(model, provider, text string, ts time.Time) trace.Trace {
	return trace.Trace{
		TraceID:     uuid.NewString(),
		Timestamp:   ts.UTC().Format(time.RFC3339),
		ExecutionID: uuid.NewString(),
		NodeID:      uuid.NewString(),
		Request:     trace.Request{Model: model, Provider: provider},
		Response:    trace.Response{Text: text, LatencyMS: 10},
	}
}

func TestSave_Get_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	tr := makeTrace("gpt-4", "openai", "hello", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	require.NoError(t, s.Save(tr))

	got, err := s.Get(tr.TraceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tr.TraceID, got.TraceID)
	assert.Equal(t, "hello", got.Response.Text)
}

func TestWithMetrics_RecordsSaveOutcome(t *testing.T) {
	s := newTestStore(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s.WithMetrics(m)

	tr := makeTrace("gpt-4", "openai", "hello", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, s.Save(tr))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreOpsTotal.WithLabelValues("save", "ok")))
}

func TestSave_Idempotent_ReplacesInPlace(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := makeTrace("gpt-4", "openai", "first", ts)

	require.NoError(t, s.Save(tr))
	tr.Response.Text = "second"
	require.NoError(t, s.Save(tr))

	got, err := s.Get(tr.TraceID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Response.Text)

	all, err := s.List(store.ListFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGet_NotFound_ReturnsNilNoError(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(makeTrace("gpt-4", "openai", "a", day1)))
	require.NoError(t, s.Save(makeTrace("gpt-3.5", "openai", "b", day1)))
	require.NoError(t, s.Save(makeTrace("gpt-4", "openai", "c", day2)))

	all, err := s.List(store.ListFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyGPT4, err := s.List(store.ListFilter{Limit: 1000, Model: "gpt-4"})
	require.NoError(t, err)
	assert.Len(t, onlyGPT4, 2)

	paged, err := s.List(store.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestList_FailedFilter(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	passing := makeTrace("gpt-4", "openai", "ok", ts)
	sev := trace.SeverityLow
	failing := makeTrace("gpt-4", "openai", "bad", ts)
	failing.Verdict = &trace.Verdict{Status: trace.StatusFail, Severity: &sev, Violations: []string{"x"}}

	require.NoError(t, s.Save(passing))
	require.NoError(t, s.Save(failing))

	onlyFailed, err := s.List(store.ListFilter{Limit: 1000, Failed: true})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, "bad", onlyFailed[0].Response.Text)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	tr := makeTrace("gpt-4", "openai", "x", time.Now())
	require.NoError(t, s.Save(tr))

	found, err := s.Delete(tr.TraceID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.Delete(tr.TraceID)
	require.NoError(t, err)
	assert.False(t, found)

	got, err := s.Get(tr.TraceID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBless_SetsHashAndFlag(t *testing.T) {
	s := newTestStore(t)
	tr := makeTrace("gpt-4", "openai", "golden output", time.Now())
	require.NoError(t, s.Save(tr))

	blessed, err := s.Bless(tr.TraceID, false)
	require.NoError(t, err)
	assert.True(t, blessed.Blessed)
	require.Contains(t, blessed.Metadata, "output_hash")
	require.Contains(t, blessed.Metadata, "blessed_at")

	golden, err := s.GetGolden("gpt-4", "openai")
	require.NoError(t, err)
	require.NotNil(t, golden)
	assert.Equal(t, tr.TraceID, golden.TraceID)
}

func TestBless_RejectsSecondWithoutForce(t *testing.T) {
	s := newTestStore(t)
	first := makeTrace("gpt-4", "openai", "first", time.Now())
	second := makeTrace("gpt-4", "openai", "second", time.Now())
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	_, err := s.Bless(first.TraceID, false)
	require.NoError(t, err)

	_, err = s.Bless(second.TraceID, false)
	require.ErrorIs(t, err, errs.ErrAlreadyBlessed)
}

func TestBless_ForceReplacesGolden(t *testing.T) {
	s := newTestStore(t)
	first := makeTrace("gpt-4", "openai", "first", time.Now())
	second := makeTrace("gpt-4", "openai", "second", time.Now())
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	_, err := s.Bless(first.TraceID, false)
	require.NoError(t, err)

	_, err = s.Bless(second.TraceID, true)
	require.NoError(t, err)

	golden, err := s.GetGolden("gpt-4", "openai")
	require.NoError(t, err)
	require.NotNil(t, golden)
	assert.Equal(t, second.TraceID, golden.TraceID)

	oldFirst, err := s.Get(first.TraceID)
	require.NoError(t, err)
	assert.False(t, oldFirst.Blessed)
}

func TestUnbless(t *testing.T) {
	s := newTestStore(t)
	tr := makeTrace("gpt-4", "openai", "x", time.Now())
	require.NoError(t, s.Save(tr))

	_, err := s.Bless(tr.TraceID, false)
	require.NoError(t, err)

	unblessed, err := s.Unbless(tr.TraceID)
	require.NoError(t, err)
	assert.False(t, unblessed.Blessed)

	golden, err := s.GetGolden("gpt-4", "openai")
	require.NoError(t, err)
	assert.Nil(t, golden)
}

func TestTracesByExecution(t *testing.T) {
	s := newTestStore(t)
	execID := uuid.NewString()
	t1 := makeTrace("gpt-4", "openai", "a", time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC))
	t1.ExecutionID = execID
	t2 := makeTrace("gpt-4", "openai", "b", time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC))
	t2.ExecutionID = execID
	other := makeTrace("gpt-4", "openai", "c", time.Date(2026, 1, 1, 1, 30, 0, 0, time.UTC))

	require.NoError(t, s.Save(t1))
	require.NoError(t, s.Save(t2))
	require.NoError(t, s.Save(other))

	traces, err := s.TracesByExecution(execID)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "a", traces[0].Response.Text)
	assert.Equal(t, "b", traces[1].Response.Text)
}

func TestLineage_FollowsReplayChain(t *testing.T) {
	s := newTestStore(t)
	root := makeTrace("gpt-4", "openai", "root", time.Now())
	require.NoError(t, s.Save(root))

	replay1 := makeTrace("gpt-4", "openai", "replay1", time.Now())
	replay1.ReplayOf = root.TraceID
	require.NoError(t, s.Save(replay1))

	replay2 := makeTrace("gpt-4", "openai", "replay2", time.Now())
	replay2.ReplayOf = replay1.TraceID
	require.NoError(t, s.Save(replay2))

	lineage, err := s.Lineage(replay2.TraceID)
	require.NoError(t, err)
	assert.Len(t, lineage, 3)

	ids := map[string]bool{}
	for _, tr := range lineage {
		ids[tr.TraceID] = true
	}
	assert.True(t, ids[root.TraceID])
	assert.True(t, ids[replay1.TraceID])
	assert.True(t, ids[replay2.TraceID])
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(makeTrace("gpt-4", "openai", "a", time.Now())))
	require.NoError(t, s.Save(makeTrace("gpt-3.5", "openai", "b", time.Now())))

	n, err := s.Count(store.CountFilter{Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
