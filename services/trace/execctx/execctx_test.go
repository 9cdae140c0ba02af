// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package execctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/trace/execctx"
)

func TestExecutionID_OutsideScope_SynthesizesFreshEachCall(t *testing.T) {
	ctx := context.Background()
	a := execctx.ExecutionID(ctx)
	b := execctx.ExecutionID(ctx)
	assert.NotEqual(t, a, b)
}

func TestWithNewExecution_StableWithinScope(t *testing.T) {
	ctx, id := execctx.WithNewExecution(context.Background())
	assert.Equal(t, id, execctx.ExecutionID(ctx))
	assert.Equal(t, id, execctx.ExecutionID(ctx))
}

func TestPushPop_ParentNodeID(t *testing.T) {
	ctx, _ := execctx.WithNewExecution(context.Background())
	assert.Equal(t, "", execctx.ParentNodeID(ctx))

	ctx = execctx.Push(ctx, "node-a")
	assert.Equal(t, "node-a", execctx.ParentNodeID(ctx))

	ctx = execctx.Push(ctx, "node-b")
	assert.Equal(t, "node-b", execctx.ParentNodeID(ctx))

	ctx = execctx.Pop(ctx)
	assert.Equal(t, "node-a", execctx.ParentNodeID(ctx))

	ctx = execctx.Pop(ctx)
	assert.Equal(t, "", execctx.ParentNodeID(ctx))
}

func TestPush_RestoresOnErrorPath(t *testing.T) {
	ctx, _ := execctx.WithNewExecution(context.Background())

	run := func(ctx context.Context) (context.Context, error) {
		ctx = execctx.Push(ctx, "child")
		defer func() { ctx = execctx.Pop(ctx) }()
		return ctx, assert.AnError
	}

	before := execctx.ParentNodeID(ctx)
	_, err := run(ctx)
	require.Error(t, err)
	assert.Equal(t, before, execctx.ParentNodeID(ctx))
}

func TestInExecution(t *testing.T) {
	assert.False(t, execctx.InExecution(context.Background()))
	ctx, _ := execctx.WithNewExecution(context.Background())
	assert.True(t, execctx.InExecution(ctx))
}

func TestIndependentCopiesForParallelFlows(t *testing.T) {
	base, _ := execctx.WithNewExecution(context.Background())
	base = execctx.Push(base, "root")

	left := execctx.Push(base, "left-child")
	right := execctx.Push(base, "right-child")

	assert.Equal(t, "left-child", execctx.ParentNodeID(left))
	assert.Equal(t, "right-child", execctx.ParentNodeID(right))
	assert.Equal(t, "root", execctx.ParentNodeID(base))
}
