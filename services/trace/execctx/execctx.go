// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package execctx stitches sibling captured calls of one logical program
// run into parent/child edges.
//
// The original implementation this package re-architects used Python
// contextvars: task-local ambient state that every call site reads and
// writes implicitly. That shape does not belong in idiomatic Go. Here the
// scope is an explicit value carried on context.Context under a private
// key, installed and restored by WithNewExecution/Push/Pop. There is no
// package-level mutable state; two goroutines holding different
// context.Context values never observe each other's node stack.
package execctx

import (
	"context"

	"github.com/google/uuid"
)

type scope struct {
	executionID string
	stack       []string
}

type contextKey struct{}

var key = contextKey{}

// WithNewExecution installs a fresh execution id and an empty node stack
// on ctx, returning the derived context and the new execution id. Callers
// that need the scope restored on exit (matching the source's
// contextmanager semantics) should not rely on this function alone; it
// only builds the child context, it does not undo anything, since Go's
// context.Context is itself immutable and scoping falls out of normal
// call-stack shadowing.
func WithNewExecution(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, key, &scope{executionID: id}), id
}

// current returns the scope installed on ctx, or nil if none exists.
func current(ctx context.Context) *scope {
	s, _ := ctx.Value(key).(*scope)
	return s
}

// ExecutionID returns the execution id carried on ctx. If no scope has
// been installed, a new random id is synthesised and returned — NOT
// cached anywhere — so two calls to ExecutionID on a context with no
// active scope return two different ids. This replicates the original
// source's get_execution_id() behaviour outside any context manager
// (Open Question (d) in SPEC_FULL.md): it is surprising, but callers that
// want a stable id across multiple captures must establish a scope first
// via WithNewExecution.
func ExecutionID(ctx context.Context) string {
	if s := current(ctx); s != nil {
		return s.executionID
	}
	return uuid.NewString()
}

// ParentNodeID returns the node id at the top of the stack, or "" if the
// stack is empty or no scope is installed.
func ParentNodeID(ctx context.Context) string {
	s := current(ctx)
	if s == nil || len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1]
}

// InExecution reports whether ctx carries an installed scope.
func InExecution(ctx context.Context) bool {
	return current(ctx) != nil
}

// Push appends nodeID to the stack carried on ctx. If ctx has no scope
// installed yet, Push silently installs one rooted at a freshly generated
// execution id — mirroring the source's push_node, which is a silent
// no-op outside a context; here we instead give the caller a working
// scope, since a capture pipeline that calls Push is always inside
// WithNewExecution in normal use. Returns the derived context; callers
// MUST use the returned context for the remainder of the captured call.
func Push(ctx context.Context, nodeID string) context.Context {
	s := current(ctx)
	if s == nil {
		child, _ := WithNewExecution(ctx)
		return Push(child, nodeID)
	}
	next := &scope{
		executionID: s.executionID,
		stack:       append(append([]string{}, s.stack...), nodeID),
	}
	return context.WithValue(ctx, key, next)
}

// Pop removes the top of the stack carried on ctx and returns the derived
// context. Popping an empty or absent stack is a no-op.
func Pop(ctx context.Context) context.Context {
	s := current(ctx)
	if s == nil || len(s.stack) == 0 {
		return ctx
	}
	next := &scope{
		executionID: s.executionID,
		stack:       append([]string{}, s.stack[:len(s.stack)-1]...),
	}
	return context.WithValue(ctx, key, next)
}
