// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package capture times a provider callable, normalizes its response,
// attaches an execution-context-derived causal key and an optional
// verdict, and persists the resulting trace.
//
// The decorator-and-ambient-expectations shape of the source this package
// re-architects is replaced by an explicit builder: construct a Call with
// NewCall and its functional options, then invoke Run. There is no global
// registry keyed by the wrapped function.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/sentinel/internal/metrics"
	"github.com/AleutianAI/sentinel/pkg/logging"
	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/errs"
	"github.com/AleutianAI/sentinel/services/trace/execctx"
	"github.com/AleutianAI/sentinel/services/trace/expect"
	"github.com/AleutianAI/sentinel/services/trace/provider"
)

var tracer = otel.Tracer("sentinel/capture")

// Store is the subset of store.Store the pipeline needs, expressed as an
// interface so tests can substitute an in-memory fake without importing
// the store package (store, in turn, never needs to import capture).
type Store interface {
	Save(trace.Trace) error
}

// Option configures a Call. Mirrors the teacher's functional-options
// convention (see graph.BuilderOption in the example pack).
type Option func(*Call)

// WithParameters sets the generation parameters recorded on the trace.
func WithParameters(p trace.Parameters) Option {
	return func(c *Call) { c.parameters = p }
}

// WithExpectations attaches an expectation evaluator; if never called, no
// verdict is computed and Trace.Verdict stays nil.
func WithExpectations(opts expect.Options) Option {
	return func(c *Call) { c.expectations = &opts }
}

// WithStore arranges for Run to persist the resulting trace.
func WithStore(s Store) Option {
	return func(c *Call) { c.store = s }
}

// WithLogger overrides the logger used for this call. Defaults to
// logging.Default().
func WithLogger(l *logging.Logger) Option {
	return func(c *Call) { c.logger = l }
}

// WithMetrics attaches a metrics registry; when set, Run records capture
// count/latency against it.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Call) { c.metrics = m }
}

// Call is the explicit, immutable-after-NewCall description of one captured
// model invocation.
type Call struct {
	providerTag  string
	model        string
	messages     []trace.Message
	callable     provider.Callable
	parameters   trace.Parameters
	expectations *expect.Options
	store        Store
	logger       *logging.Logger
	metrics      *metrics.Registry
}

// NewCall builds a Call. callable is the opaque provider invocation;
// everything else about how the call is recorded is configured via
// options.
func NewCall(providerTag, model string, messages []trace.Message, callable provider.Callable, opts ...Option) *Call {
	c := &Call{
		providerTag: providerTag,
		model:       model,
		messages:    messages,
		callable:    callable,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is what Run returns: the raw provider response alongside the
// trace that was built (and, if a Store was configured, persisted) from
// it.
type Result struct {
	Raw   any
	Trace trace.Trace
}

// Run executes the captured call.
//
// On success: builds the request record, times the callable, normalizes
// its response, evaluates expectations if configured, persists via the
// configured Store, and returns the raw response alongside the trace.
//
// On provider failure: the error is wrapped in errs.ErrProvider, an error
// trace is still built and persisted (response text =
// "ERROR: <message>"), and the wrapped error is returned alongside the
// (still valid) partial Result.
func (c *Call) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "sentinel.capture")
	defer span.End()

	executionID := execctx.ExecutionID(ctx)
	parentNodeID := execctx.ParentNodeID(ctx)
	nodeID := uuid.NewString()
	ctx = execctx.Push(ctx, nodeID)

	log := c.logger.With("execution_id", executionID, "node_id", nodeID, "provider", c.providerTag, "model", c.model)

	req := trace.Request{
		Provider:   c.providerTag,
		Model:      c.model,
		Messages:   c.messages,
		Parameters: c.parameters,
	}

	span.SetAttributes(
		attribute.String("provider", c.providerTag),
		attribute.String("model", c.model),
		attribute.String("execution_id", executionID),
	)

	start := time.Now()
	raw, callErr := c.callable(ctx)
	latencyMS := int(time.Since(start).Milliseconds())

	var resp trace.Response
	var metadata map[string]interface{}

	if callErr != nil {
		log.Error("capture failed", "error", callErr.Error(), "latency_ms", latencyMS)
		resp = trace.Response{Text: fmt.Sprintf("ERROR: %s", callErr.Error()), LatencyMS: latencyMS}
		metadata = map[string]interface{}{"error": callErr.Error()}
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
	} else {
		text := provider.NormalizeText(raw)
		resp = trace.Response{Text: text, LatencyMS: latencyMS}
		if usage, ok := provider.NormalizeUsage(raw); ok {
			resp.Usage = &trace.Usage{
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
				TotalTokens:      usage.TotalTokens,
			}
		}
	}

	t := trace.Trace{
		TraceID:      uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ExecutionID:  executionID,
		NodeID:       nodeID,
		ParentNodeID: parentNodeID,
		Request:      req,
		Response:     resp,
		Runtime: trace.Runtime{
			Library: provider.DetectLibrary(c.providerTag),
			Version: "unknown",
		},
		Metadata: metadata,
	}

	if callErr == nil && c.expectations != nil {
		verdict := expect.Evaluate(resp.Text, latencyMS, *c.expectations)
		t.Verdict = &verdict
		if verdict.IsFailing() {
			log.Warn("verdict failed", "violations", verdict.Violations)
		}
	}

	if c.store != nil {
		if err := c.store.Save(t); err != nil {
			log.Error("persist failed", "error", err.Error())
			return Result{Raw: raw, Trace: t}, fmt.Errorf("%w: %v", errs.ErrStore, err)
		}
	}

	log.Info("capture complete", "latency_ms", latencyMS, "blessed", t.Blessed)

	if c.metrics != nil {
		outcome := "ok"
		if callErr != nil {
			outcome = "error"
		} else if t.Verdict.IsFailing() {
			outcome = "fail"
		}
		c.metrics.ObserveCapture(c.providerTag, c.model, outcome, latencyMS)
	}

	if callErr != nil {
		return Result{Raw: raw, Trace: t}, fmt.Errorf("%w: %v", errs.ErrProvider, callErr)
	}
	return Result{Raw: raw, Trace: t}, nil
}
