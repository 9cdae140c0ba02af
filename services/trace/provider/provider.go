// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package provider is the opaque-callable boundary the capture pipeline
// invokes.
//
// # Description
//
// Instead of one class per provider, the pipeline accepts a plain
// Callable and normalises whatever it returns through a small set of
// reflection-free rules. Adding a provider means adding one Callable and,
// optionally, one Registry entry — never a new type hierarchy.
//
// # Thread Safety
//
// Callable values and the Registry are read-only after construction and
// safe for concurrent use.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// Callable is the shape every provider adapter exposes to the capture
// pipeline: invoke the model and return its raw, unnormalised response.
type Callable func(ctx context.Context) (any, error)

// RawUsage is the subset of a provider's usage accounting this package
// knows how to normalise.
type RawUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// usageSource is implemented by SDK response types that expose usage
// directly (e.g. go-openai's ChatCompletionResponse). Adapters that wrap
// such SDKs can satisfy this without any capture-pipeline changes.
type usageSource interface {
	SentinelUsage() (RawUsage, bool)
}

// choiceTexter lets a response type short-circuit NormalizeText when the
// generic map/string rules below don't apply to its shape.
type choiceTexter interface {
	SentinelText() (string, bool)
}

// NormalizeText extracts response.text from an opaque provider response
// by the first applicable rule:
//
//  1. response is a string -> itself.
//  2. response implements choiceTexter (e.g. adapts
//     choices[0].message.content / choices[0].text) -> that.
//  3. response is a map with a "text" key -> that, stringified.
//  4. otherwise -> fmt.Sprintf("%v", response).
func NormalizeText(response any) string {
	switch v := response.(type) {
	case string:
		return v
	case choiceTexter:
		if text, ok := v.SentinelText(); ok {
			return text
		}
	case map[string]any:
		if text, ok := v["text"]; ok {
			return fmt.Sprintf("%v", text)
		}
	}
	return fmt.Sprintf("%v", response)
}

// NormalizeUsage extracts token usage, when available, from an opaque
// provider response.
func NormalizeUsage(response any) (RawUsage, bool) {
	switch v := response.(type) {
	case usageSource:
		return v.SentinelUsage()
	case map[string]any:
		raw, ok := v["usage"].(map[string]any)
		if !ok {
			return RawUsage{}, false
		}
		return RawUsage{
			PromptTokens:     toInt(raw["prompt_tokens"]),
			CompletionTokens: toInt(raw["completion_tokens"]),
			TotalTokens:      toInt(raw["total_tokens"]),
		}, true
	}
	return RawUsage{}, false
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// libraryMapping mirrors the original source's _detect_library table:
// provider tag -> client library name. Providers absent from the map fall
// back to their own tag, lower-cased.
var libraryMapping = map[string]string{
	"openai":       "openai",
	"local":        "llama_cpp",
	"llama":        "llama_cpp",
	"transformers": "transformers",
}

// DetectLibrary returns the client library name associated with a
// provider tag.
func DetectLibrary(providerTag string) string {
	if lib, ok := libraryMapping[strings.ToLower(providerTag)]; ok {
		return lib
	}
	return strings.ToLower(providerTag)
}

// Registry maps a provider tag to a constructor that builds a Callable
// for a given model/messages/parameters triple. Real deployments register
// one entry per supported provider (see package openai for the only
// adapter this module ships); tests register stub constructors directly.
type Registry struct {
	constructors map[string]Constructor
}

// Constructor builds a Callable bound to a specific model/messages/params.
type Constructor func(model string, messages []Message, params Parameters) Callable

// Message and Parameters mirror trace.Message/trace.Parameters without
// importing the trace package, keeping provider a leaf dependency any
// adapter can build against without a cycle.
type Message struct {
	Role    string
	Content string
	Name    string
}

type Parameters struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for a provider tag.
func (r *Registry) Register(providerTag string, c Constructor) {
	r.constructors[strings.ToLower(providerTag)] = c
}

// Build looks up the constructor for providerTag and binds it to the
// given call parameters. ok is false if no constructor is registered.
func (r *Registry) Build(providerTag, model string, messages []Message, params Parameters) (Callable, bool) {
	c, ok := r.constructors[strings.ToLower(providerTag)]
	if !ok {
		return nil, false
	}
	return c(model, messages, params), true
}
