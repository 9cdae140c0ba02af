// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package openai adapts github.com/sashabaranov/go-openai to the
// provider.Callable boundary.
//
// # Description
//
// This is the one concrete provider adapter this module ships. It
// translates a provider.Message/provider.Parameters pair into a
// ChatCompletionRequest and returns the SDK's response value unmodified;
// all normalisation happens generically in package provider, so the rest
// of the system never imports this package's types directly.
//
// # Assumptions
//
// The caller supplies an API key via the OPENAI_API_KEY environment
// variable or an explicit client; this package never reads credentials
// on its own initiative beyond what go-openai itself does.
package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/sentinel/services/trace/provider"
)

// response wraps the SDK's ChatCompletionResponse so it satisfies the
// choiceTexter/usageSource interfaces package provider normalises
// against, without provider needing to import this package.
type response struct {
	openaisdk.ChatCompletionResponse
}

func (r response) SentinelText() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	choice := r.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content, true
	}
	if choice.Text != "" {
		return choice.Text, true
	}
	return "", false
}

func (r response) SentinelUsage() (provider.RawUsage, bool) {
	u := r.Usage
	if u.TotalTokens == 0 && u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return provider.RawUsage{}, false
	}
	return provider.RawUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}, true
}

// Client is the minimal surface this adapter needs from *openaisdk.Client,
// kept as an interface so tests can substitute a stub.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openaisdk.ChatCompletionRequest) (openaisdk.ChatCompletionResponse, error)
}

// NewClient builds a go-openai client for apiKey using the SDK's own
// default configuration. It reads no environment variable itself.
func NewClient(apiKey string) Client {
	return openaisdk.NewClient(apiKey)
}

// Adapter builds provider.Callable values bound to a Client.
type Adapter struct {
	client Client
}

// NewAdapter returns an Adapter backed by client.
func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

// Constructor returns a provider.Constructor suitable for registration in
// a provider.Registry under the "openai" tag.
func (a *Adapter) Constructor() provider.Constructor {
	return func(model string, messages []provider.Message, params provider.Parameters) provider.Callable {
		return func(ctx context.Context) (any, error) {
			req := openaisdk.ChatCompletionRequest{
				Model:            model,
				Messages:         toOpenAIMessages(messages),
				Temperature:      float32(params.Temperature),
				MaxTokens:        params.MaxTokens,
				TopP:             float32(params.TopP),
				FrequencyPenalty: float32(params.FrequencyPenalty),
				PresencePenalty:  float32(params.PresencePenalty),
				Stop:             params.Stop,
			}
			resp, err := a.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("openai: %w", err)
			}
			return response{resp}, nil
		}
	}
}

func toOpenAIMessages(messages []provider.Message) []openaisdk.ChatCompletionMessage {
	out := make([]openaisdk.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openaisdk.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		}
	}
	return out
}
