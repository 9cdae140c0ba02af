// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package openai_test

import (
	"context"
	"testing"

	openaisdk "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/trace/provider"
	"github.com/AleutianAI/sentinel/services/trace/provider/openai"
)

type stubClient struct {
	resp openaisdk.ChatCompletionResponse
	err  error
}

func (s stubClient) CreateChatCompletion(ctx context.Context, req openaisdk.ChatCompletionRequest) (openaisdk.ChatCompletionResponse, error) {
	return s.resp, s.err
}

func TestAdapter_NormalizesMessageContent(t *testing.T) {
	stub := stubClient{resp: openaisdk.ChatCompletionResponse{
		Choices: []openaisdk.ChatCompletionChoice{
			{Message: openaisdk.ChatCompletionMessage{Content: "hello there"}},
		},
		Usage: openaisdk.Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7},
	}}

	adapter := openai.NewAdapter(stub)
	call := adapter.Constructor()("gpt-4", []provider.Message{{Role: "user", Content: "hi"}}, provider.Parameters{})

	raw, err := call(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "hello there", provider.NormalizeText(raw))
	usage, ok := provider.NormalizeUsage(raw)
	require.True(t, ok)
	assert.Equal(t, provider.RawUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}, usage)
}

func TestAdapter_PropagatesError(t *testing.T) {
	stub := stubClient{err: assert.AnError}
	adapter := openai.NewAdapter(stub)
	call := adapter.Constructor()("gpt-4", nil, provider.Parameters{})

	_, err := call(context.Background())
	assert.Error(t, err)
}
