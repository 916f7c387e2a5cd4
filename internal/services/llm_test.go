package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(extractJSON(tc.in)))
		})
	}
}

func TestMockLLMService_CannedResponses(t *testing.T) {
	mock := NewMockLLMService()
	ctx := context.Background()

	mock.SetStructuredResponse(schema.PacingAnalysis, []byte(`{"currentLevel":"calm"}`))

	raw, err := mock.ChatStructured(ctx, nil, schema.PacingAnalysis)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentLevel":"calm"}`, string(raw))

	// No canned response for this schema, falls back to an empty object.
	raw, err = mock.ChatStructured(ctx, nil, schema.GridUpdate)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(raw))

	_, chatCalls, structuredCalls := mock.GetCalls()
	assert.Empty(t, chatCalls)
	require.Len(t, structuredCalls, 2)
	assert.Equal(t, schema.PacingAnalysis, structuredCalls[0].SchemaID)
}

func TestMockLLMService_ErrorInjection(t *testing.T) {
	mock := NewMockLLMService()
	ctx := context.Background()

	mock.SetChatError(errors.New("narration down"))
	_, err := mock.Chat(ctx, []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}})
	assert.Error(t, err)

	mock.SetChatStructuredError(errors.New("backend down"))
	_, err = mock.ChatStructured(ctx, nil, schema.HeavyContext)
	assert.Error(t, err)

	mock.Reset()
	initCalls, chatCalls, structuredCalls := mock.GetCalls()
	assert.Empty(t, initCalls)
	assert.Empty(t, chatCalls)
	assert.Empty(t, structuredCalls)
}
