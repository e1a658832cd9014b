package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChat replays a canned completion.
type stubChat struct {
	response string
	err      error
	calls    int
	model    string
}

func (c *stubChat) Complete(_ context.Context, _, _, model string) (string, error) {
	c.calls++
	c.model = model
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func fourMessages() []ConversationMessage {
	return []ConversationMessage{
		{Role: "user", Content: "I always use pnpm, never npm"},
		{Role: "assistant", Content: "Noted, I'll use pnpm"},
		{Role: "user", Content: "also the API lives in services/api"},
		{Role: "assistant", Content: "Got it"},
	}
}

func newTestExtractor(t *testing.T, chat ChatCompleter) *Extractor {
	t.Helper()

	ex, err := NewExtractor(ExtractorConfig{
		Service: newTestService(t, nil),
		Chat:    chat,
		Model:   "gpt-4o-mini",
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	return ex
}

func TestExtract_CreatesAutoMemories(t *testing.T) {
	chat := &stubChat{response: `[
		{"content": "User prefers pnpm over npm", "summary": "package manager preference", "tags": ["preferences"], "importance": 7},
		{"content": "API code lives in services/api", "summary": "repo layout", "tags": ["architecture"], "importance": 6}
	]`}
	ex := newTestExtractor(t, chat)

	created, err := ex.Extract(context.Background(), "conv-1", fourMessages(), "")
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, TypeAuto, created[0].Type)
	assert.Equal(t, 7, created[0].Importance)
	require.NotNil(t, created[0].SourceConversationID)
	assert.Equal(t, "conv-1", *created[0].SourceConversationID)
	require.NotNil(t, created[0].Summary)
	assert.Equal(t, "package manager preference", *created[0].Summary)

	// The default model is used when the caller does not pick one.
	assert.Equal(t, "gpt-4o-mini", chat.model)
}

func TestExtract_TooFewMessages(t *testing.T) {
	chat := &stubChat{response: `[]`}
	ex := newTestExtractor(t, chat)

	created, err := ex.Extract(context.Background(), "conv-1", fourMessages()[:3], "")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 0, chat.calls)
}

func TestExtract_ModelOverride(t *testing.T) {
	chat := &stubChat{response: `[]`}
	ex := newTestExtractor(t, chat)

	_, err := ex.Extract(context.Background(), "conv-1", fourMessages(), "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", chat.model)
}

func TestExtract_ChatFailure(t *testing.T) {
	chat := &stubChat{err: errors.New("model offline")}
	ex := newTestExtractor(t, chat)

	_, err := ex.Extract(context.Background(), "conv-1", fourMessages(), "")
	assert.Error(t, err)
}

func TestExtract_SkipsEmptyContent(t *testing.T) {
	chat := &stubChat{response: `[{"content": "", "summary": "nothing"}, {"content": "real fact"}]`}
	ex := newTestExtractor(t, chat)

	created, err := ex.Extract(context.Background(), "conv-1", fourMessages(), "")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "real fact", created[0].Content)
}

func TestParseExtractedMemories(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{
			name:     "plain array",
			raw:      `[{"content": "a"}, {"content": "b"}]`,
			expected: 2,
		},
		{
			name:     "json code fence",
			raw:      "```json\n[{\"content\": \"fenced\"}]\n```",
			expected: 1,
		},
		{
			name:     "bare code fence",
			raw:      "```\n[{\"content\": \"fenced\"}]\n```",
			expected: 1,
		},
		{
			name:     "empty array",
			raw:      `[]`,
			expected: 0,
		},
		{
			name:     "not json at all",
			raw:      "I could not find anything worth remembering.",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, parseExtractedMemories(tt.raw), tt.expected)
		})
	}
}
