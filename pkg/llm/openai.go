// Package llm holds thin clients for the external LLM providers the
// backend consumes: embeddings for memory retrieval and chat completion
// for memory extraction. Everything else about the providers is out of
// scope here.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sentinelops/sentineld/pkg/memory"
)

// OpenAIClient implements memory.EmbeddingProvider and
// memory.ChatCompleter against the OpenAI API (or any API-compatible
// endpoint via a custom base URL).
type OpenAIClient struct {
	client         openai.Client
	embeddingModel string
}

// NewOpenAIClient creates an OpenAI client. baseURL may be empty for
// the default endpoint. embeddingModel accepts the provider-prefixed
// form used in settings ("openai/text-embedding-3-small").
func NewOpenAIClient(apiKey, baseURL, embeddingModel string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		embeddingModel: strings.TrimPrefix(embeddingModel, "openai/"),
	}
}

// Embed computes an embedding vector for a text string.
func (c *OpenAIClient) Embed(ctx context.Context, text string) (*memory.Embedding, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	raw := resp.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}

	model := resp.Model
	if model == "" {
		model = c.embeddingModel
	}

	return &memory.Embedding{Vector: vector, Model: model}, nil
}

// Complete runs a single-turn chat completion and returns the text of
// the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt, model string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(2048),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
