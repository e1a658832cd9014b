package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// minExtractableMessages is the shortest conversation worth analyzing.
const minExtractableMessages = 4

// ConversationMessage is one turn of the conversation under extraction.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Extractor mines a conversation for facts worth remembering and stores
// them as auto memories with provenance back to the conversation.
type Extractor struct {
	service *Service
	chat    ChatCompleter
	model   string
	logger  zerolog.Logger
}

// ExtractorConfig holds extractor configuration.
type ExtractorConfig struct {
	Service *Service
	Chat    ChatCompleter
	Model   string
	Logger  zerolog.Logger
}

// NewExtractor creates a conversation memory extractor.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("memory service is required")
	}
	if cfg.Chat == nil {
		return nil, fmt.Errorf("chat completer is required")
	}
	return &Extractor{
		service: cfg.Service,
		chat:    cfg.Chat,
		model:   cfg.Model,
		logger:  cfg.Logger,
	}, nil
}

const extractionSystemPrompt = "You are a memory extraction assistant. Extract important information from conversations and return it as JSON."

// extractedMemory is the shape the model is asked to produce.
type extractedMemory struct {
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`
}

// Extract analyzes a conversation and creates auto memories for
// whatever the model finds worth keeping. Conversations shorter than
// minExtractableMessages are skipped. A model that returns nothing
// usable is not an error; it just yields no memories.
func (e *Extractor) Extract(ctx context.Context, conversationID string, messages []ConversationMessage, model string) ([]Memory, error) {
	if len(messages) < minExtractableMessages {
		return []Memory{}, nil
	}

	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}

	prompt := fmt.Sprintf(`Analyze this conversation and extract important information that should be remembered for future interactions.

Focus on:
- User preferences and coding style
- Project-specific knowledge (architecture, patterns, conventions)
- Important decisions made
- Technical details about the codebase
- User's goals and ongoing tasks

For each memory, provide a JSON array with objects containing:
- content: The information to remember (1-3 sentences)
- summary: A brief title (5-10 words)
- tags: Relevant categories as array (e.g., ["preferences", "architecture", "react"])
- importance: 1-10 scale based on how useful this is for future conversations

Return ONLY a valid JSON array. If nothing worth remembering, return empty array [].

Conversation:
%s
`, sb.String())

	if model == "" {
		model = e.model
	}

	raw, err := e.chat.Complete(ctx, extractionSystemPrompt, prompt, model)
	if err != nil {
		return nil, fmt.Errorf("failed to run extraction: %w", err)
	}

	extracted := parseExtractedMemories(raw)
	created := make([]Memory, 0, len(extracted))

	for _, item := range extracted {
		if item.Content == "" {
			continue
		}

		input := CreateMemoryInput{
			Content:              item.Content,
			Type:                 TypeAuto,
			Tags:                 item.Tags,
			SourceConversationID: &conversationID,
		}
		if item.Summary != "" {
			summary := item.Summary
			input.Summary = &summary
		}
		if item.Importance > 0 {
			importance := item.Importance
			input.Importance = &importance
		}

		mem, err := e.service.CreateMemory(ctx, input, true)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Failed to store extracted memory")
			continue
		}
		created = append(created, *mem)
	}

	return created, nil
}

// parseExtractedMemories tolerates models that wrap the JSON array in a
// code fence; anything else unparsable yields an empty result.
func parseExtractedMemories(raw string) []extractedMemory {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var extracted []extractedMemory
	if err := json.Unmarshal([]byte(text), &extracted); err != nil {
		return nil
	}
	return extracted
}
