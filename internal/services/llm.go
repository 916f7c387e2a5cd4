package services

import (
	"context"
	"strings"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
)

// LLMService defines the interface for interacting with the LLM API.
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a freeform narration response
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)

	// ChatStructured generates a backend response constrained to the
	// given schema. The raw JSON bytes are returned unvalidated; the
	// caller runs them through schema.Validate before applying anything.
	ChatStructured(ctx context.Context, messages []chat.ChatMessage, id schema.ID) ([]byte, error)
}

// extractJSON strips markdown code fences some models wrap around
// structured output. The payload itself is left untouched.
func extractJSON(content string) []byte {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}
