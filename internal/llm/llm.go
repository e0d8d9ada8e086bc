// Package llm abstracts the chat language model behind a small completion
// interface with an Anthropic-backed implementation.
package llm

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// ChatModel produces one assistant completion for a conversation. Messages
// are in chronological order; system-role messages carry instructions and may
// appear anywhere before the final user turn.
type ChatModel interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}
