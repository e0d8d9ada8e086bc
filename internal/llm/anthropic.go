package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// AnthropicModel completes conversations through the Anthropic Messages API.
type AnthropicModel struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropicModel creates a model client using the API key from the
// environment variable named in cfg. The key never comes from the config file.
func NewAnthropicModel(cfg *config.ChatConfig) (*AnthropicModel, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("chat API key not set: export %s", cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicModel{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   timeout,
	}, nil
}

// Complete sends the conversation and returns the assistant's reply. System
// messages are lifted into the request's system field in order; the rest
// become user or assistant turns.
func (m *AnthropicModel) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", &models.ValidationError{Field: "messages", Reason: "must not be empty"}
	}

	var system []anthropic.TextBlockParam
	turns := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case models.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", &models.ProviderError{Provider: "llm", Err: err}
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &models.ProviderError{Provider: "llm", Err: fmt.Errorf("empty completion")}
	}
	return b.String(), nil
}
