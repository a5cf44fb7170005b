package provider

import (
	"context"

	"AliceBridge/internal/backend"
	"AliceBridge/internal/session"
)

const anthropicVersion = "2023-06-01"

// anthropicProvider talks to the Anthropic Messages API
type anthropicProvider struct {
	*client
}

func (p *anthropicProvider) Complete(ctx context.Context, system string, history []session.Message) (reply string, err error) {
	ctx, span := p.startSpan(ctx)
	defer func() { endSpan(span, err) }()

	// The Messages API rejects a conversation opening with an assistant turn,
	// which happens when the window starts at the welcome text.
	start := 0
	for start < len(history) && history[start].Role != session.RoleUser {
		start++
	}

	messages := make([]backend.AnthropicMessage, 0, len(history)-start)
	for _, msg := range history[start:] {
		messages = append(messages, backend.AnthropicMessage{Role: msg.Role, Content: msg.Content})
	}

	reqBody := backend.AnthropicRequest{
		Model:       p.model,
		System:      system,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Messages:    messages,
	}

	var apiResp backend.AnthropicResponse
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := p.postJSON(ctx, headers, reqBody, &apiResp); err != nil {
		return "", err
	}

	p.recordUsage(ctx, apiResp.Usage)

	for _, content := range apiResp.Content {
		if content.Type == "text" {
			return finish(content.Text)
		}
	}
	return "", ErrEmptyResponse
}
