package provider

import (
	"context"

	"AliceBridge/internal/backend"
	"AliceBridge/internal/session"
)

// openAIProvider talks to OpenAI-compatible chat completion endpoints
type openAIProvider struct {
	*client
}

func (p *openAIProvider) Complete(ctx context.Context, system string, history []session.Message) (reply string, err error) {
	ctx, span := p.startSpan(ctx)
	defer func() { endSpan(span, err) }()

	messages := make([]backend.OpenAIMessage, 0, len(history)+1)
	messages = append(messages, backend.OpenAIMessage{Role: session.RoleSystem, Content: system})
	for _, msg := range history {
		messages = append(messages, backend.OpenAIMessage{Role: msg.Role, Content: msg.Content})
	}

	reqBody := backend.OpenAIRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Stream:      false,
	}

	var apiResp backend.OpenAIResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := p.postJSON(ctx, headers, reqBody, &apiResp); err != nil {
		return "", err
	}

	p.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return finish(apiResp.Choices[0].Message.Content)
}
