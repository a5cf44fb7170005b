package provider

import (
	"context"

	"AliceBridge/internal/backend"
	"AliceBridge/internal/session"
)

// ollamaProvider talks to a local Ollama server
type ollamaProvider struct {
	*client
}

func (p *ollamaProvider) Complete(ctx context.Context, system string, history []session.Message) (reply string, err error) {
	ctx, span := p.startSpan(ctx)
	defer func() { endSpan(span, err) }()

	messages := make([]backend.OpenAIMessage, 0, len(history)+1)
	messages = append(messages, backend.OpenAIMessage{Role: session.RoleSystem, Content: system})
	for _, msg := range history {
		messages = append(messages, backend.OpenAIMessage{Role: msg.Role, Content: msg.Content})
	}

	reqBody := backend.OllamaRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Options: &backend.OllamaOptions{
			Temperature: p.temperature,
			NumPredict:  p.maxTokens,
		},
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var apiResp backend.OllamaResponse
	if err := p.postJSON(ctx, headers, reqBody, &apiResp); err != nil {
		return "", err
	}

	p.recordUsage(ctx, map[string]interface{}{
		"prompt_tokens":     float64(apiResp.PromptEvalCount),
		"completion_tokens": float64(apiResp.EvalCount),
	})

	return finish(apiResp.Message.Content)
}
