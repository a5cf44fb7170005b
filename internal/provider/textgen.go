package provider

import (
	"context"
	"strings"

	"AliceBridge/internal/backend"
	"AliceBridge/internal/session"
)

// textGenProvider talks to Hugging Face text-generation inference endpoints,
// which take a single prompt string instead of a message list
type textGenProvider struct {
	*client
}

func (p *textGenProvider) Complete(ctx context.Context, system string, history []session.Message) (reply string, err error) {
	ctx, span := p.startSpan(ctx)
	defer func() { endSpan(span, err) }()

	reqBody := backend.TextGenRequest{
		Inputs: instructPrompt(system, history),
		Parameters: backend.TextGenParameters{
			MaxNewTokens:   p.maxTokens,
			Temperature:    p.temperature,
			ReturnFullText: false,
		},
		Options: backend.TextGenOptions{WaitForModel: true},
	}

	var apiResp backend.TextGenResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := p.postJSON(ctx, headers, reqBody, &apiResp); err != nil {
		return "", err
	}

	if len(apiResp) == 0 {
		return "", ErrEmptyResponse
	}
	return finish(apiResp[0].GeneratedText)
}

// instructPrompt renders the dialog in the Mistral instruct format.
// The system text is folded into the first user instruction and assistant
// turns before the first user turn are skipped.
func instructPrompt(system string, history []session.Message) string {
	var b strings.Builder
	b.WriteString("<s>")

	pendingSystem := system
	seenUser := false
	for _, msg := range history {
		switch msg.Role {
		case session.RoleUser:
			seenUser = true
			b.WriteString("[INST] ")
			if pendingSystem != "" {
				b.WriteString(pendingSystem)
				b.WriteString("\n\n")
				pendingSystem = ""
			}
			b.WriteString(msg.Content)
			b.WriteString(" [/INST]")
		case session.RoleAssistant:
			if !seenUser {
				continue
			}
			b.WriteString(" ")
			b.WriteString(msg.Content)
			b.WriteString("</s>")
		}
	}

	if !seenUser {
		b.WriteString("[INST] ")
		b.WriteString(pendingSystem)
		b.WriteString(" [/INST]")
	}
	return b.String()
}
