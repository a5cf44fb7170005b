package provider

import "strings"

// artifacts are control tokens some models leak into generated text
var artifacts = []string{
	"<|endoftext|>",
	"<|im_end|>",
	"<|im_start|>",
	"<|eot_id|>",
	"</s>",
	"<s>",
	"[INST]",
	"[/INST]",
}

// Clean strips model control tokens and a leading speaker label from a reply
func Clean(text string) string {
	for _, a := range artifacts {
		text = strings.ReplaceAll(text, a, "")
	}
	text = strings.TrimSpace(text)

	for _, label := range []string{"Assistant:", "assistant:", "Ассистент:"} {
		if strings.HasPrefix(text, label) {
			text = strings.TrimSpace(strings.TrimPrefix(text, label))
			break
		}
	}
	return text
}
