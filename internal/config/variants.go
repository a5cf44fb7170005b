package config

import (
	"fmt"
	"sort"
)

// Upstream API families. Variants in the same family share a wire format.
const (
	FamilyOpenAI    = "openai"
	FamilyAnthropic = "anthropic"
	FamilyTextGen   = "textgen"
	FamilyOllama    = "ollama"
)

// Variant describes one upstream the bridge can front
type Variant struct {
	Name        string
	DisplayName string
	Family      string
	Endpoint    string
	Model       string

	KeyEnv      string
	KeyPrefix   string
	KeyOptional bool

	HistoryCap    int // turns kept per session
	ContextWindow int // most recent turns sent upstream

	SystemPrompt string
	Welcome      string
	Apology      string
}

func systemPrompt(name string) string {
	return fmt.Sprintf("Ты — %s, дружелюбный и краткий ассистент для Алисы (Яндекс.Диалоги). "+
		"Отвечай на русском языке. Избегай markdown, списков и длинных абзацев. Максимум 2–3 предложения.", name)
}

func welcome(name string) string {
	return fmt.Sprintf("Привет! Я %s. Чем могу помочь?", name)
}

func apology(name string) string {
	return fmt.Sprintf("Похоже, %s временно задумался... Повторите, пожалуйста.", name)
}

var variants = map[string]Variant{
	"deepseek": {
		Name:          "deepseek",
		DisplayName:   "DeepSeek",
		Family:        FamilyOpenAI,
		Endpoint:      "https://api.deepseek.com/chat/completions",
		Model:         "deepseek-chat",
		KeyEnv:        "DEEPSEEK_API_KEY",
		KeyPrefix:     "sk-",
		HistoryCap:    10,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("DeepSeek"),
		Welcome:       "Привет! Я DeepSeek — умный ИИ, созданный в Китае, но говорю по-русски как родной. Чем могу помочь?",
		Apology:       apology("DeepSeek"),
	},
	"openai": {
		Name:          "openai",
		DisplayName:   "ChatGPT",
		Family:        FamilyOpenAI,
		Endpoint:      "https://api.openai.com/v1/chat/completions",
		Model:         "gpt-4o-mini",
		KeyEnv:        "OPENAI_API_KEY",
		KeyPrefix:     "sk-",
		HistoryCap:    6,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("ChatGPT"),
		Welcome:       welcome("ChatGPT"),
		Apology:       apology("ChatGPT"),
	},
	"grok": {
		Name:          "grok",
		DisplayName:   "Grok",
		Family:        FamilyOpenAI,
		Endpoint:      "https://api.x.ai/v1/chat/completions",
		Model:         "grok-2-latest",
		KeyEnv:        "GROK_API_KEY",
		KeyPrefix:     "xai-",
		HistoryCap:    10,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("Grok"),
		Welcome:       welcome("Grok"),
		Apology:       apology("Grok"),
	},
	"openrouter": {
		Name:          "openrouter",
		DisplayName:   "Llama",
		Family:        FamilyOpenAI,
		Endpoint:      "https://openrouter.ai/api/v1/chat/completions",
		Model:         "meta-llama/llama-3.1-8b-instruct",
		KeyEnv:        "OPENROUTER_API_KEY",
		KeyPrefix:     "sk-or-",
		HistoryCap:    6,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("Llama"),
		Welcome:       welcome("Llama"),
		Apology:       apology("Llama"),
	},
	"anthropic": {
		Name:          "anthropic",
		DisplayName:   "Claude",
		Family:        FamilyAnthropic,
		Endpoint:      "https://api.anthropic.com/v1/messages",
		Model:         "claude-3-5-haiku-latest",
		KeyEnv:        "ANTHROPIC_API_KEY",
		KeyPrefix:     "sk-ant-",
		HistoryCap:    6,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("Claude"),
		Welcome:       welcome("Claude"),
		Apology:       apology("Claude"),
	},
	"huggingface": {
		Name:          "huggingface",
		DisplayName:   "Mistral",
		Family:        FamilyTextGen,
		Endpoint:      "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.2",
		Model:         "mistralai/Mistral-7B-Instruct-v0.2",
		KeyEnv:        "HF_API_KEY",
		KeyPrefix:     "hf_",
		HistoryCap:    4,
		ContextWindow: 4,
		SystemPrompt:  systemPrompt("Mistral"),
		Welcome:       welcome("Mistral"),
		Apology:       apology("Mistral"),
	},
	"ollama": {
		Name:          "ollama",
		DisplayName:   "Llama",
		Family:        FamilyOllama,
		Endpoint:      "http://localhost:11434/api/chat",
		Model:         "llama3:latest",
		KeyEnv:        "OLLAMA_API_KEY",
		KeyOptional:   true,
		HistoryCap:    6,
		ContextWindow: 6,
		SystemPrompt:  systemPrompt("Llama"),
		Welcome:       welcome("Llama"),
		Apology:       apology("Llama"),
	},
}

// Lookup returns the named variant
func Lookup(name string) (Variant, bool) {
	v, ok := variants[name]
	return v, ok
}

// VariantNames lists registered variants in alphabetical order
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
