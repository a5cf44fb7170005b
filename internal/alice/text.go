package alice

import (
	"strings"
	"unicode"
)

const (
	// MaxResponseLength is the platform limit for response text, in characters
	MaxResponseLength = 1024
	truncatedLength   = 1020
	ellipsis          = "…"

	InvalidRequestText = "Некорректный формат запроса."
	FarewellText       = "Спасибо за разговор! До новых встреч."
)

// Truncate cuts text longer than MaxResponseLength characters to 1020 plus an ellipsis
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxResponseLength {
		return text
	}
	return string(runes[:truncatedLength]) + ellipsis
}

// normalizeWords lowercases text and joins its words with single spaces,
// padded on both sides so phrases can be matched on word boundaries
func normalizeWords(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

// ClosingMatcher recognizes utterances that end the dialog
type ClosingMatcher struct {
	phrases []string
}

// NewClosingMatcher creates a matcher for the given words or phrases
func NewClosingMatcher(phrases []string) *ClosingMatcher {
	m := &ClosingMatcher{}
	for _, p := range phrases {
		if n := normalizeWords(p); strings.TrimSpace(n) != "" {
			m.phrases = append(m.phrases, n)
		}
	}
	return m
}

// Match reports whether the utterance contains a closing word or phrase
func (m *ClosingMatcher) Match(utterance string) bool {
	text := normalizeWords(utterance)
	for _, p := range m.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
