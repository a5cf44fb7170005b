package config

import (
	"errors"
	"fmt"
	"strings"
)

const minKeyLength = 10

var (
	// ErrMissingKey indicates the variant's key variable is unset or blank
	ErrMissingKey = errors.New("API key is not set")

	// ErrMalformedKey indicates the key is too short or has the wrong prefix
	ErrMalformedKey = errors.New("API key is malformed")
)

// CheckAPIKey trims raw and validates it against the variant's requirements
func CheckAPIKey(v Variant, raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		if v.KeyOptional {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", v.KeyEnv, ErrMissingKey)
	}

	if len(key) < minKeyLength {
		return "", fmt.Errorf("%s: %w: shorter than %d characters", v.KeyEnv, ErrMalformedKey, minKeyLength)
	}
	if v.KeyPrefix != "" && !strings.HasPrefix(key, v.KeyPrefix) {
		return "", fmt.Errorf("%s: %w: must start with %q", v.KeyEnv, ErrMalformedKey, v.KeyPrefix)
	}
	return key, nil
}

// MaskKey returns a loggable form of the key
func MaskKey(key string) string {
	if len(key) <= 5 {
		return "..."
	}
	return key[:5] + "..."
}
