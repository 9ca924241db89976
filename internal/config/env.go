package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey indicates no credential was found for a provider.
var ErrMissingAPIKey = errors.New("api key not set")

// LoadEnv loads a .env file into the process environment if one exists.
// A missing file is not an error; shell environment always wins.
func LoadEnv() {
	_ = godotenv.Load()
}

// ProviderAPIKey returns the credential for an LLM provider from the
// environment. Missing credentials are a fatal configuration error for
// binaries that need the provider.
func ProviderAPIKey(provider string) (string, error) {
	var envVar string

	switch provider {
	case "openai":
		envVar = "OPENAI_API_KEY"
	case "anthropic":
		envVar = "ANTHROPIC_API_KEY"
	case "xai":
		envVar = "XAI_API_KEY"
	default:
		return "", fmt.Errorf("unknown provider: %q", provider)
	}

	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAPIKey, envVar)
	}

	return key, nil
}
