package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a completion provider based on the given provider
// type and default model. API keys are read from the conventional
// environment variables.
func NewProvider(providerType string, model string) (Provider, error) {
	keyed := func(envVar string, build func(key, model string) Provider) (Provider, error) {
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
		return build(apiKey, model), nil
	}

	switch providerType {
	case "groq":
		return keyed("GROQ_API_KEY", func(k, m string) Provider { return NewGroqProvider(k, m) })
	case "openai":
		return keyed("OPENAI_API_KEY", func(k, m string) Provider { return NewOpenAIProvider(k, m) })
	case "openrouter":
		return keyed("OPENROUTER_API_KEY", func(k, m string) Provider { return NewOpenRouterProvider(k, m) })
	case "anthropic":
		return keyed("ANTHROPIC_API_KEY", func(k, m string) Provider { return NewAnthropicProvider(k, m) })
	case "google":
		return keyed("GOOGLE_API_KEY", func(k, m string) Provider { return NewGoogleProvider(k, m) })
	case "ollama":
		return NewOllamaProvider(OllamaHost(), model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// OllamaHost returns OLLAMA_HOST or the local default.
func OllamaHost() string {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		return host
	}
	return "http://localhost:11434"
}
