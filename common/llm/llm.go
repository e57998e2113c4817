package llm

import (
	"fmt"
)

// Provider constants for LLM provider selection.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const defaultAzureAPIVersion = "2024-02-15-preview"

// Config holds LLM client configuration.
type Config struct {
	Provider    string   // "gemini", "openai", "azure" or "anthropic"
	APIKey      string   // Required: API key for the provider
	BaseURL     string   // Azure: resource endpoint (required). Others: optional custom endpoint
	APIVersion  string   // Azure only
	Model       string   // Azure: deployment name
	MaxTokens   int      // Default output budget when a request does not set one
	Temperature *float64 // Default temperature when a request does not set one
}

// New creates a Client for cfg.Provider. SDK-level retries are disabled on
// every provider: a failed call is reported to the caller as-is.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAzure:
		return newAzureClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case "":
		return nil, fmt.Errorf("LLM provider is required")
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

type defaults struct {
	maxTokens   int
	temperature *float64
}

func (d defaults) maxTokensFor(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if d.maxTokens > 0 {
		return d.maxTokens
	}
	return 4096
}

func (d defaults) temperatureFor(req Request) *float64 {
	if req.Temperature != nil {
		return req.Temperature
	}
	return d.temperature
}
