package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel            OTelConfig
	ReaderLLM       LLMConfig
	WriterLLM       LLMConfig
	GitLab          GitLabConfig
	Env             string
	OutputDir       string
	ReviewMaxRounds int
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider         string // "gemini", "openai", "azure" or "anthropic"
	APIKey           string
	BaseURL          string // Azure: resource endpoint. Others: optional custom endpoint
	APIVersion       string // Azure only
	Model            string // Azure: deployment name
	MaxTokens        int
	Temperature      *float64 // nil = model default
	StructuredOutput bool     // request a JSON schema response format
}

type GitLabConfig struct {
	Token     string
	BaseURL   string
	ProjectID string
}

var supportedProviders = map[string]bool{
	"gemini":    true,
	"openai":    true,
	"azure":     true,
	"anthropic": true,
}

// Load loads configuration from environment variables.
// In development it first loads a .env file from the working directory if one exists.
func Load() (Config, error) {
	if getEnv("SPECFLOW_ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:             getEnv("SPECFLOW_ENV", "development"),
		OutputDir:       getEnv("OUTPUT_DIR", ""),
		ReviewMaxRounds: getEnvInt("REVIEW_MAX_ROUNDS", 5),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "specflow"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		// Reader defaults to a large-context Gemini model, deterministic output.
		ReaderLLM: LLMConfig{
			Provider:         getEnv("READER_LLM_PROVIDER", "gemini"),
			APIKey:           getEnv("READER_LLM_API_KEY", getEnv("GEMINI_API_KEY", "")),
			BaseURL:          getEnv("READER_LLM_BASE_URL", ""),
			APIVersion:       getEnv("READER_LLM_API_VERSION", ""),
			Model:            getEnv("READER_LLM_MODEL", "gemini-2.5-flash"),
			MaxTokens:        getEnvInt("READER_LLM_MAX_TOKENS", 2048),
			Temperature:      getEnvFloatPtr("READER_LLM_TEMPERATURE", floatPtr(0)),
			StructuredOutput: false,
		},
		// Writer defaults to an Azure OpenAI deployment, using the same variable
		// names the Azure portal hands out.
		WriterLLM: LLMConfig{
			Provider:         getEnv("WRITER_LLM_PROVIDER", "azure"),
			APIKey:           getEnv("WRITER_LLM_API_KEY", getEnv("AZURE_OPENAI_API_KEY", "")),
			BaseURL:          getEnv("WRITER_LLM_BASE_URL", getEnv("AZURE_OPENAI_ENDPOINT", "")),
			APIVersion:       getEnv("WRITER_LLM_API_VERSION", getEnv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview")),
			Model:            getEnv("WRITER_LLM_MODEL", getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4")),
			MaxTokens:        getEnvInt("WRITER_LLM_MAX_TOKENS", 4096),
			Temperature:      getEnvFloatPtr("WRITER_LLM_TEMPERATURE", nil),
			StructuredOutput: getEnvBool("WRITER_LLM_STRUCTURED_OUTPUT", false),
		},
		GitLab: GitLabConfig{
			Token:     getEnv("GITLAB_TOKEN", ""),
			BaseURL:   getEnv("GITLAB_BASE_URL", ""),
			ProjectID: getEnv("GITLAB_PROJECT_ID", ""),
		},
	}

	if err := cfg.ReaderLLM.validate("READER_LLM"); err != nil {
		return Config{}, err
	}
	if err := cfg.WriterLLM.validate("WRITER_LLM"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c GitLabConfig) Enabled() bool {
	return c.Token != "" && c.ProjectID != ""
}

func (c LLMConfig) validate(prefix string) error {
	if !supportedProviders[c.Provider] {
		return fmt.Errorf("%s_PROVIDER %q is not supported", prefix, c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required", prefix)
	}
	if c.Provider == "azure" && c.BaseURL == "" {
		return fmt.Errorf("%s_BASE_URL (or AZURE_OPENAI_ENDPOINT) is required for azure", prefix)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloatPtr(key string, fallback *float64) *float64 {
	if value, ok := os.LookupEnv(key); ok {
		if value == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return fallback
}

func floatPtr(f float64) *float64 {
	return &f
}
