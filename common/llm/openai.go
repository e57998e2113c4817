package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// openaiClient speaks the Chat Completions API. Gemini and Azure OpenAI both
// expose it, so one implementation serves three providers.
type openaiClient struct {
	client   openai.Client
	provider string
	model    string
	defaults
}

func newOpenAIClient(cfg Config) (Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	return newChatClient(ProviderOpenAI, model, cfg, opts), nil
}

func newGeminiClient(cfg Config) (Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}

	return newChatClient(ProviderGemini, model, cfg, opts), nil
}

func newAzureClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("azure deployment name is required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}

	// The azure options route requests to /openai/deployments/{model}, so the
	// model field carries the deployment name.
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.BaseURL, apiVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}

	return newChatClient(ProviderAzure, cfg.Model, cfg, opts), nil
}

func newChatClient(provider, model string, cfg Config, opts []option.RequestOption) *openaiClient {
	return &openaiClient{
		client:   openai.NewClient(opts...),
		provider: provider,
		model:    model,
		defaults: defaults{maxTokens: cfg.MaxTokens, temperature: cfg.Temperature},
	}
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: openai.Int(int64(c.maxTokensFor(req))),
	}

	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.SchemaName,
					Description: openai.String("Structured response schema"),
					Schema:      req.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	if t := c.temperatureFor(req); t != nil {
		params.Temperature = openai.Float(*t)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s chat: no choices in response", c.provider)
	}
	choice := resp.Choices[0]

	slog.DebugContext(ctx, "llm chat completed",
		"provider", c.provider,
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", choice.FinishReason)

	return &Response{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *openaiClient) Model() string {
	return c.model
}

func (c *openaiClient) Provider() string {
	return c.provider
}
