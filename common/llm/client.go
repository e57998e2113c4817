package llm

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Client sends a single prompt to a model and returns its text.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
	Provider() string
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string   // Required when Schema is set
	Schema       any      // Optional JSON schema for structured output; ignored by providers without support
	MaxTokens    int      // 0 = client default
	Temperature  *float64 // nil = client default, explicit 0 = deterministic
}

type Response struct {
	Content          string
	FinishReason     string // "stop", "length", or the provider's raw reason
	PromptTokens     int
	CompletionTokens int
}

// GenerateSchema reflects a strict JSON schema for T.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}
