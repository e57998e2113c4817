package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment so every log line inside a run carries
// the run and node it belongs to without threading them through call sites.
type LogFields struct {
	RunID     *int64  // Snowflake ID of the current pipeline run
	Node      *string // Pipeline node ("reader", "writer")
	Round     *int    // Review round, 1 for the first draft
	Provider  *string // LLM provider serving the node
	Component string  // Component name (OTel semantic convention style, e.g., "specflow.workflow.reader")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.Node != nil {
		result.Node = new.Node
	}
	if new.Round != nil {
		result.Round = new.Round
	}
	if new.Provider != nil {
		result.Provider = new.Provider
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to at most maxLen bytes on a rune boundary, appending "..."
// if truncated. Useful for logging potentially long strings like prompts or
// model output.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
