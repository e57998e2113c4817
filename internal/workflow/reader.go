package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"basegraph.app/specflow/common/llm"
	"basegraph.app/specflow/common/logger"
	"go.opentelemetry.io/otel/attribute"
)

// Reader asks a large-context model for the gaps in a requirements text.
type Reader struct {
	llm llm.Client
}

func NewReader(client llm.Client) *Reader {
	return &Reader{llm: client}
}

// Analyze returns the model's gap analysis exactly as the model wrote it.
// feedback is reviewer feedback on a previous draft and may be empty.
func (r *Reader) Analyze(ctx context.Context, specText, feedback string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Node:      logger.Ptr("reader"),
		Provider:  logger.Ptr(r.llm.Provider()),
		Component: "specflow.workflow.reader",
	})
	sc := logger.StartSpan(ctx, "specflow.reader.analyze")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.String("llm.provider", r.llm.Provider()),
		attribute.String("llm.model", r.llm.Model()),
	)

	start := time.Now()
	slog.InfoContext(ctx, "reader analyzing requirements",
		"model", r.llm.Model(),
		"spec_length", len(specText),
		"has_feedback", feedback != "")

	resp, err := r.llm.Complete(ctx, llm.Request{
		SystemPrompt: readerSystemPrompt,
		UserPrompt:   readerUserPrompt(specText, feedback),
	})
	if err != nil {
		sc.RecordError(err)
		return "", err
	}
	recordUsage(sc, resp)

	if strings.TrimSpace(resp.Content) == "" {
		err := fmt.Errorf("reader model returned an empty analysis (finish_reason=%s)", resp.FinishReason)
		sc.RecordError(err)
		return "", err
	}

	if resp.FinishReason == "length" {
		slog.WarnContext(ctx, "reader analysis hit the output token limit")
	}

	slog.InfoContext(ctx, "reader analysis completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"analysis_length", len(resp.Content),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)
	slog.DebugContext(ctx, "reader analysis", "analysis", logger.Truncate(resp.Content, 500))

	return resp.Content, nil
}

func recordUsage(sc *logger.SpanContext, resp *llm.Response) {
	sc.Span().SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.CompletionTokens),
		attribute.String("llm.finish_reason", resp.FinishReason),
	)
}
