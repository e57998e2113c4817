package workflow

import (
	"context"
	"log/slog"
	"time"

	"basegraph.app/specflow/common/llm"
	"basegraph.app/specflow/common/logger"
	"basegraph.app/specflow/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// Draft is the writer's result. Raw is always set once the model answered,
// even when Tickets could not be parsed from it.
type Draft struct {
	Tickets []model.Ticket
	Raw     string
}

// Writer turns a requirements text and its gap analysis into tickets.
type Writer struct {
	llm        llm.Client
	structured bool
}

// NewWriter creates a Writer. With structured set, the request carries the
// TicketList JSON schema; leave it off for endpoints that reject
// response_format (older Azure API versions).
func NewWriter(client llm.Client, structured bool) *Writer {
	return &Writer{llm: client, structured: structured}
}

func (w *Writer) Draft(ctx context.Context, specText, analysis string) (*Draft, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Node:      logger.Ptr("writer"),
		Provider:  logger.Ptr(w.llm.Provider()),
		Component: "specflow.workflow.writer",
	})
	sc := logger.StartSpan(ctx, "specflow.writer.draft")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.String("llm.provider", w.llm.Provider()),
		attribute.String("llm.model", w.llm.Model()),
		attribute.Bool("specflow.structured_output", w.structured),
	)

	start := time.Now()
	slog.InfoContext(ctx, "writer drafting tickets",
		"model", w.llm.Model(),
		"analysis_length", len(analysis),
		"structured", w.structured)

	req := llm.Request{
		SystemPrompt: writerSystemPrompt,
		UserPrompt:   writerUserPrompt(specText, analysis),
	}
	if w.structured {
		req.SchemaName = "ticket_list"
		req.Schema = llm.GenerateSchema[model.TicketList]()
	}

	resp, err := w.llm.Complete(ctx, req)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	recordUsage(sc, resp)

	draft := &Draft{Raw: resp.Content}

	tickets, err := ParseTickets(resp.Content)
	if err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "writer output is not a ticket list",
			"finish_reason", resp.FinishReason,
			"raw", logger.Truncate(resp.Content, 500))
		return draft, err
	}
	draft.Tickets = tickets
	sc.Span().SetAttributes(attribute.Int("specflow.tickets", len(tickets)))

	slog.InfoContext(ctx, "writer draft completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"tickets", len(tickets),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return draft, nil
}
