package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"basegraph.app/specflow/common/id"
	"basegraph.app/specflow/common/logger"
	"basegraph.app/specflow/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// Pipeline runs the reader and then the writer against one State. There is
// no branching inside a run; review rounds start a new run on the same State.
type Pipeline struct {
	reader *Reader
	writer *Writer
}

func NewPipeline(reader *Reader, writer *Writer) *Pipeline {
	return &Pipeline{reader: reader, writer: writer}
}

// Run creates a State for specText and executes reader then writer. The
// returned State holds whatever completed, also when err is non-nil.
func (p *Pipeline) Run(ctx context.Context, specText string) (*model.State, error) {
	if strings.TrimSpace(specText) == "" {
		return nil, ErrEmptySpec
	}

	state := model.NewState(id.New(), specText)
	return state, p.execute(ctx, state)
}

// Revise reruns reader then writer on state with reviewer feedback. Output
// from the previous round is discarded first.
func (p *Pipeline) Revise(ctx context.Context, state *model.State, feedback string) error {
	state.Round++
	state.Feedback = feedback
	state.Analysis = ""
	state.Tickets = nil
	state.RawTickets = ""

	return p.execute(ctx, state)
}

func (p *Pipeline) execute(ctx context.Context, state *model.State) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(state.RunID),
		Round:     logger.Ptr(state.Round),
		Component: "specflow.workflow.pipeline",
	})
	sc := logger.StartSpan(ctx, "specflow.pipeline.run")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.Int64("specflow.run_id", state.RunID),
		attribute.Int("specflow.round", state.Round),
	)

	start := time.Now()
	slog.InfoContext(ctx, "pipeline run starting")

	analysis, err := p.reader.Analyze(ctx, state.SpecText, state.Feedback)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "pipeline stopped: analysis failed", "error", err)
		return fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	state.Analysis = analysis

	draft, err := p.writer.Draft(ctx, state.SpecText, state.Analysis)
	if draft != nil {
		state.RawTickets = draft.Raw
	}
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "pipeline stopped: draft failed", "error", err)
		return fmt.Errorf("%w: %w", ErrDraftFailed, err)
	}
	state.Tickets = draft.Tickets
	sc.Span().SetAttributes(attribute.Int("specflow.tickets", len(state.Tickets)))

	slog.InfoContext(ctx, "pipeline run completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"tickets", len(state.Tickets))

	return nil
}
