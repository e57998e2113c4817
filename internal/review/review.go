package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"basegraph.app/specflow/common/logger"
	"basegraph.app/specflow/internal/model"
)

var (
	// ErrNotApproved means input ended before the reviewer approved a draft.
	ErrNotApproved = errors.New("draft not approved")
	// ErrTooManyRounds means the reviewer kept rejecting past the round limit.
	ErrTooManyRounds = errors.New("review round limit reached")
)

const approveCommand = "approve"

// Reviser reruns the pipeline with reviewer feedback.
type Reviser interface {
	Revise(ctx context.Context, state *model.State, feedback string) error
}

// Presenter shows a draft to the reviewer.
type Presenter func(w io.Writer, state *model.State) error

// Loop asks a human to approve a draft or send it back with feedback.
type Loop struct {
	reviser   Reviser
	present   Presenter
	in        *bufio.Scanner
	out       io.Writer
	maxRounds int
}

func NewLoop(reviser Reviser, present Presenter, in io.Reader, out io.Writer, maxRounds int) *Loop {
	if maxRounds <= 0 {
		maxRounds = 1
	}
	return &Loop{
		reviser:   reviser,
		present:   present,
		in:        bufio.NewScanner(in),
		out:       out,
		maxRounds: maxRounds,
	}
}

// Run presents the current draft and reads decisions until the reviewer types
// "approve". Each other non-empty line becomes feedback for a revision. A
// failed revision is returned as-is; state then holds the partial round.
func (l *Loop) Run(ctx context.Context, state *model.State) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(state.RunID),
		Component: "specflow.review",
	})

	for {
		if err := l.present(l.out, state); err != nil {
			return fmt.Errorf("presenting draft: %w", err)
		}

		decision, err := l.prompt()
		if err != nil {
			return err
		}

		if strings.EqualFold(decision, approveCommand) {
			slog.InfoContext(ctx, "draft approved", "round", state.Round, "tickets", len(state.Tickets))
			return nil
		}

		// Round counts drafts, so the first draft plus maxRounds revisions.
		if state.Round > l.maxRounds {
			slog.WarnContext(ctx, "review round limit reached", "round", state.Round, "max_rounds", l.maxRounds)
			return fmt.Errorf("%w (%d)", ErrTooManyRounds, l.maxRounds)
		}

		slog.InfoContext(ctx, "draft rejected, revising",
			"round", state.Round,
			"feedback", logger.Truncate(decision, 200))
		fmt.Fprintln(l.out, "\nSending feedback back to the architect...")

		if err := l.reviser.Revise(ctx, state, decision); err != nil {
			return err
		}
	}
}

func (l *Loop) prompt() (string, error) {
	for {
		fmt.Fprint(l.out, "\nYour decision (approve / [feedback]): ")
		if !l.in.Scan() {
			if err := l.in.Err(); err != nil {
				return "", fmt.Errorf("reading decision: %w", err)
			}
			return "", ErrNotApproved
		}
		if line := strings.TrimSpace(l.in.Text()); line != "" {
			return line, nil
		}
	}
}
