package review_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"basegraph.app/specflow/internal/model"
	"basegraph.app/specflow/internal/review"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockReviser implements review.Reviser for testing.
type mockReviser struct {
	reviseFn  func(ctx context.Context, state *model.State, feedback string) error
	feedbacks []string
}

func (m *mockReviser) Revise(ctx context.Context, state *model.State, feedback string) error {
	m.feedbacks = append(m.feedbacks, feedback)
	state.Round++
	state.Feedback = feedback
	if m.reviseFn != nil {
		return m.reviseFn(ctx, state, feedback)
	}
	return nil
}

func countingPresenter(count *int) review.Presenter {
	return func(w io.Writer, state *model.State) error {
		*count++
		_, err := fmt.Fprintf(w, "[round %d]\n", state.Round)
		return err
	}
}

var _ = Describe("Loop", func() {
	var (
		ctx       context.Context
		reviser   *mockReviser
		state     *model.State
		out       *bytes.Buffer
		presented int
	)

	BeforeEach(func() {
		ctx = context.Background()
		reviser = &mockReviser{}
		state = model.NewState(1, "Build a login page for the mobile app.")
		out = &bytes.Buffer{}
		presented = 0
	})

	run := func(input string, maxRounds int) error {
		loop := review.NewLoop(reviser, countingPresenter(&presented), strings.NewReader(input), out, maxRounds)
		return loop.Run(ctx, state)
	}

	It("stops on approve without revising", func() {
		Expect(run("approve\n", 3)).To(Succeed())
		Expect(reviser.feedbacks).To(BeEmpty())
		Expect(presented).To(Equal(1))
	})

	It("accepts approve in any case", func() {
		Expect(run("  APPROVE  \n", 3)).To(Succeed())
	})

	It("revises with each piece of feedback until approved", func() {
		Expect(run("add biometrics\n\nsplit the backend work\napprove\n", 3)).To(Succeed())
		Expect(reviser.feedbacks).To(Equal([]string{"add biometrics", "split the backend work"}))
		Expect(state.Round).To(Equal(3))
		Expect(presented).To(Equal(3))
		Expect(out.String()).To(ContainSubstring("[round 3]"))
	})

	It("reports end of input as not approved", func() {
		err := run("more detail\n", 3)
		Expect(err).To(MatchError(review.ErrNotApproved))
		Expect(reviser.feedbacks).To(HaveLen(1))
	})

	It("stops after the round limit", func() {
		err := run("a\nb\nc\n", 2)
		Expect(err).To(MatchError(review.ErrTooManyRounds))
		Expect(reviser.feedbacks).To(Equal([]string{"a", "b"}))
	})

	It("returns revision failures unchanged", func() {
		cause := errors.New("analysis failed")
		reviser.reviseFn = func(context.Context, *model.State, string) error { return cause }

		err := run("try again\napprove\n", 3)
		Expect(err).To(MatchError(cause))
		Expect(presented).To(Equal(1))
	})
})
