package workflow_test

import (
	"context"
	"errors"
	"strings"

	"basegraph.app/specflow/common/llm"
	"basegraph.app/specflow/internal/model"
	"basegraph.app/specflow/internal/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx          context.Context
		readerClient *mockLLMClient
		writerClient *mockLLMClient
		pipeline     *workflow.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		readerClient = &mockLLMClient{provider: "gemini", completeFn: respondWith(sampleAnalysis)}
		writerClient = &mockLLMClient{provider: "azure", completeFn: respondWith(sampleTicketsJSON)}
		pipeline = workflow.NewPipeline(
			workflow.NewReader(readerClient),
			workflow.NewWriter(writerClient, false),
		)
	})

	Describe("Run", func() {
		It("returns exactly the writer's parsed tickets", func() {
			expected, err := workflow.ParseTickets(sampleTicketsJSON)
			Expect(err).NotTo(HaveOccurred())

			state, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).NotTo(HaveOccurred())
			Expect(state.Tickets).To(Equal(expected))
			Expect(state.RawTickets).To(Equal(sampleTicketsJSON))
			Expect(state.SpecText).To(Equal(sampleSpec))
			Expect(state.Round).To(Equal(1))
			Expect(state.RunID).NotTo(BeZero())
		})

		It("passes the reader output to the writer unmodified", func() {
			state, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).NotTo(HaveOccurred())
			Expect(state.Analysis).To(Equal(sampleAnalysis))
			Expect(writerClient.requests).To(HaveLen(1))
			Expect(writerClient.requests[0].UserPrompt).To(ContainSubstring(sampleAnalysis))
			Expect(writerClient.requests[0].UserPrompt).To(ContainSubstring(sampleSpec))
		})

		It("sends the spec text to the reader", func() {
			_, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).NotTo(HaveOccurred())
			Expect(readerClient.requests).To(HaveLen(1))
			Expect(readerClient.requests[0].UserPrompt).To(ContainSubstring(sampleSpec))
			Expect(readerClient.requests[0].UserPrompt).NotTo(ContainSubstring("IMPORTANT"))
		})

		It("never calls the writer when the reader fails", func() {
			cause := errors.New("quota exceeded")
			readerClient.completeFn = failWith(cause)

			state, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).To(MatchError(workflow.ErrAnalysisFailed))
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(errors.Is(err, workflow.ErrDraftFailed)).To(BeFalse())
			Expect(writerClient.callCount()).To(Equal(0))
			Expect(state.Analysis).To(BeEmpty())
			Expect(state.Tickets).To(BeNil())
		})

		It("treats an empty analysis as a reader failure", func() {
			readerClient.completeFn = respondWith("   ")

			_, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).To(MatchError(workflow.ErrAnalysisFailed))
			Expect(writerClient.callCount()).To(Equal(0))
		})

		It("reports writer failures as draft failures and keeps the analysis", func() {
			cause := errors.New("deployment not found")
			writerClient.completeFn = failWith(cause)

			state, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).To(MatchError(workflow.ErrDraftFailed))
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(state.Analysis).To(Equal(sampleAnalysis))
			Expect(state.Tickets).To(BeNil())
			Expect(state.RawTickets).To(BeEmpty())
		})

		It("keeps the raw writer output when it is not a ticket list", func() {
			writerClient.completeFn = respondWith("Sorry, I cannot help with that.")

			state, err := pipeline.Run(ctx, sampleSpec)

			Expect(err).To(MatchError(workflow.ErrDraftFailed))
			Expect(errors.Is(err, workflow.ErrMalformedTickets)).To(BeTrue())
			Expect(state.RawTickets).To(Equal("Sorry, I cannot help with that."))
			Expect(state.Tickets).To(BeNil())
		})

		It("rejects blank input without calling either model", func() {
			state, err := pipeline.Run(ctx, " \n ")

			Expect(err).To(MatchError(workflow.ErrEmptySpec))
			Expect(state).To(BeNil())
			Expect(readerClient.callCount()).To(Equal(0))
			Expect(writerClient.callCount()).To(Equal(0))
		})
	})

	Describe("Revise", func() {
		It("reruns both nodes with the feedback on the same state", func() {
			state, err := pipeline.Run(ctx, sampleSpec)
			Expect(err).NotTo(HaveOccurred())
			runID := state.RunID

			readerClient.completeFn = respondWith("Revised gaps: biometrics required.")
			err = pipeline.Revise(ctx, state, "Add Face ID support")

			Expect(err).NotTo(HaveOccurred())
			Expect(state.RunID).To(Equal(runID))
			Expect(state.Round).To(Equal(2))
			Expect(state.Feedback).To(Equal("Add Face ID support"))
			Expect(state.Analysis).To(Equal("Revised gaps: biometrics required."))
			Expect(readerClient.requests).To(HaveLen(2))
			Expect(readerClient.requests[1].UserPrompt).To(ContainSubstring("Add Face ID support"))
			Expect(writerClient.requests[1].UserPrompt).To(ContainSubstring("Revised gaps: biometrics required."))
		})

		It("clears the previous draft when the revision fails", func() {
			state, err := pipeline.Run(ctx, sampleSpec)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Tickets).NotTo(BeEmpty())

			readerClient.completeFn = failWith(errors.New("timeout"))
			err = pipeline.Revise(ctx, state, "more detail")

			Expect(err).To(MatchError(workflow.ErrAnalysisFailed))
			Expect(state.Tickets).To(BeNil())
			Expect(state.Analysis).To(BeEmpty())
			Expect(writerClient.callCount()).To(Equal(1))
		})
	})
})

var _ = Describe("Writer", func() {
	It("attaches the ticket schema only in structured mode", func() {
		client := &mockLLMClient{completeFn: respondWith(sampleTicketsJSON)}

		_, err := workflow.NewWriter(client, true).Draft(context.Background(), sampleSpec, sampleAnalysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.requests[0].SchemaName).To(Equal("ticket_list"))
		Expect(client.requests[0].Schema).NotTo(BeNil())

		_, err = workflow.NewWriter(client, false).Draft(context.Background(), sampleSpec, sampleAnalysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.requests[1].Schema).To(BeNil())
	})

	It("normalizes every drafted ticket", func() {
		client := &mockLLMClient{completeFn: respondWith(`[{"Work Item Type": "epic", "Title": "` + strings.Repeat("x", 150) + `"}]`)}

		draft, err := workflow.NewWriter(client, false).Draft(context.Background(), sampleSpec, sampleAnalysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(draft.Tickets).To(HaveLen(1))
		Expect(draft.Tickets[0].Type).To(Equal(model.WorkItemTypeUserStory))
		Expect(draft.Tickets[0].Priority).To(Equal(model.DefaultPriority))
		Expect(draft.Tickets[0].Title).To(HaveLen(model.MaxTitleLength))
	})
})

var _ = Describe("Reader", func() {
	It("returns the model content verbatim", func() {
		content := "  Gap: no logout.\n\n"
		client := &mockLLMClient{completeFn: func(_ context.Context, req llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: content, FinishReason: "length"}, nil
		}}

		analysis, err := workflow.NewReader(client).Analyze(context.Background(), sampleSpec, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(analysis).To(Equal(content))
		Expect(client.requests[0].SystemPrompt).To(ContainSubstring("solutions architect"))
	})
})
