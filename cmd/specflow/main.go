package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"basegraph.app/specflow/common/id"
	"basegraph.app/specflow/common/llm"
	"basegraph.app/specflow/common/logger"
	"basegraph.app/specflow/common/otel"
	"basegraph.app/specflow/core/config"
	"basegraph.app/specflow/internal/export"
	"basegraph.app/specflow/internal/model"
	"basegraph.app/specflow/internal/render"
	"basegraph.app/specflow/internal/review"
	"basegraph.app/specflow/internal/tracker"
	"basegraph.app/specflow/internal/workflow"
	"github.com/spf13/cobra"
)

var version = "dev"

const sampleSpec = "Build a login page for the mobile app."

type options struct {
	specPath string
	review   bool
	outDir   string
	format   string
	publish  bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "specflow",
		Short: "Turn a requirements document into Azure DevOps work items",
		Long: `specflow sends a requirements document to a reader model for a gap analysis,
then sends the document and the analysis to a writer model that drafts work items.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.specPath, "spec", "s", "", `requirements file; "-" reads stdin (default: built-in sample)`)
	flags.BoolVarP(&opts.review, "review", "r", false, "review the draft interactively before output")
	flags.StringVarP(&opts.outDir, "out", "o", "", "directory for ado_work_items.json/.csv (overrides OUTPUT_DIR)")
	flags.StringVarP(&opts.format, "format", "f", "text", "stdout format: text or json")
	flags.BoolVar(&opts.publish, "publish", false, "create GitLab issues for the final tickets")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o options) validate() error {
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", o.format)
	}
	if o.specPath == "-" && o.review {
		return errors.New("--spec - reads stdin, which --review needs for decisions; pass the spec as a file")
	}
	return nil
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Setup(cfg)

	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "telemetry shutdown failed", "error", err)
		}
	}()

	if err := id.Init(id.DefaultNode); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}

	specText, err := readSpec(opts.specPath, stdin)
	if err != nil {
		return err
	}

	readerClient, err := llm.New(llmConfig(cfg.ReaderLLM))
	if err != nil {
		return fmt.Errorf("creating reader client: %w", err)
	}
	writerClient, err := llm.New(llmConfig(cfg.WriterLLM))
	if err != nil {
		return fmt.Errorf("creating writer client: %w", err)
	}

	slog.InfoContext(ctx, "specflow starting",
		"env", cfg.Env,
		"reader", readerClient.Provider()+"/"+readerClient.Model(),
		"writer", writerClient.Provider()+"/"+writerClient.Model())

	pipeline := workflow.NewPipeline(
		workflow.NewReader(readerClient),
		workflow.NewWriter(writerClient, cfg.WriterLLM.StructuredOutput),
	)

	outDir := cfg.OutputDir
	if opts.outDir != "" {
		outDir = opts.outDir
	}

	fmt.Fprintf(stderr, "INPUT: %s\n", logger.Truncate(strings.TrimSpace(specText), 200))

	state, err := pipeline.Run(ctx, specText)
	if err != nil {
		saveRawFallback(ctx, outDir, state, stderr)
		return err
	}

	if opts.review {
		loop := review.NewLoop(pipeline, presentDraft, stdin, stderr, cfg.ReviewMaxRounds)
		if err := loop.Run(ctx, state); err != nil {
			if errors.Is(err, workflow.ErrDraftFailed) {
				saveRawFallback(ctx, outDir, state, stderr)
			}
			return err
		}
	}

	if err := printTickets(stdout, opts.format, state.Tickets); err != nil {
		return fmt.Errorf("printing tickets: %w", err)
	}

	if outDir != "" {
		result, err := export.New(outDir).Save(state)
		if err != nil {
			return fmt.Errorf("exporting tickets: %w", err)
		}
		fmt.Fprintf(stderr, "Saved %d work items to %s and %s\n", len(state.Tickets), result.JSONPath, result.CSVPath)
		fmt.Fprintln(stderr, "Import: Azure DevOps > Boards > Work Items > Import Work Items, then upload the CSV.")
	}

	if opts.publish {
		if err := publish(ctx, cfg.GitLab, state.Tickets, stderr); err != nil {
			return err
		}
	}

	return nil
}

// readSpec loads the requirements text. An empty path means the built-in
// sample, "-" means stdin.
func readSpec(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return sampleSpec, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading spec from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading spec: %w", err)
		}
		return string(data), nil
	}
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		APIVersion:  c.APIVersion,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

func presentDraft(w io.Writer, state *model.State) error {
	fmt.Fprintf(w, "\n--- REVIEW (round %d) ---\n", state.Round)
	return render.Text(w, state.Tickets)
}

func printTickets(w io.Writer, format string, tickets []model.Ticket) error {
	if format == "json" {
		return render.JSON(w, tickets)
	}
	return render.Text(w, tickets)
}

// saveRawFallback keeps the writer's unparsed answer on disk when an export
// directory is configured.
func saveRawFallback(ctx context.Context, outDir string, state *model.State, stderr io.Writer) {
	if outDir == "" || state == nil || state.RawTickets == "" {
		return
	}
	result, err := export.New(outDir).Save(state)
	if result != nil && result.RawPath != "" {
		fmt.Fprintf(stderr, "Saved raw writer output to %s\n", result.RawPath)
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "saving raw writer output failed", "error", err)
	}
}

func publish(ctx context.Context, cfg config.GitLabConfig, tickets []model.Ticket, stderr io.Writer) error {
	if !cfg.Enabled() {
		return fmt.Errorf("publishing requires GITLAB_TOKEN and GITLAB_PROJECT_ID")
	}

	publisher, err := tracker.NewGitLabPublisher(tracker.GitLabConfig{
		Token:     cfg.Token,
		BaseURL:   cfg.BaseURL,
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		return err
	}

	issues, err := publisher.Publish(ctx, tickets)
	for _, issue := range issues {
		fmt.Fprintf(stderr, "Created #%d %s\n", issue.IID, issue.WebURL)
	}
	if err != nil {
		return fmt.Errorf("publishing tickets: %w", err)
	}
	return nil
}
