package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/enhance"
	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/formatter"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlgen"
	"github.com/askdb/askdb/internal/storage"
	"github.com/askdb/askdb/internal/summarize"
	"github.com/askdb/askdb/internal/tablefind"
)

// AskCommand answers a natural-language question against the database
func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question by generating and running a SQL query",
		ArgsUsage: "<question>",
		Description: `Generate a SQL query for the question, validate it against the table
schema, repair it if needed, execute it, and summarize the results.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table",
				Aliases: []string{"t"},
				Usage:   "query this table instead of auto-detecting one",
			},
			&cli.BoolFlag{
				Name:  "no-enhance",
				Usage: "skip the question enhancement step",
			},
			&cli.BoolFlag{
				Name:  "no-summary",
				Usage: "skip the result summary step",
			},
			&cli.BoolFlag{
				Name:  "save-results",
				Usage: "write the result set to a JSON file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if question == "" {
				return errors.New(errors.ErrTypeConfig, "a question is required: askdb ask \"your question\"")
			}

			return runAsk(ctx, nil, question, askOptions{
				Table:       cmd.String("table"),
				NoEnhance:   cmd.Bool("no-enhance"),
				NoSummary:   cmd.Bool("no-summary"),
				SaveResults: cmd.Bool("save-results"),
			})
		},
	}
}

// askOptions carries the per-invocation flags
type askOptions struct {
	Table       string
	NoEnhance   bool
	NoSummary   bool
	SaveResults bool
}

// askDeps bundles the collaborators for one ask invocation so tests can
// substitute every external boundary.
type askDeps struct {
	cfg        *config.Config
	provider   schema.Provider
	finder     *tablefind.Finder
	enhancer   *enhance.Enhancer
	pipeline   *sqlgen.Pipeline
	executor   *executor.Executor
	summarizer *summarize.Summarizer
	formatter  *formatter.Formatter
	out        io.Writer
	showSpin   bool
	cleanup    func()
}

func runAsk(ctx context.Context, deps *askDeps, question string, opts askOptions) error {
	if deps == nil {
		var err error

		deps, err = buildAskDeps(ctx)
		if err != nil {
			return err
		}
	}

	if deps.cleanup != nil {
		defer deps.cleanup()
	}

	logger := logging.GetLogger()

	table := opts.Table
	if table == "" {
		table = deps.finder.Find(ctx, question, deps.cfg.Query.DefaultTable)
	}

	desc, err := deps.provider.GetSchema(ctx, table)
	if err != nil {
		return err
	}

	if !opts.NoEnhance && deps.cfg.Query.Enhance {
		enhanced := deps.enhancer.Enhance(ctx, question, desc, table)
		if enhanced != question {
			logger.WithField("table", table).Debugf("enhanced question: %s", enhanced)
			question = enhanced
		}
	}

	stopSpin := startSpinner(deps.showSpin, " Generating query...")

	outcome, err := deps.pipeline.Generate(ctx, question, desc, table)

	stopSpin()

	if err != nil {
		return err
	}

	result, err := deps.executor.Execute(ctx, outcome.Query)
	if err != nil {
		return err
	}

	fmt.Fprintln(deps.out, deps.formatter.FormatQuery(outcome.Query, outcome.UsedFallback))
	fmt.Fprintln(deps.out)
	fmt.Fprintln(deps.out, deps.formatter.FormatResult(result))

	if opts.SaveResults {
		path, err := executor.DumpJSON(result, deps.cfg.Paths.Output)
		if err != nil {
			return err
		}

		fmt.Fprintf(deps.out, "\nResults saved to %s\n", path)
	}

	if !opts.NoSummary {
		stopSpin := startSpinner(deps.showSpin, " Summarizing results...")

		summary := deps.summarizer.Summarize(ctx, question, result)

		stopSpin()

		fmt.Fprintln(deps.out)
		fmt.Fprintln(deps.out, deps.formatter.FormatSummary(summary))

		if err := summarize.Persist(deps.cfg.Paths.Output, question, summary); err != nil {
			logger.WithError(err).Debug("failed to persist summary")
		}
	}

	return nil
}

// buildAskDeps constructs the production dependency set from configuration
func buildAskDeps(ctx context.Context) (*askDeps, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Database.SeedSampleData {
		if err := store.Seed(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	completions := llm.WithTimeout(client, cfg.LLMTimeoutDuration())

	dbProvider := schema.NewDBProvider(store.DB())
	provider := schema.NewCachingProvider(dbProvider)

	return &askDeps{
		cfg:      cfg,
		provider: provider,
		finder:   tablefind.New(provider, dbProvider),
		enhancer: enhance.New(completions, cfg.LLM.MaxTokens),
		pipeline: sqlgen.NewPipeline(completions, sqlgen.Options{
			MaxRepairs: cfg.Query.MaxRepairs,
			MaxTokens:  cfg.LLM.MaxTokens,
		}),
		executor:   executor.New(store.DB(), cfg.QueryTimeoutDuration()),
		summarizer: summarize.New(completions, cfg.LLM.MaxTokens),
		formatter:  formatter.NewFormatter(),
		out:        os.Stdout,
		showSpin:   true,
		cleanup:    func() { _ = store.Close() },
	}, nil
}

// startSpinner shows a progress spinner and returns its stop function
func startSpinner(enabled bool, suffix string) func() {
	if !enabled {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()

	return s.Stop
}
