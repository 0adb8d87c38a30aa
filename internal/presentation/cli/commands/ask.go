package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/application/pipeline"
	"github.com/jbctechsolutions/answerstream/internal/application/ports"
	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/config"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

// DefaultAskModel is used when --model is not given.
const DefaultAskModel = "CLAUDE_3_HAIKU"

type askOptions struct {
	model       string
	context     string
	contextFile string
	raw         bool
	noSpinner   bool
}

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Stream an answer to a question",
		Long: `Ask a model a question and stream the cleaned answer.

In text mode the partial answer is shown on a status line while the model
generates, and the final answer is printed when the stream ends. With --raw
or -o json every envelope is written to stdout as one JSON line. When the
delivery publisher is configured as "apigateway" the envelopes are posted to
the configured connection instead.

The question is read from stdin when no argument is given.`,
		Example: `  # Ask a Bedrock model
  answerstream ask "What is the capital of France?"

  # Ground the answer in retrieved text and score it
  answerstream ask -m GPT_4O --context-file notes.txt "Who signed the treaty?"

  # Envelopes as NDJSON
  answerstream ask --raw "Summarize the release notes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", DefaultAskModel, "model name (see 'answerstream models')")
	cmd.Flags().StringVar(&opts.context, "context", "", "retrieved context the answer should be grounded in")
	cmd.Flags().StringVar(&opts.contextFile, "context-file", "", "read the context from a file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write envelopes as JSON lines")
	cmd.Flags().BoolVar(&opts.noSpinner, "no-spinner", false, "do not show streaming progress")

	cmd.MarkFlagsMutuallyExclusive("context", "context-file")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts askOptions) error {
	container, err := requireContainer()
	if err != nil {
		return err
	}
	formatter := GetFormatter()
	ctx := appContext()

	question, err := inputText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctxText, err := askContext(opts)
	if err != nil {
		return err
	}

	var (
		publisher ports.PublisherPort
		renderer  *output.Renderer
		status    *output.StatusLine
	)
	switch {
	case container.Config().Delivery.Publisher == config.PublisherAPIGateway,
		opts.raw, formatter.Format() == output.FormatJSON:
		publisher, err = container.NewPublisher(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}
	default:
		rendererOpts := []output.RendererOption{output.WithLabel(opts.model)}
		if !opts.noSpinner && output.IsTerminal(os.Stderr) {
			status = output.NewStatusLine(os.Stderr, output.IsColorSupported())
			rendererOpts = append(rendererOpts, output.WithStatusLine(status))
		}
		renderer = output.NewRenderer(formatter, rendererOpts...)
		publisher = renderer
	}

	if status != nil {
		status.Start("Waiting for " + opts.model)
		defer status.Clear()
	}

	res, err := container.Pipeline().Answer(ctx, pipeline.Request{
		Question:  question,
		Model:     opts.model,
		Context:   ctxText,
		Publisher: publisher,
	})

	if renderer != nil && globalFlags.Verbose && res != nil {
		printAskStats(formatter, res)
	}

	if err != nil && renderer != nil && renderer.Failure() != "" {
		return errReported
	}
	return err
}

// askContext returns the context text with page markers removed.
func askContext(opts askOptions) (string, error) {
	text := opts.context
	if opts.contextFile != "" {
		data, err := os.ReadFile(opts.contextFile)
		if err != nil {
			return "", fmt.Errorf("read context file: %w", err)
		}
		text = string(data)
	}
	return strings.TrimSpace(postprocess.RemovePageNumbers(text)), nil
}

func printAskStats(formatter *output.Formatter, res *pipeline.Result) {
	formatter.Println("%s", formatter.Dim(fmt.Sprintf("%s · %s · %d tokens · %d envelopes · %s",
		res.RequestID, res.Model, res.OutputTokens, res.Stats.Envelopes, formatMetricsDuration(res.Duration))))
}
