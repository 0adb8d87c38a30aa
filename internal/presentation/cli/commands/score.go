package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/application/relevance"
	domainRelevance "github.com/jbctechsolutions/answerstream/internal/domain/relevance"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

type scoreOptions struct {
	method      string
	context     string
	contextFile string
	question    string
	answer      string
	cutoff      int
}

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	opts := scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answer for relevance against its context",
		Long: `Score an answer against the retrieved context it should be grounded in.

Methods:
  WORD_RELEVANCE      share of question and answer content words found in the context
  TOKEN_INTERSECTION  share of answer tokens (stopwords removed) found in the context
  NONE                always 1.0`,
		Example: `  answerstream score --method WORD_RELEVANCE \
    --context "Paris is the capital and largest city of France." \
    --question "What is the capital city of France?" \
    --answer "The capital city of France is Paris."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runScore(formatter, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.method, "method", "m", domainRelevance.WordRelevanceName, "relevance method: WORD_RELEVANCE, TOKEN_INTERSECTION, NONE")
	cmd.Flags().StringVar(&opts.context, "context", "", "retrieved context text")
	cmd.Flags().StringVar(&opts.contextFile, "context-file", "", "read the context from a file")
	cmd.Flags().StringVarP(&opts.question, "question", "q", "", "question that was asked")
	cmd.Flags().StringVarP(&opts.answer, "answer", "a", "", "answer to score")
	cmd.Flags().IntVar(&opts.cutoff, "cutoff", domainRelevance.DefaultLengthCutoff, "minimum term count below which a text is not scored")

	_ = cmd.MarkFlagRequired("answer")
	cmd.MarkFlagsMutuallyExclusive("context", "context-file")

	return offline(cmd)
}

func runScore(formatter *output.Formatter, opts scoreOptions) error {
	method, err := domainRelevance.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	if opts.cutoff < 0 {
		return fmt.Errorf("cutoff must be non-negative, got %d", opts.cutoff)
	}

	ctxText := opts.context
	if opts.contextFile != "" {
		data, err := os.ReadFile(opts.contextFile)
		if err != nil {
			return fmt.Errorf("read context file: %w", err)
		}
		ctxText = string(data)
	}

	scorer := relevance.NewScorer(
		relevance.WithTokenizer(tokenizer.NewTokenizer13a()),
		relevance.WithLengthCutoff(opts.cutoff),
	)
	res := scorer.Evaluate(method, ctxText, opts.question, opts.answer)

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(res)
	}

	formatter.Header("Relevance")
	formatter.Item("Method", res.MethodName)
	switch method {
	case domainRelevance.MethodWordRelevance:
		formatter.Item("Question coverage", fmt.Sprintf("%.2f", res.QuestionCoverage))
		formatter.Item("Answer coverage", fmt.Sprintf("%.2f", res.AnswerCoverage))
	case domainRelevance.MethodTokenIntersection:
		formatter.Item("Intersection", fmt.Sprintf("%.2f", res.IntersectionScore))
	}
	formatter.Item("Score", formatter.Colorize(fmt.Sprintf("%.2f", res.Score), scoreColor(res.Score)))
	return nil
}

func scoreColor(score float64) output.Color {
	switch {
	case score >= 0.75:
		return output.ColorGreen
	case score >= 0.5:
		return output.ColorYellow
	default:
		return output.ColorRed
	}
}
