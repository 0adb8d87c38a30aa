package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/application/postprocess"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

// CleanResult is the JSON output of the clean subcommands.
type CleanResult struct {
	Input     string   `json:"input"`
	Output    string   `json:"output"`
	Sentences []string `json:"sentences,omitempty"`
}

// NewCleanCmd creates the clean command and its subcommands.
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply answer, question or snippet cleanup to text",
		Long: `Run the text cleanup used while streaming on arbitrary input.

The text is taken from the arguments, or read from stdin when no argument
is given.`,
	}

	cmd.AddCommand(newCleanAnswerCmd())
	cmd.AddCommand(newCleanQuestionCmd())
	cmd.AddCommand(newCleanSnippetCmd())

	return offline(cmd)
}

func newCleanAnswerCmd() *cobra.Command {
	var keepBullet, removeKeywords bool

	cmd := &cobra.Command{
		Use:   "answer [text...]",
		Short: "Clean a model answer",
		Example: `  answerstream clean answer "- paris is the capital. paris is the capital."
  echo "Human: hi" | answerstream clean answer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := postprocess.DefaultOptions()
			opts.RemoveFirstBulletpoint = !keepBullet
			opts.RemoveLastKeywords = removeKeywords

			return runClean(cmd, args, func(text string) CleanResult {
				return CleanResult{Input: text, Output: postprocess.CleanAnswer(text, postprocess.WithOptions(opts))}
			})
		},
	}

	cmd.Flags().BoolVar(&keepBullet, "keep-bullet", false, "keep a leading bullet point")
	cmd.Flags().BoolVar(&removeKeywords, "remove-keywords", false, "drop a trailing \"Keywords:\" section")

	return cmd
}

func newCleanQuestionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "question [text...]",
		Short: "Clean a user question",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, args, func(text string) CleanResult {
				return CleanResult{Input: text, Output: postprocess.CleanQuestion(text)}
			})
		},
	}
}

func newCleanSnippetCmd() *cobra.Command {
	var (
		maxLength      int
		dotsOnStart    bool
		noDotsOnEnd    bool
		keepPages      bool
		allLeading     bool
		keepSpacing    bool
		splitSentences bool
	)

	cmd := &cobra.Command{
		Use:   "snippet [text...]",
		Short: "Tidy a retrieved document snippet for display",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := postprocess.SnippetOptions{
				AddDotsOnStart:      dotsOnStart,
				AddDotsOnEnd:        !noDotsOnEnd,
				CollapseWhitespace:  !keepSpacing,
				OnlyExcludedLeading: !allLeading,
				MaxLength:           maxLength,
			}

			return runClean(cmd, args, func(text string) CleanResult {
				cleaned := text
				if !keepPages {
					cleaned = postprocess.RemovePageNumbers(cleaned)
				}
				res := CleanResult{Input: text, Output: postprocess.CleanTextSnippet(cleaned, opts)}
				if splitSentences {
					res.Sentences = postprocess.SplitIntoSentences(res.Output)
				}
				return res
			})
		},
	}

	cmd.Flags().IntVar(&maxLength, "max-length", 0, "truncate to this many characters (0 keeps everything)")
	cmd.Flags().BoolVar(&dotsOnStart, "dots-start", false, "replace the start of the snippet with \"..\"")
	cmd.Flags().BoolVar(&noDotsOnEnd, "no-dots-end", false, "do not append \"...\"")
	cmd.Flags().BoolVar(&keepPages, "keep-page-numbers", false, "keep \"[page N]\" markers")
	cmd.Flags().BoolVar(&allLeading, "strip-all-leading", false, "strip every leading non-word character, not only '#' and '*'")
	cmd.Flags().BoolVar(&keepSpacing, "keep-whitespace", false, "do not collapse whitespace runs")
	cmd.Flags().BoolVar(&splitSentences, "sentences", false, "also print the snippet split into sentences")

	return cmd
}

func runClean(cmd *cobra.Command, args []string, clean func(string) CleanResult) error {
	formatter, err := newFormatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	text, err := inputText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	res := clean(text)
	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(res)
	}

	if err := formatter.Println("%s", res.Output); err != nil {
		return err
	}
	for i, s := range res.Sentences {
		formatter.Println("%s %s", formatter.Dim(fmt.Sprintf("%3d", i+1)), s)
	}
	return nil
}

// inputText joins args, or reads r when there are none.
func inputText(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
