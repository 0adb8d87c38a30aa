package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/domain/provider"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

// ModelInfo describes one supported model for JSON output.
type ModelInfo struct {
	Name     string   `json:"name"`
	Provider string   `json:"provider"`
	ModelID  string   `json:"model_id"`
	Requires []string `json:"requires"`
}

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported models",
		Long: `List every model name accepted by --model, the provider serving it,
the identifier sent to the provider API and what the provider needs before an
adapter can be built.`,
		Example: `  # All models
  answerstream models

  # Only OpenAI models, as JSON
  answerstream models --provider openai -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runModels(formatter, kind)
		},
	}

	cmd.Flags().StringVarP(&kind, "provider", "p", "", "only list models of this provider (bedrock, openai)")

	return offline(cmd)
}

func runModels(formatter *output.Formatter, kind string) error {
	var descriptors []provider.Descriptor
	switch provider.Kind(strings.ToLower(kind)) {
	case "":
		descriptors = provider.AllModels()
	case provider.KindBedrock:
		descriptors = provider.Models(provider.KindBedrock)
	case provider.KindOpenAI:
		descriptors = provider.Models(provider.KindOpenAI)
	default:
		return fmt.Errorf("unknown provider %q (expected bedrock or openai)", kind)
	}

	infos := make([]ModelInfo, 0, len(descriptors))
	for _, d := range descriptors {
		requires := make([]string, 0, len(d.Required))
		for _, c := range d.Required {
			requires = append(requires, string(c))
		}
		infos = append(infos, ModelInfo{
			Name:     d.Name,
			Provider: d.Kind.String(),
			ModelID:  d.ModelID,
			Requires: requires,
		})
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(infos)
	}

	table := output.TableData{
		Columns: []output.TableColumn{
			{Header: "Provider", Align: output.AlignLeft},
			{Header: "Model", Align: output.AlignLeft},
			{Header: "Model ID", Align: output.AlignLeft},
			{Header: "Requires", Align: output.AlignLeft},
		},
		Rows: make([][]string, 0, len(infos)),
	}
	for i, info := range infos {
		table.Rows = append(table.Rows, []string{
			descriptors[i].Kind.DisplayName(),
			info.Name,
			info.ModelID,
			strings.Join(info.Requires, ", "),
		})
	}
	return formatter.Table(table)
}
