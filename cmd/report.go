package cmd

import (
	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var reportMarkdownFlag string

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "View stored assessment reports",
		Long: `View reports from previous runs. Without arguments all stored runs are
summarised; pass a run id to open a single report. Use --markdown to
write the reports out as a markdown document instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}

			return workflow.View(cmd.Context(), domain.ViewArgs{
				Reports:  outputDir(),
				RunID:    runID,
				Markdown: m.Path(reportMarkdownFlag),
			})
		},
	}

	cmd.Flags().StringVar(&reportMarkdownFlag, "markdown", "", "write the reports to this file as markdown")

	return cmd
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
