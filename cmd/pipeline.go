package cmd

import (
	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var pipelineFileFlag string

// pipelineCmd represents the pipeline command.
var pipelineCmd = newPipelineCmd()

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the companion app CI pipeline",
		Long: `Run a staged shell pipeline. Without --file the stock definition for the
companion Python application is used: create a virtualenv, install
dependencies, lint, test, measure coverage and clean up. Only stages
marked critical (install, test) fail the run; the cleanup stage runs no
matter what happened before it.

The command exits non-zero when a critical stage failed.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.RunPipeline(cmd.Context(), domain.PipelineArgs{
				File: m.Path(pipelineFileFlag),
			})
		},
	}

	cmd.Flags().StringVarP(&pipelineFileFlag, "file", "f", "", "pipeline definition to run (YAML)")

	return cmd
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}
