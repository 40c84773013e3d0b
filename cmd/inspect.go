package cmd

import (
	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// inspectCmd represents the inspect command.
var inspectCmd = newInspectCmd()

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <apk>",
		Short: "Profile an APK without unpacking it",
		Long: `Read the package identity, requested permissions and declared components
straight from the APK with aapt. Dangerous permissions and exported
components are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Inspect(cmd.Context(), domain.InspectArgs{
				APK: m.Path(args[0]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
