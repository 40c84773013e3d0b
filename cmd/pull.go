package cmd

import (
	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
)

var pullDumpDBFlag bool

// pullCmd represents the pull command.
var pullCmd = newPullCmd()

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <package> [remote-path...]",
		Short: "Pull app data off the device",
		Long: `Copy the app's stored data to the output directory with adb. Without
explicit remote paths the standard app data locations are pulled
(databases and shared_prefs). Requires a rooted device or a debuggable
target for /data/data access.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Pull(cmd.Context(), domain.PullArgs{
				Package:     args[0],
				Output:      outputDir(),
				RemotePaths: args[1:],
				DumpDB:      pullDumpDBFlag,
			})
		},
	}

	cmd.Flags().BoolVar(&pullDumpDBFlag, "dump-db", false, "render pulled SQLite databases to SQL text with sqlite3")

	return cmd
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
