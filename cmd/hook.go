package cmd

import (
	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var hookAttachFlag bool
var hookPIDFlag int
var hookServerFlag string

// hookCmd represents the hook command.
var hookCmd = newHookCmd()

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook <package>",
		Short: "Instrument a target app with the unpinning script",
		Long: `Write the TLS unpinning script and run a frida session against the target
package. By default the app is spawned with the script injected; use
--attach (by name) or --pid to hook an already running process. Captured
script output is stored as a run artifact.

The frida CLI must be installed on the host. Pass --setup-server with a
frida-server binary to deploy and start it on the device first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Hook(cmd.Context(), domain.HookArgs{
				Package:      args[0],
				Output:       outputDir(),
				Attach:       hookAttachFlag,
				PID:          hookPIDFlag,
				ServerBinary: m.Path(hookServerFlag),
			})
		},
	}

	cmd.Flags().BoolVar(&hookAttachFlag, "attach", false, "attach to the running process instead of spawning it")
	cmd.Flags().IntVar(&hookPIDFlag, "pid", 0, "attach to this PID instead of spawning")
	cmd.Flags().StringVar(&hookServerFlag, "setup-server", "", "frida-server binary to push and start on the device")

	return cmd
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
