package cmd

import (
	"github.com/spf13/cobra"
)

// devicesCmd represents the devices command.
var devicesCmd = newDevicesCmd()

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List connected adb devices",
		Long:  "List the devices adb currently sees, with their state and model.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Devices(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
