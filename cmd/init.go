package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
)

var initPipelineFlag bool

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default droidprobe.yaml configuration file",
		Long: `Create a droidprobe.yaml in the current working directory populated with
the current CLI defaults so it can be edited manually. With --pipeline a
stock pipeline.yaml for the companion application CI is written as well.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			if initPipelineFlag {
				return writeDefaultPipeline(filepath.Join(configFolderPath, "pipeline.yaml"))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&initPipelineFlag, "pipeline", false, "also write the stock pipeline.yaml")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func writeDefaultPipeline(path string) error {
	data, err := yaml.Marshal(domain.DefaultPipeline())
	if err != nil {
		return fmt.Errorf("failed to render pipeline definition: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write pipeline file: %w", err)
	}

	return nil
}
