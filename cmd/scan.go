package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var scanParallelFlag int
var scanRulesFlag string
var scanJavaFlag bool
var scanKeepFlag bool

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <apk>",
		Short: "Decompile an APK and scan it for findings",
		Long: `Run a full static assessment: decompile the APK into a scratch directory,
scan every source file against the rule set, and persist a report under
the output directory. The built-in rules cover hardcoded secrets,
cleartext endpoints, pinning bypass surface, exported components and
insecure storage; pass --rules to use your own set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Scan(cmd.Context(), domain.ScanWorkflowArgs{
				ScanArgs: domain.ScanArgs{
					APK:      m.Path(args[0]),
					Output:   outputDir(),
					Mode:     decompileMode(scanJavaFlag),
					Workers:  viper.GetInt(scanParallelConfigKey),
					KeepTree: scanKeepFlag,
				},
				RulesFile: m.Path(viper.GetString(scanRulesConfigKey)),
			})
		},
	}

	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&scanParallelFlag, scanParallelFlagName, "p", viper.GetInt(scanParallelConfigKey), "number of parallel scan workers")
	bindFlagToConfig(cmd.Flags().Lookup(scanParallelFlagName), scanParallelConfigKey)

	cmd.Flags().StringVar(&scanRulesFlag, "rules", viper.GetString(scanRulesConfigKey), "YAML rule set to scan with (default: built-in rules)")
	bindFlagToConfig(cmd.Flags().Lookup("rules"), scanRulesConfigKey)

	cmd.Flags().BoolVar(&scanJavaFlag, "java", false, "scan jadx Java output instead of smali")
	cmd.Flags().BoolVar(&scanKeepFlag, "keep", false, "keep the decompiled tree as a run artifact")
}
