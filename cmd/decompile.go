package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var decompileJavaFlag bool
var decompileOutFlag string

// decompileCmd represents the decompile command.
var decompileCmd = newDecompileCmd()

func newDecompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompile <apk>",
		Short: "Unpack an APK into a source tree",
		Long: `Disassemble the APK to smali with apktool, or decompile it to Java
sources with jadx when --java is set. The tree lands next to the APK
unless --out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apk := m.Path(args[0])

			out := m.Path(decompileOutFlag)
			if out == "" {
				out = defaultTreeDir(apk)
			}

			return workflow.Decompile(cmd.Context(), domain.DecompileArgs{
				APK:    apk,
				Output: out,
				Mode:   decompileMode(decompileJavaFlag),
			})
		},
	}

	cmd.Flags().BoolVar(&decompileJavaFlag, "java", false, "decompile to Java sources with jadx instead of smali")
	cmd.Flags().StringVar(&decompileOutFlag, "out", "", "destination directory for the source tree")

	return cmd
}

func init() {
	rootCmd.AddCommand(decompileCmd)
}

func decompileMode(java bool) adapter.DecompileMode {
	if java {
		return adapter.ModeJava
	}

	return adapter.ModeSmali
}

// defaultTreeDir derives the tree location from the APK name:
// target.apk -> target.src.
func defaultTreeDir(apk m.Path) m.Path {
	return m.Path(strings.TrimSuffix(string(apk), ".apk") + ".src")
}
