// Package cmd provides the root command and CLI setup for droidprobe.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	"droidprobe.dev/pkg/droidprobe/internal/controller"
	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var toolRunner adapter.ToolRunner
var artifactFS adapter.ArtifactFSAdapter
var reportStore adapter.ReportStore
var badgingAdapter adapter.BadgingAdapter
var decompilerAdapter adapter.DecompilerAdapter
var adbAdapter adapter.AdbAdapter
var fridaAdapter adapter.FridaAdapter
var sqliteAdapter adapter.SQLiteDumpAdapter
var scanner domain.Scanner
var inspector domain.Inspector
var orchestrator domain.Orchestrator
var collector domain.Collector
var pipelineRunner domain.PipelineRunner
var workflow domain.Workflow
var ui controller.UI

// outputDirFlag is a root-level flag shared by commands that read/write
// reports and artifacts.
var outputDirFlag string

// serialFlag selects the adb device when several are attached.
var serialFlag string

// plainFlag forces the non-interactive renderer even on a terminal.
var plainFlag bool

// verboseFlag raises the log level to debug.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)
}

const rootLongDescription = `Droidprobe is an assessment harness for Android applications. It drives the
standard toolchain (apktool, jadx, aapt, adb, frida, sqlite3) through a
repeatable runbook: profile the package, decompile it, scan the sources for
secrets and weak configurations, hook the running process, and pull its
stored data off the device. Every run leaves a report on disk.

The tools themselves must be installed and on PATH; droidprobe only
orchestrates them.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "droidprobe",
		Short: "Android app assessment harness",
		Long:  rootLongDescription,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger("", verboseFlag)
			configureDependencies(cmd.Root())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	return cmd
}

// configureDependencies wires the adapter, domain and UI layers. It runs
// after flag parsing so serial, timeout and renderer selection take effect.
// The root command is passed in rather than read from the package var to keep
// package initialization acyclic.
func configureDependencies(root *cobra.Command) {
	toolRunner = adapter.NewLocalToolRunnerWithTimeout(toolTimeout())
	artifactFS = adapter.NewLocalArtifactFS()
	reportStore = adapter.NewFSReportStore()
	badgingAdapter = adapter.NewAaptAdapter(toolRunner)
	decompilerAdapter = adapter.NewExternalDecompiler(toolRunner)
	adbAdapter = adapter.NewLocalAdbAdapter(toolRunner, viper.GetString(serialConfigKey))
	fridaAdapter = adapter.NewLocalFridaAdapter(toolRunner, adbAdapter)
	sqliteAdapter = adapter.NewLocalSQLiteDumpAdapter(toolRunner)

	if plainFlag || !controller.IsTTY(os.Stdout) {
		ui = controller.NewSimpleUI(root)
		scanner = domain.NewScanner()
	} else {
		tui := controller.NewTUI(root.OutOrStdout())
		ui = tui
		scanner = domain.NewScannerWithProgress(tui.Progress)
	}

	inspector = domain.NewInspector(badgingAdapter)
	orchestrator = domain.NewOrchestrator(artifactFS, decompilerAdapter, scanner)
	collector = domain.NewCollector(artifactFS, adbAdapter, fridaAdapter, sqliteAdapter)
	pipelineRunner = domain.NewPipelineRunner(toolRunner, domain.WithStageCallback(func(result m.StageResult) {
		ui.DisplayStageResult(context.Background(), result)
	}))
	workflow = domain.NewWorkflow(
		ui,
		inspector,
		orchestrator,
		collector,
		pipelineRunner,
		reportStore,
		artifactFS,
		adbAdapter,
		decompilerAdapter,
	)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for reports and artifacts",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVarP(&serialFlag, serialFlagName, "s", viper.GetString(serialConfigKey), "adb device serial (when several devices are attached)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(serialFlagName), serialConfigKey)

	cmd.PersistentFlags().Duration(toolTimeoutFlagName, toolTimeout(), "timeout for a single external tool invocation")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(toolTimeoutFlagName), toolTimeoutConfigKey)

	cmd.PersistentFlags().BoolVar(&plainFlag, plainFlagName, false, "plain output (no interactive viewer)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "enable debug logging")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// outputDir resolves the report/artifact root from flag, config or default.
func outputDir() m.Path {
	return m.Path(viper.GetString(outputFlagName))
}
