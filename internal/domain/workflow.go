package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	"droidprobe.dev/pkg/droidprobe/internal/controller"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// ErrPipelineFailed marks a pipeline run where a critical stage failed. The
// CLI maps it to a non-zero exit code.
var ErrPipelineFailed = errors.New("pipeline failed")

// InspectArgs parameterises the inspect workflow.
type InspectArgs struct {
	APK m.Path
}

// ScanWorkflowArgs parameterises the scan workflow.
type ScanWorkflowArgs struct {
	ScanArgs
	RulesFile m.Path // optional custom rule set
}

// DecompileArgs parameterises the standalone decompile workflow.
type DecompileArgs struct {
	APK    m.Path
	Output m.Path
	Mode   adapter.DecompileMode
}

// ViewArgs parameterises report viewing.
type ViewArgs struct {
	Reports  m.Path
	RunID    string // empty means all runs
	Markdown m.Path // when set, write a markdown report instead of displaying
}

// PipelineArgs parameterises a pipeline run.
type PipelineArgs struct {
	File m.Path // empty means the stock definition
}

// Workflow is the facade the CLI commands drive. It wires the UI, the
// orchestration logic and the stores together.
type Workflow interface {
	Inspect(ctx context.Context, args InspectArgs) error
	Scan(ctx context.Context, args ScanWorkflowArgs) error
	Decompile(ctx context.Context, args DecompileArgs) error
	Hook(ctx context.Context, args HookArgs) error
	Pull(ctx context.Context, args PullArgs) error
	Devices(ctx context.Context) error
	View(ctx context.Context, args ViewArgs) error
	RunPipeline(ctx context.Context, args PipelineArgs) error
}

type workflow struct {
	ui           controller.UI
	inspector    Inspector
	orchestrator Orchestrator
	collector    Collector
	pipelines    PipelineRunner
	store        adapter.ReportStore
	fs           adapter.ArtifactFSAdapter
	adb          adapter.AdbAdapter
	decompiler   adapter.DecompilerAdapter
}

// NewWorkflow constructs the Workflow facade with the provided dependencies.
func NewWorkflow(
	ui controller.UI,
	inspector Inspector,
	orchestrator Orchestrator,
	collector Collector,
	pipelines PipelineRunner,
	store adapter.ReportStore,
	fs adapter.ArtifactFSAdapter,
	adb adapter.AdbAdapter,
	decompiler adapter.DecompilerAdapter,
) Workflow {
	return &workflow{
		ui:           ui,
		inspector:    inspector,
		orchestrator: orchestrator,
		collector:    collector,
		pipelines:    pipelines,
		store:        store,
		fs:           fs,
		adb:          adb,
		decompiler:   decompiler,
	}
}

// Inspect profiles the APK and displays the result.
func (w *workflow) Inspect(ctx context.Context, args InspectArgs) error {
	inspection, err := w.inspector.Inspect(ctx, args.APK)
	if err != nil {
		return err
	}

	return w.ui.DisplayInspection(ctx, inspection)
}

// Scan runs a full static assessment, persists the report and displays the
// findings.
func (w *workflow) Scan(ctx context.Context, args ScanWorkflowArgs) error {
	rules := args.Rules

	if args.RulesFile != "" {
		data, err := os.ReadFile(string(args.RulesFile))
		if err != nil {
			return fmt.Errorf("failed to read rules file: %w", err)
		}

		rules, err = ParseRuleSet(data)
		if err != nil {
			return err
		}
	}

	if len(rules.Rules) == 0 {
		rules = DefaultRuleSet()
	}

	scanArgs := args.ScanArgs
	scanArgs.Rules = rules

	// The progress spinner runs for the duration of the assessment.
	if err := w.ui.Start(ctx); err != nil {
		return err
	}

	report, err := w.orchestrator.Assess(ctx, scanArgs)

	w.ui.Close(ctx)

	if err != nil {
		return err
	}

	if err := w.store.Save(scanArgs.Output, report); err != nil {
		slog.Error("failed to persist report", "run_id", report.RunID, "error", err)
		return err
	}

	return w.ui.DisplayReport(ctx, report)
}

// Decompile produces a source tree and reports its location.
func (w *workflow) Decompile(ctx context.Context, args DecompileArgs) error {
	if err := w.decompiler.Decompile(ctx, args.APK, args.Output, args.Mode); err != nil {
		return err
	}

	w.ui.DisplayMessage(ctx, fmt.Sprintf("decompiled %s into %s", args.APK, args.Output))

	return nil
}

// Hook runs an instrumentation session and persists the collection report.
func (w *workflow) Hook(ctx context.Context, args HookArgs) error {
	report, err := w.collector.Hook(ctx, args)
	if err != nil {
		return err
	}

	if err := w.store.Save(args.Output, report); err != nil {
		slog.Error("failed to persist report", "run_id", report.RunID, "error", err)
		return err
	}

	return w.ui.DisplayReport(ctx, report)
}

// Pull collects app data from the device and persists the report.
func (w *workflow) Pull(ctx context.Context, args PullArgs) error {
	report, err := w.collector.Pull(ctx, args)
	if err != nil {
		return err
	}

	if err := w.store.Save(args.Output, report); err != nil {
		slog.Error("failed to persist report", "run_id", report.RunID, "error", err)
		return err
	}

	return w.ui.DisplayReport(ctx, report)
}

// Devices lists connected devices.
func (w *workflow) Devices(ctx context.Context) error {
	devices, err := w.adb.Devices(ctx)
	if err != nil {
		return err
	}

	return w.ui.DisplayDevices(ctx, devices)
}

// View loads stored reports and renders them.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	var (
		reports []m.Report
		err     error
	)

	if args.RunID != "" {
		var report m.Report

		report, err = w.store.Load(args.Reports, args.RunID)
		reports = []m.Report{report}
	} else {
		reports, err = w.store.LoadAll(args.Reports)
	}

	if err != nil {
		return err
	}

	if len(reports) == 0 {
		w.ui.DisplayMessage(ctx, "no stored reports found")
		return nil
	}

	if args.Markdown != "" {
		data := controller.RenderMarkdown(reports)
		if err := w.fs.WriteFile(args.Markdown, data, 0o600); err != nil {
			return fmt.Errorf("failed to write markdown report: %w", err)
		}

		w.ui.DisplayMessage(ctx, fmt.Sprintf("wrote markdown report to %s", args.Markdown))

		return nil
	}

	return w.ui.DisplayReports(ctx, reports)
}

// RunPipeline loads the definition (or the stock one), runs it and maps a
// failed run to ErrPipelineFailed.
func (w *workflow) RunPipeline(ctx context.Context, args PipelineArgs) error {
	pipeline := DefaultPipeline()

	if args.File != "" {
		data, err := os.ReadFile(string(args.File))
		if err != nil {
			return fmt.Errorf("failed to read pipeline file: %w", err)
		}

		pipeline, err = ParsePipeline(data)
		if err != nil {
			return err
		}
	}

	result, err := w.pipelines.Run(ctx, pipeline)
	if err != nil {
		return err
	}

	if err := w.ui.DisplayPipelineRun(ctx, result); err != nil {
		return err
	}

	if result.Failed {
		return fmt.Errorf("%w: stages %v", ErrPipelineFailed, result.FailedStages())
	}

	return nil
}
