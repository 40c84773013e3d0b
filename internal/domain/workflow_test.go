package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// recordingUI implements controller.UI and records what was displayed.
type recordingUI struct {
	messages  []string
	reports   []m.Report
	runs      []m.RunResult
	displayed int
}

func (r *recordingUI) Start(_ context.Context) error { return nil }
func (r *recordingUI) Close(_ context.Context)       {}

func (r *recordingUI) DisplayMessage(_ context.Context, message string) {
	r.messages = append(r.messages, message)
}

func (r *recordingUI) DisplayInspection(_ context.Context, _ m.Inspection) error {
	r.displayed++
	return nil
}

func (r *recordingUI) DisplayReport(_ context.Context, report m.Report) error {
	r.reports = append(r.reports, report)
	return nil
}

func (r *recordingUI) DisplayReports(_ context.Context, reports []m.Report) error {
	r.reports = append(r.reports, reports...)
	return nil
}

func (r *recordingUI) DisplayDevices(_ context.Context, _ []m.Device) error {
	r.displayed++
	return nil
}

func (r *recordingUI) DisplayPipelineRun(_ context.Context, result m.RunResult) error {
	r.runs = append(r.runs, result)
	return nil
}

func (r *recordingUI) DisplayStageResult(_ context.Context, _ m.StageResult) {}

// capturingOrchestrator records the ScanArgs it was driven with.
type capturingOrchestrator struct {
	args   ScanArgs
	report m.Report
}

func (c *capturingOrchestrator) Assess(_ context.Context, args ScanArgs) (m.Report, error) {
	c.args = args
	return c.report, nil
}

func newTestWorkflow(t *testing.T, ui *recordingUI, orch Orchestrator, runner adapter.ToolRunner) Workflow {
	t.Helper()

	if runner == nil {
		runner = newStubRunner()
	}

	return NewWorkflow(
		ui,
		NewInspector(nil),
		orch,
		nil,
		NewPipelineRunner(runner),
		adapter.NewFSReportStore(),
		adapter.NewLocalArtifactFS(),
		&fakeAdb{},
		&fakeDecompiler{},
	)
}

func TestWorkflow_ScanUsesDefaultRules(t *testing.T) {
	ui := &recordingUI{}
	orch := &capturingOrchestrator{report: m.Report{RunID: "run-1"}}
	wf := newTestWorkflow(t, ui, orch, nil)

	err := wf.Scan(context.Background(), ScanWorkflowArgs{
		ScanArgs: ScanArgs{APK: "app.apk", Output: m.Path(t.TempDir())},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if orch.args.Rules.Name != "droidprobe-default" {
		t.Errorf("expected default rules, got %q", orch.args.Rules.Name)
	}

	if len(ui.reports) != 1 {
		t.Errorf("expected the report to be displayed")
	}
}

func TestWorkflow_ScanLoadsRulesFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	rulesYAML := "name: mine\nrules:\n  - id: r1\n    category: secret\n    pattern: 'token='\n"

	if err := os.WriteFile(rulesPath, []byte(rulesYAML), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	ui := &recordingUI{}
	orch := &capturingOrchestrator{report: m.Report{RunID: "run-1"}}
	wf := newTestWorkflow(t, ui, orch, nil)

	err := wf.Scan(context.Background(), ScanWorkflowArgs{
		ScanArgs:  ScanArgs{APK: "app.apk", Output: m.Path(t.TempDir())},
		RulesFile: m.Path(rulesPath),
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if orch.args.Rules.Name != "mine" {
		t.Errorf("expected custom rules, got %q", orch.args.Rules.Name)
	}
}

func TestWorkflow_ScanPersistsReport(t *testing.T) {
	output := t.TempDir()

	ui := &recordingUI{}
	orch := &capturingOrchestrator{report: m.Report{RunID: "run-42", Target: "app.apk"}}
	wf := newTestWorkflow(t, ui, orch, nil)

	err := wf.Scan(context.Background(), ScanWorkflowArgs{
		ScanArgs: ScanArgs{APK: "app.apk", Output: m.Path(output)},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(output, "run-42.yaml")); err != nil {
		t.Errorf("report not persisted: %v", err)
	}
}

func TestWorkflow_RunPipelineFailureMapsToError(t *testing.T) {
	ui := &recordingUI{}
	wf := newTestWorkflow(t, ui, nil, newStubRunner("pytest"))

	err := wf.RunPipeline(context.Background(), PipelineArgs{})
	if !errors.Is(err, ErrPipelineFailed) {
		t.Fatalf("expected ErrPipelineFailed, got %v", err)
	}

	// The run summary is still displayed before the error is surfaced.
	if len(ui.runs) != 1 {
		t.Errorf("expected the pipeline summary to be displayed")
	}
}

func TestWorkflow_RunPipelineFromFile(t *testing.T) {
	pipelinePath := filepath.Join(t.TempDir(), "pipeline.yaml")
	pipelineYAML := "name: tiny\nstages:\n  - name: hello\n    run:\n      - echo hi\n"

	if err := os.WriteFile(pipelinePath, []byte(pipelineYAML), 0o600); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	ui := &recordingUI{}
	wf := newTestWorkflow(t, ui, nil, newStubRunner())

	if err := wf.RunPipeline(context.Background(), PipelineArgs{File: m.Path(pipelinePath)}); err != nil {
		t.Fatalf("RunPipeline error: %v", err)
	}

	if len(ui.runs) != 1 || ui.runs[0].Pipeline != "tiny" {
		t.Errorf("unexpected pipeline runs: %+v", ui.runs)
	}
}

func TestWorkflow_ViewMarkdown(t *testing.T) {
	output := t.TempDir()
	store := adapter.NewFSReportStore()

	report := m.Report{RunID: "run-1", Target: "app.apk", Findings: []m.Finding{
		{ID: "f1", RuleID: "secret-generic-key", Severity: m.SeverityHigh, Category: m.CategorySecret, File: "a.smali", Line: 3, Excerpt: "api_key=..."},
	}}

	if err := store.Save(m.Path(output), report); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	ui := &recordingUI{}
	wf := newTestWorkflow(t, ui, nil, nil)

	markdownPath := filepath.Join(t.TempDir(), "report.md")

	err := wf.View(context.Background(), ViewArgs{
		Reports:  m.Path(output),
		Markdown: m.Path(markdownPath),
	})
	if err != nil {
		t.Fatalf("View error: %v", err)
	}

	data, err := os.ReadFile(markdownPath)
	if err != nil {
		t.Fatalf("markdown not written: %v", err)
	}

	if !containsAll(string(data), "# Assessment Report", "run-1", "secret-generic-key") {
		t.Errorf("markdown missing expected content:\n%s", data)
	}
}

func TestWorkflow_ViewEmptyStore(t *testing.T) {
	ui := &recordingUI{}
	wf := newTestWorkflow(t, ui, nil, nil)

	err := wf.View(context.Background(), ViewArgs{Reports: m.Path(t.TempDir())})
	if err != nil {
		t.Fatalf("View error: %v", err)
	}

	if len(ui.messages) != 1 {
		t.Errorf("expected a 'no reports' message, got %v", ui.messages)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}

	return true
}
