package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// SimpleUI renders plain text and tables through the cobra command's stdout.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayMessage prints a single line.
func (s *SimpleUI) DisplayMessage(ctx context.Context, message string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", message)
}

// DisplayInspection renders the static profile of an APK.
func (s *SimpleUI) DisplayInspection(ctx context.Context, inspection m.Inspection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Package:  %s\n", inspection.PackageName)
	s.printf("Version:  %s (%s)\n", inspection.VersionName, inspection.VersionCode)
	s.printf("SDK:      min %s, target %s\n", inspection.MinSDK, inspection.TargetSDK)

	if inspection.Debuggable {
		s.printf("Debuggable: yes\n")
	}

	s.printf("\nPermissions (%d):\n", len(inspection.Permissions))

	for _, perm := range inspection.Permissions {
		if perm.Dangerous() {
			s.printf("  ! %s\n", perm.Name)
		} else {
			s.printf("    %s\n", perm.Name)
		}
	}

	exported := inspection.ExportedComponents()

	s.printf("\nComponents (%d, %d exported):\n", len(inspection.Components), len(exported))

	for _, component := range inspection.Components {
		marker := "    "
		if component.Exported {
			marker = "  > "
		}

		s.printf("%s[%s] %s\n", marker, component.Kind, component.Name)
	}

	return nil
}

// DisplayReport renders one report: findings table plus artifact list.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Run %s  target=%s\n", report.RunID, report.Target)

	if len(report.Findings) > 0 {
		s.printf("\n%s", renderFindingsTable(report.Findings))
	}

	if len(report.Artifacts) > 0 {
		s.printf("\nArtifacts:\n")

		for _, artifact := range report.Artifacts {
			s.printf("  [%s] %s (%s)\n", artifact.Kind, artifact.Path, artifact.Origin)
		}
	}

	summary := report.Summarize()
	s.printf("\nFindings: %d total", summary.Total)

	for _, severity := range []m.Severity{m.SeverityCritical, m.SeverityHigh, m.SeverityMedium, m.SeverityLow, m.SeverityInfo} {
		if count := summary.BySeverity[severity]; count > 0 {
			s.printf(" | %s: %d", severity, count)
		}
	}

	s.printf("\n")

	return nil
}

// DisplayReports renders a summary table across stored runs.
func (s *SimpleUI) DisplayReports(ctx context.Context, reports []m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Run", "Target", "Started", "Findings", "Worst"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	totalFindings := 0

	for _, report := range reports {
		totalFindings += len(report.Findings)

		table.Append([]string{
			shortID(report.RunID),
			string(report.Target),
			report.Started.Format(time.DateTime),
			fmt.Sprintf("%d", len(report.Findings)),
			report.Worst().String(),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Runs %d", len(reports)), "", "",
		fmt.Sprintf("%d", totalFindings), "",
	})

	table.Render()

	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayDevices renders the adb device list.
func (s *SimpleUI) DisplayDevices(ctx context.Context, devices []m.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(devices) == 0 {
		s.printf("no devices attached\n")
		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Serial", "State", "Model", "Product"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, device := range devices {
		table.Append([]string{device.Serial, device.State, device.Model, device.Product})
	}

	table.Render()

	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayStageResult prints one pipeline stage outcome as it completes.
func (s *SimpleUI) DisplayStageResult(ctx context.Context, result m.StageResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	switch result.Status {
	case m.StagePassed:
		s.printf("  ✓ %s (%s)\n", result.Stage.Name, result.Duration.Round(time.Millisecond))
	case m.StageFailed:
		s.printf("  ✗ %s: %v\n", result.Stage.Name, result.Err)
	case m.StageSkipped:
		s.printf("  - %s (skipped)\n", result.Stage.Name)
	}
}

// DisplayPipelineRun renders the final pipeline summary.
func (s *SimpleUI) DisplayPipelineRun(ctx context.Context, result m.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Stage", "Status", "Duration"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, sr := range result.Stages {
		table.Append([]string{
			sr.Stage.Name,
			sr.Status.String(),
			sr.Duration.Round(time.Millisecond).String(),
		})
	}

	table.Render()

	s.printf("\nPipeline %s\n%s", result.Pipeline, tableBuffer.String())

	if result.Failed {
		s.printf("\nResult: FAILED (stages: %v)\n", result.FailedStages())
	} else {
		s.printf("\nResult: passed\n")
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

// renderFindingsTable renders findings sorted by severity (worst first) then
// by file.
func renderFindingsTable(findings []m.Finding) string {
	sorted := make([]m.Finding, len(findings))
	copy(sorted, findings)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}

		return sorted[i].File < sorted[j].File
	})

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Severity", "Rule", "File", "Line", "Excerpt"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	for _, finding := range sorted {
		table.Append([]string{
			finding.Severity.String(),
			finding.RuleID,
			string(finding.File),
			fmt.Sprintf("%d", finding.Line),
			finding.Excerpt,
		})
	}

	table.Render()

	return tableBuffer.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
