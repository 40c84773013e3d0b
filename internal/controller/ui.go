// Package controller provides output adapters for displaying assessment
// results: a plain table renderer and an interactive terminal viewer.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// UI defines the interface for rendering harness output. Implementations can
// use different output methods (simple text, TUI).
type UI interface {
	Start(ctx context.Context) error
	Close(ctx context.Context)

	DisplayMessage(ctx context.Context, message string)
	DisplayInspection(ctx context.Context, inspection m.Inspection) error
	DisplayReport(ctx context.Context, report m.Report) error
	DisplayReports(ctx context.Context, reports []m.Report) error
	DisplayDevices(ctx context.Context, devices []m.Device) error
	DisplayPipelineRun(ctx context.Context, result m.RunResult) error
	DisplayStageResult(ctx context.Context, result m.StageResult)
}

// IsTTY reports whether the writer is an interactive terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
