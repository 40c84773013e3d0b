package cmd

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
)

// mockWorkflow implements domain.Workflow for command tests.
type mockWorkflow struct {
	mock.Mock
}

func (m *mockWorkflow) Inspect(ctx context.Context, args domain.InspectArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) Scan(ctx context.Context, args domain.ScanWorkflowArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) Decompile(ctx context.Context, args domain.DecompileArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) Hook(ctx context.Context, args domain.HookArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) Pull(ctx context.Context, args domain.PullArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) Devices(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return m.Called(ctx, args).Error(0)
}

func (m *mockWorkflow) RunPipeline(ctx context.Context, args domain.PipelineArgs) error {
	return m.Called(ctx, args).Error(0)
}

// newTestRootCmd builds a root without the production PersistentPreRun so a
// swapped-in mock workflow survives command execution.
func newTestRootCmd(children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{Use: "droidprobe"}
	configureRootFlags(cmd)

	for _, child := range children {
		cmd.AddCommand(child)
	}

	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd
}

// swapWorkflow installs the mock and returns a restore func.
func swapWorkflow(mockWf *mockWorkflow) func() {
	original := workflow
	workflow = mockWf

	return func() { workflow = original }
}
