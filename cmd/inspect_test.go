package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

func TestInspectCmd(t *testing.T) {
	mockWf := &mockWorkflow{}
	defer swapWorkflow(mockWf)()

	mockWf.On("Inspect", mock.Anything, domain.InspectArgs{APK: m.Path("app.apk")}).Return(nil)

	cmd := newTestRootCmd(newInspectCmd())
	cmd.SetArgs([]string{"inspect", "app.apk"})

	require.NoError(t, cmd.Execute())
	mockWf.AssertExpectations(t)
}

func TestInspectCmd_RequiresAPK(t *testing.T) {
	cmd := newTestRootCmd(newInspectCmd())
	cmd.SetArgs([]string{"inspect"})

	require.Error(t, cmd.Execute())
}
