package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"droidprobe.dev/pkg/droidprobe/internal/domain"
)

func TestPullCmd_Defaults(t *testing.T) {
	mockWf := &mockWorkflow{}
	defer swapWorkflow(mockWf)()

	mockWf.On("Pull", mock.Anything, mock.MatchedBy(func(args domain.PullArgs) bool {
		return args.Package == "com.example.vault" &&
			len(args.RemotePaths) == 0 &&
			!args.DumpDB
	})).Return(nil)

	cmd := newTestRootCmd(newPullCmd())
	cmd.SetArgs([]string{"pull", "com.example.vault"})

	require.NoError(t, cmd.Execute())
	mockWf.AssertExpectations(t)
}

func TestPullCmd_ExplicitPathsAndDump(t *testing.T) {
	mockWf := &mockWorkflow{}
	defer swapWorkflow(mockWf)()

	mockWf.On("Pull", mock.Anything, mock.MatchedBy(func(args domain.PullArgs) bool {
		return len(args.RemotePaths) == 2 &&
			args.RemotePaths[0] == "/data/data/com.example.vault/files" &&
			args.DumpDB
	})).Return(nil)

	cmd := newTestRootCmd(newPullCmd())
	cmd.SetArgs([]string{
		"pull", "--dump-db", "com.example.vault",
		"/data/data/com.example.vault/files",
		"/sdcard/Download",
	})

	require.NoError(t, cmd.Execute())
	mockWf.AssertExpectations(t)
}

func TestPullCmd_RequiresPackage(t *testing.T) {
	cmd := newTestRootCmd(newPullCmd())
	cmd.SetArgs([]string{"pull"})

	require.Error(t, cmd.Execute())
}
