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

type fakeAdb struct {
	pullErr map[string]error
	pushed  []string
	shell   []string
}

func (f *fakeAdb) Devices(_ context.Context) ([]m.Device, error) {
	return []m.Device{{Serial: "emulator-5554", State: "device"}}, nil
}

func (f *fakeAdb) Pull(_ context.Context, remote string, local m.Path) error {
	if err := f.pullErr[remote]; err != nil {
		return err
	}

	// adb pull of a directory lands files one level below.
	if err := os.MkdirAll(string(local), 0o755); err != nil {
		return err
	}

	if strings.HasSuffix(remote, "databases") {
		return os.WriteFile(filepath.Join(string(local), "app.db"), []byte("sqlite"), 0o600)
	}

	return os.WriteFile(filepath.Join(string(local), "prefs.xml"), []byte("<map/>"), 0o600)
}

func (f *fakeAdb) Push(_ context.Context, local m.Path, remote string) error {
	f.pushed = append(f.pushed, string(local)+" -> "+remote)
	return nil
}

func (f *fakeAdb) Shell(_ context.Context, command string) (string, error) {
	f.shell = append(f.shell, command)
	return "", nil
}

func (f *fakeAdb) Root(_ context.Context) error {
	return nil
}

type fakeFrida struct {
	spawnOutput string
	spawnErr    error
	attached    bool
	attachedPID int
	setup       []string
}

func (f *fakeFrida) WriteUnpinningScript(dir m.Path) (m.Path, error) {
	path := filepath.Join(string(dir), "unpin.js")
	return m.Path(path), os.WriteFile(path, []byte("Java.perform(function(){});"), 0o600)
}

func (f *fakeFrida) Spawn(_ context.Context, _ string, _ m.Path) (string, error) {
	return f.spawnOutput, f.spawnErr
}

func (f *fakeFrida) Attach(_ context.Context, _ string, _ m.Path) (string, error) {
	f.attached = true
	return f.spawnOutput, f.spawnErr
}

func (f *fakeFrida) AttachPID(_ context.Context, pid int, _ m.Path) (string, error) {
	f.attachedPID = pid
	return f.spawnOutput, f.spawnErr
}

func (f *fakeFrida) SetupServer(_ context.Context, serverBinary m.Path) error {
	f.setup = append(f.setup, string(serverBinary))
	return nil
}

type fakeSQLite struct {
	dumps []string
}

func (f *fakeSQLite) Dump(_ context.Context, db m.Path) (string, error) {
	f.dumps = append(f.dumps, string(db))
	return "CREATE TABLE users (id INTEGER);\n", nil
}

func newTestCollector(adb *fakeAdb, frida *fakeFrida, sqlite *fakeSQLite) Collector {
	return NewCollector(adapter.NewLocalArtifactFS(), adb, frida, sqlite)
}

func artifactKinds(report m.Report) map[m.ArtifactKind]int {
	kinds := make(map[m.ArtifactKind]int)
	for _, a := range report.Artifacts {
		kinds[a.Kind]++
	}

	return kinds
}

func TestCollector_Hook(t *testing.T) {
	frida := &fakeFrida{spawnOutput: "[droidprobe] SSLContext.init intercepted\n"}
	collector := newTestCollector(&fakeAdb{}, frida, &fakeSQLite{})

	report, err := collector.Hook(context.Background(), HookArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("Hook error: %v", err)
	}

	kinds := artifactKinds(report)

	if kinds[m.ArtifactScript] != 1 {
		t.Errorf("expected the unpinning script artifact, got %+v", report.Artifacts)
	}

	if kinds[m.ArtifactHookLog] != 1 {
		t.Errorf("expected a hook log artifact, got %+v", report.Artifacts)
	}

	if frida.attached {
		t.Errorf("spawn mode must not attach")
	}
}

func TestCollector_HookAttachWithServer(t *testing.T) {
	frida := &fakeFrida{spawnOutput: "attached\n"}
	collector := newTestCollector(&fakeAdb{}, frida, &fakeSQLite{})

	report, err := collector.Hook(context.Background(), HookArgs{
		Package:      "com.example.vault",
		Output:       m.Path(t.TempDir()),
		Attach:       true,
		ServerBinary: "frida-server-arm64",
	})
	if err != nil {
		t.Fatalf("Hook error: %v", err)
	}

	if !frida.attached {
		t.Errorf("expected attach mode")
	}

	if len(frida.setup) != 1 {
		t.Errorf("expected frida-server deployment, got %v", frida.setup)
	}

	if len(report.ToolLog) == 0 {
		t.Errorf("expected the session to be logged")
	}
}

func TestCollector_HookByPID(t *testing.T) {
	frida := &fakeFrida{spawnOutput: "attached\n"}
	collector := newTestCollector(&fakeAdb{}, frida, &fakeSQLite{})

	_, err := collector.Hook(context.Background(), HookArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
		PID:     4242,
	})
	if err != nil {
		t.Fatalf("Hook error: %v", err)
	}

	if frida.attachedPID != 4242 {
		t.Errorf("expected attach by PID 4242, got %d", frida.attachedPID)
	}

	if frida.attached {
		t.Errorf("PID attach must not attach by name")
	}
}

func TestCollector_HookSessionErrorIsNotFatal(t *testing.T) {
	// The analyst killing the target ends the frida CLI non-zero; captured
	// output still matters.
	frida := &fakeFrida{spawnOutput: "partial output\n", spawnErr: errors.New("process terminated")}
	collector := newTestCollector(&fakeAdb{}, frida, &fakeSQLite{})

	report, err := collector.Hook(context.Background(), HookArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("session error must not fail the collection: %v", err)
	}

	if artifactKinds(report)[m.ArtifactHookLog] != 1 {
		t.Errorf("expected the partial hook log to be kept")
	}

	logged := strings.Join(report.ToolLog, "\n")
	if !strings.Contains(logged, "process terminated") {
		t.Errorf("session error missing from tool log: %v", report.ToolLog)
	}
}

func TestCollector_PullDefaults(t *testing.T) {
	adb := &fakeAdb{}
	sqlite := &fakeSQLite{}
	collector := newTestCollector(adb, &fakeFrida{}, sqlite)

	report, err := collector.Pull(context.Background(), PullArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
		DumpDB:  true,
	})
	if err != nil {
		t.Fatalf("Pull error: %v", err)
	}

	kinds := artifactKinds(report)

	// databases + shared_prefs.
	if kinds[m.ArtifactFile] != 2 {
		t.Errorf("expected 2 pulled artifacts, got %+v", report.Artifacts)
	}

	if kinds[m.ArtifactDatabaseDump] != 1 {
		t.Errorf("expected 1 database dump, got %+v", report.Artifacts)
	}

	if len(sqlite.dumps) != 1 || !strings.HasSuffix(sqlite.dumps[0], "app.db") {
		t.Errorf("unexpected sqlite dumps: %v", sqlite.dumps)
	}
}

func TestCollector_PullPartialFailure(t *testing.T) {
	adb := &fakeAdb{pullErr: map[string]error{
		"/data/data/com.example.vault/databases": errors.New("remote object does not exist"),
	}}
	collector := newTestCollector(adb, &fakeFrida{}, &fakeSQLite{})

	report, err := collector.Pull(context.Background(), PullArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("partial failure must not fail the pull: %v", err)
	}

	if artifactKinds(report)[m.ArtifactFile] != 1 {
		t.Errorf("expected the surviving path to be pulled, got %+v", report.Artifacts)
	}
}

func TestCollector_PullAllPathsFail(t *testing.T) {
	adb := &fakeAdb{pullErr: map[string]error{
		"/data/data/com.example.vault/databases":    errors.New("no device"),
		"/data/data/com.example.vault/shared_prefs": errors.New("no device"),
	}}
	collector := newTestCollector(adb, &fakeFrida{}, &fakeSQLite{})

	_, err := collector.Pull(context.Background(), PullArgs{
		Package: "com.example.vault",
		Output:  m.Path(t.TempDir()),
	})
	if err == nil {
		t.Fatalf("expected error when every path fails")
	}
}
