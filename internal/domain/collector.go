package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// HookArgs parameterises a dynamic instrumentation session.
type HookArgs struct {
	Package      string
	Output       m.Path
	Attach       bool   // attach to a running process instead of spawning
	PID          int    // attach by PID instead of by package name
	ServerBinary m.Path // when set, deploy and start frida-server first
}

// PullArgs parameterises artifact collection from a device.
type PullArgs struct {
	Package     string
	Output      m.Path
	RemotePaths []string // explicit remote paths; default app data locations when empty
	DumpDB      bool     // render pulled .db files with sqlite3
}

// Collector covers the dynamic half of the runbook: hooking a target process
// and pulling its stored data off the device.
type Collector interface {
	Hook(ctx context.Context, args HookArgs) (m.Report, error)
	Pull(ctx context.Context, args PullArgs) (m.Report, error)
}

type collector struct {
	fs     adapter.ArtifactFSAdapter
	adb    adapter.AdbAdapter
	frida  adapter.FridaAdapter
	sqlite adapter.SQLiteDumpAdapter
}

// NewCollector constructs a Collector.
func NewCollector(fs adapter.ArtifactFSAdapter, adb adapter.AdbAdapter, frida adapter.FridaAdapter, sqlite adapter.SQLiteDumpAdapter) Collector {
	return &collector{fs: fs, adb: adb, frida: frida, sqlite: sqlite}
}

// Hook generates the unpinning script, optionally deploys frida-server, runs
// the instrumentation session and stores the captured output.
func (c *collector) Hook(ctx context.Context, args HookArgs) (m.Report, error) {
	report := m.Report{
		RunID:   uuid.NewString(),
		Target:  m.Path(args.Package),
		Started: time.Now(),
	}

	runDir, err := c.fs.EnsureRunDir(args.Output, report.RunID)
	if err != nil {
		return m.Report{}, err
	}

	script, err := c.frida.WriteUnpinningScript(runDir)
	if err != nil {
		return m.Report{}, err
	}

	report.Artifacts = append(report.Artifacts, m.Artifact{
		Kind:   m.ArtifactScript,
		Path:   script,
		Origin: "droidprobe unpinning script",
	})

	if args.ServerBinary != "" {
		if err := c.frida.SetupServer(ctx, args.ServerBinary); err != nil {
			slog.Error("frida-server deployment failed", "error", err)
			return m.Report{}, err
		}

		report.ToolLog = append(report.ToolLog, "frida-server deployed via adb")
	}

	var output string

	switch {
	case args.PID > 0:
		output, err = c.frida.AttachPID(ctx, args.PID, script)
		report.ToolLog = append(report.ToolLog, fmt.Sprintf("frida -U -p %d -l %s", args.PID, script))
	case args.Attach:
		output, err = c.frida.Attach(ctx, args.Package, script)
		report.ToolLog = append(report.ToolLog, fmt.Sprintf("frida -U -n %s -l %s", args.Package, script))
	default:
		output, err = c.frida.Spawn(ctx, args.Package, script)
		report.ToolLog = append(report.ToolLog, fmt.Sprintf("frida -U -f %s -l %s", args.Package, script))
	}

	// The session usually ends with the analyst killing the target; captured
	// output is worth keeping even when the CLI exits non-zero.
	if output != "" {
		logPath := c.fs.JoinPath(string(runDir), "hook.log")
		if writeErr := c.fs.WriteFile(logPath, []byte(output), 0o600); writeErr == nil {
			report.Artifacts = append(report.Artifacts, m.Artifact{
				Kind:   m.ArtifactHookLog,
				Path:   logPath,
				Origin: "frida",
			})
		} else {
			slog.Error("failed to store hook log", "error", writeErr)
		}
	}

	if err != nil {
		slog.Warn("instrumentation session ended with error", "package", args.Package, "error", err)
		report.ToolLog = append(report.ToolLog, fmt.Sprintf("session error: %v", err))
	}

	report.Finished = time.Now()

	return report, nil
}

// defaultRemotePaths are the app data locations the runbook pulls first.
func defaultRemotePaths(packageName string) []string {
	return []string{
		fmt.Sprintf("/data/data/%s/databases", packageName),
		fmt.Sprintf("/data/data/%s/shared_prefs", packageName),
	}
}

// Pull copies app data off the device and optionally dumps SQLite databases.
func (c *collector) Pull(ctx context.Context, args PullArgs) (m.Report, error) {
	report := m.Report{
		RunID:   uuid.NewString(),
		Target:  m.Path(args.Package),
		Started: time.Now(),
	}

	runDir, err := c.fs.EnsureRunDir(args.Output, report.RunID)
	if err != nil {
		return m.Report{}, err
	}

	remotes := args.RemotePaths
	if len(remotes) == 0 {
		remotes = defaultRemotePaths(args.Package)
	}

	pulled := 0

	for _, remote := range remotes {
		local := c.fs.JoinPath(string(runDir), filepath.Base(remote))

		if err := c.adb.Pull(ctx, remote, local); err != nil {
			// Missing paths are routine (not every app has databases).
			slog.Warn("pull failed", "remote", remote, "error", err)
			report.ToolLog = append(report.ToolLog, fmt.Sprintf("adb pull %s: %v", remote, err))

			continue
		}

		pulled++

		report.ToolLog = append(report.ToolLog, fmt.Sprintf("adb pull %s -> %s", remote, local))
		report.Artifacts = append(report.Artifacts, m.Artifact{
			Kind:   m.ArtifactFile,
			Path:   local,
			Origin: "adb pull",
			Remote: remote,
		})

		if args.DumpDB {
			c.dumpDatabases(ctx, &report, local)
		}
	}

	if pulled == 0 {
		return m.Report{}, fmt.Errorf("nothing pulled for %s: all %d paths failed", args.Package, len(remotes))
	}

	report.Finished = time.Now()

	return report, nil
}

// dumpDatabases renders every pulled .db file to SQL text next to it.
func (c *collector) dumpDatabases(ctx context.Context, report *m.Report, local m.Path) {
	info, err := c.fs.FileInfo(local)
	if err != nil {
		return
	}

	var candidates []m.Path

	if info.IsDir() {
		// adb pull of a directory lands files one level below.
		matches, globErr := filepath.Glob(filepath.Join(string(local), "*.db"))
		if globErr != nil {
			return
		}

		for _, match := range matches {
			candidates = append(candidates, m.Path(match))
		}
	} else if strings.HasSuffix(string(local), ".db") {
		candidates = append(candidates, local)
	}

	for _, db := range candidates {
		dump, err := c.sqlite.Dump(ctx, db)
		if err != nil {
			slog.Warn("sqlite dump failed", "db", db, "error", err)
			continue
		}

		dumpPath := m.Path(string(db) + ".sql")
		if err := c.fs.WriteFile(dumpPath, []byte(dump), 0o600); err != nil {
			slog.Error("failed to write db dump", "db", db, "error", err)
			continue
		}

		report.Artifacts = append(report.Artifacts, m.Artifact{
			Kind:   m.ArtifactDatabaseDump,
			Path:   dumpPath,
			Origin: "sqlite3 .dump",
		})
	}
}
