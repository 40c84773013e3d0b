package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// ScanArgs parameterises one static assessment run.
type ScanArgs struct {
	APK      m.Path
	Output   m.Path // artifact/report root
	Mode     adapter.DecompileMode
	Rules    RuleSet
	Workers  int
	KeepTree bool // retain the decompiled tree as an artifact
}

// Orchestrator drives a full static assessment: decompile into a scratch
// directory, scan the tree, record artifacts, clean up.
type Orchestrator interface {
	Assess(ctx context.Context, args ScanArgs) (m.Report, error)
}

type orchestrator struct {
	fs         adapter.ArtifactFSAdapter
	decompiler adapter.DecompilerAdapter
	scanner    Scanner
}

// NewOrchestrator constructs an Orchestrator backed by the provided adapters.
func NewOrchestrator(fs adapter.ArtifactFSAdapter, decompiler adapter.DecompilerAdapter, scanner Scanner) Orchestrator {
	return &orchestrator{
		fs:         fs,
		decompiler: decompiler,
		scanner:    scanner,
	}
}

// Assess runs decompile + scan and assembles the report. The decompiled tree
// lives in a temp directory unless KeepTree moves it under the run directory.
func (o *orchestrator) Assess(ctx context.Context, args ScanArgs) (m.Report, error) {
	report := m.Report{
		RunID:   uuid.NewString(),
		Target:  args.APK,
		Started: time.Now(),
	}

	if _, err := o.fs.FileInfo(args.APK); err != nil {
		return m.Report{}, fmt.Errorf("target APK not readable: %w", err)
	}

	if hash, err := o.fs.HashFile(args.APK); err == nil {
		report.TargetHash = hash
	} else {
		slog.Warn("failed to hash target", "apk", args.APK, "error", err)
	}

	treeDir, cleanup, err := o.prepareTree(ctx, &report, args)
	if err != nil {
		return m.Report{}, err
	}

	defer cleanup()

	findings, err := o.scanner.Scan(ctx, treeDir, args.Rules, args.Workers)
	if err != nil {
		slog.Error("scan failed", "apk", args.APK, "error", err)
		return m.Report{}, fmt.Errorf("scan of %s failed: %w", args.APK, err)
	}

	report.Findings = findings
	report.Finished = time.Now()

	slog.Info("assessment complete",
		"run_id", report.RunID,
		"apk", args.APK,
		"findings", len(findings),
		"duration", report.Finished.Sub(report.Started))

	return report, nil
}

// prepareTree decompiles the APK and decides where the tree lives. The
// returned cleanup removes the tree unless it was kept as an artifact.
func (o *orchestrator) prepareTree(ctx context.Context, report *m.Report, args ScanArgs) (m.Path, func(), error) {
	var (
		treeDir m.Path
		err     error
	)

	tool := "apktool d"
	if args.Mode == adapter.ModeJava {
		tool = "jadx"
	}

	if args.KeepTree {
		runDir, err := o.fs.EnsureRunDir(args.Output, report.RunID)
		if err != nil {
			return "", nil, err
		}

		treeDir = o.fs.JoinPath(string(runDir), "source")
	} else {
		treeDir, err = o.fs.CreateTempDir("droidprobe-tree-*")
		if err != nil {
			return "", nil, err
		}
	}

	if err := o.decompiler.Decompile(ctx, args.APK, treeDir, args.Mode); err != nil {
		// A failed decompile leaves partial output behind.
		o.removeTree(treeDir)
		slog.Error("decompilation failed", "apk", args.APK, "error", err)

		return "", nil, err
	}

	report.ToolLog = append(report.ToolLog, fmt.Sprintf("%s -> %s", tool, treeDir))

	if args.KeepTree {
		report.Artifacts = append(report.Artifacts, m.Artifact{
			Kind:   m.ArtifactSourceTree,
			Path:   treeDir,
			Origin: tool,
		})

		return treeDir, func() {}, nil
	}

	return treeDir, func() { o.removeTree(treeDir) }, nil
}

func (o *orchestrator) removeTree(dir m.Path) {
	if err := o.fs.RemoveAll(dir); err != nil {
		slog.Error("failed to remove decompiled tree", "dir", dir, "error", err)
	}
}
