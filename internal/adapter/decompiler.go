package adapter

import (
	"context"
	"fmt"
	"strings"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// DecompileMode selects which external decompiler to invoke.
type DecompileMode string

// Supported decompilers.
const (
	// ModeSmali disassembles to smali with apktool.
	ModeSmali DecompileMode = "smali"
	// ModeJava decompiles to Java sources with jadx.
	ModeJava DecompileMode = "java"
)

// DecompilerAdapter abstracts APK decompilation. The harness never interprets
// the produced tree itself beyond pattern scanning.
type DecompilerAdapter interface {
	Decompile(ctx context.Context, apk, outDir m.Path, mode DecompileMode) error
}

// ExternalDecompiler shells out to apktool or jadx.
type ExternalDecompiler struct {
	runner ToolRunner
}

// NewExternalDecompiler constructs an ExternalDecompiler.
func NewExternalDecompiler(runner ToolRunner) *ExternalDecompiler {
	return &ExternalDecompiler{runner: runner}
}

// Decompile produces a source tree for the APK under outDir.
//
// Smali mode: apktool d <apk> -o <dir> -f
// Java mode:  jadx -d <dir> <apk>
func (d *ExternalDecompiler) Decompile(ctx context.Context, apk, outDir m.Path, mode DecompileMode) error {
	switch mode {
	case ModeJava:
		output, err := d.runner.Run(ctx, "", "jadx", "-d", string(outDir), string(apk))
		if err != nil {
			return fmt.Errorf("jadx decompilation failed: %w (output: %s)", err, tail(output))
		}
	case ModeSmali:
		output, err := d.runner.Run(ctx, "", "apktool", "d", string(apk), "-o", string(outDir), "-f")
		if err != nil {
			return fmt.Errorf("apktool decompilation failed: %w (output: %s)", err, tail(output))
		}
	default:
		return fmt.Errorf("unknown decompile mode %q", mode)
	}

	return nil
}

// tail keeps error messages readable when a tool dumps pages of output.
func tail(output string) string {
	const maxLen = 512

	output = strings.TrimSpace(output)
	if len(output) <= maxLen {
		return output
	}

	return "..." + output[len(output)-maxLen:]
}
