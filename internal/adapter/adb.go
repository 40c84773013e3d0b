package adapter

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// AdbAdapter abstracts the Android debug bridge. All device interaction in the
// runbook (pulling files, pushing the instrumentation server, shell commands)
// goes through adb's documented CLI.
type AdbAdapter interface {
	Devices(ctx context.Context) ([]m.Device, error)
	Pull(ctx context.Context, remote string, local m.Path) error
	Push(ctx context.Context, local m.Path, remote string) error
	Shell(ctx context.Context, command string) (string, error)
	Root(ctx context.Context) error
}

// LocalAdbAdapter drives the adb binary, optionally scoped to one device
// serial with `-s`.
type LocalAdbAdapter struct {
	runner ToolRunner
	serial string
}

// NewLocalAdbAdapter constructs a LocalAdbAdapter. An empty serial lets adb
// pick the only connected device.
func NewLocalAdbAdapter(runner ToolRunner, serial string) *LocalAdbAdapter {
	return &LocalAdbAdapter{runner: runner, serial: serial}
}

// args prefixes the serial selector when one is configured.
func (a *LocalAdbAdapter) args(rest ...string) []string {
	if a.serial == "" {
		return rest
	}

	return append([]string{"-s", a.serial}, rest...)
}

// Devices parses `adb devices -l` into device records.
func (a *LocalAdbAdapter) Devices(ctx context.Context) ([]m.Device, error) {
	output, err := a.runner.Run(ctx, "", "adb", "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices failed: %w", err)
	}

	return parseDeviceList(output), nil
}

// Pull copies a file or directory from the device.
func (a *LocalAdbAdapter) Pull(ctx context.Context, remote string, local m.Path) error {
	output, err := a.runner.Run(ctx, "", "adb", a.args("pull", remote, string(local))...)
	if err != nil {
		return fmt.Errorf("adb pull %s failed: %w (output: %s)", remote, err, tail(output))
	}

	return nil
}

// Push copies a local file to the device.
func (a *LocalAdbAdapter) Push(ctx context.Context, local m.Path, remote string) error {
	output, err := a.runner.Run(ctx, "", "adb", a.args("push", string(local), remote)...)
	if err != nil {
		return fmt.Errorf("adb push %s failed: %w (output: %s)", remote, err, tail(output))
	}

	return nil
}

// Shell runs a command on the device and returns its output.
func (a *LocalAdbAdapter) Shell(ctx context.Context, command string) (string, error) {
	output, err := a.runner.Run(ctx, "", "adb", a.args("shell", command)...)
	if err != nil {
		return output, fmt.Errorf("adb shell %q failed: %w", command, err)
	}

	return output, nil
}

// Root restarts adbd with root privileges. Fails on production builds.
func (a *LocalAdbAdapter) Root(ctx context.Context) error {
	output, err := a.runner.Run(ctx, "", "adb", a.args("root")...)
	if err != nil {
		return fmt.Errorf("adb root failed: %w (output: %s)", err, tail(output))
	}

	return nil
}

// parseDeviceList turns `adb devices -l` output into Device records. The
// first line is the "List of devices attached" banner; subsequent lines are
// `<serial>\t<state> key:value ...`.
func parseDeviceList(output string) []m.Device {
	var devices []m.Device

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		device := m.Device{Serial: fields[0], State: fields[1]}

		for _, field := range fields[2:] {
			switch {
			case strings.HasPrefix(field, "model:"):
				device.Model = strings.TrimPrefix(field, "model:")
			case strings.HasPrefix(field, "product:"):
				device.Product = strings.TrimPrefix(field, "product:")
			}
		}

		devices = append(devices, device)
	}

	return devices
}
