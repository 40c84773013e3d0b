package adapter

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// BadgingAdapter reads the static profile of an APK through the aapt tool
// family. It falls back to aapt2 when aapt is not on the PATH.
type BadgingAdapter interface {
	Inspect(ctx context.Context, apk m.Path) (m.Inspection, error)
}

// AaptAdapter implements BadgingAdapter on top of a ToolRunner.
type AaptAdapter struct {
	runner ToolRunner
}

// NewAaptAdapter constructs an AaptAdapter.
func NewAaptAdapter(runner ToolRunner) *AaptAdapter {
	return &AaptAdapter{runner: runner}
}

// Inspect runs `aapt dump badging`, `aapt dump permissions` and
// `aapt dump xmltree ... AndroidManifest.xml` against the APK and assembles
// the parsed results.
func (a *AaptAdapter) Inspect(ctx context.Context, apk m.Path) (m.Inspection, error) {
	badging, err := a.dump(ctx, "badging", apk)
	if err != nil {
		return m.Inspection{}, fmt.Errorf("aapt badging failed: %w", err)
	}

	inspection := parseBadging(badging)

	// Permissions and the manifest tree are best-effort; badging alone is
	// enough for a minimal profile.
	if permissions, err := a.dump(ctx, "permissions", apk); err == nil {
		inspection.Permissions = mergePermissions(inspection.Permissions, parsePermissions(permissions))
	}

	if tree, err := a.runner.Run(ctx, "", "aapt", "dump", "xmltree", string(apk), "AndroidManifest.xml"); err == nil {
		inspection.Components = parseManifestTree(tree)
	}

	return inspection, nil
}

func (a *AaptAdapter) dump(ctx context.Context, what string, apk m.Path) (string, error) {
	output, err := a.runner.Run(ctx, "", "aapt", "dump", what, string(apk))
	if err == nil {
		return output, nil
	}

	output2, err2 := a.runner.Run(ctx, "", "aapt2", "dump", what, string(apk))
	if err2 != nil {
		return "", fmt.Errorf("aapt: %v, aapt2: %w (output: %s)", err, err2, strings.TrimSpace(output))
	}

	return output2, nil
}

// parseBadging extracts package identity and SDK levels from
// `aapt dump badging` output.
func parseBadging(output string) m.Inspection {
	var inspection m.Inspection

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "package:"):
			inspection.PackageName = quotedAttr(line, "name='")
			inspection.VersionCode = quotedAttr(line, "versionCode='")
			inspection.VersionName = quotedAttr(line, "versionName='")
		case strings.HasPrefix(line, "sdkVersion:"):
			inspection.MinSDK = trimmedValue(line)
		case strings.HasPrefix(line, "targetSdkVersion:"):
			inspection.TargetSDK = trimmedValue(line)
		case strings.HasPrefix(line, "application-debuggable"):
			inspection.Debuggable = true
		case strings.HasPrefix(line, "uses-permission:"):
			if name := quotedAttr(line, "name='"); name != "" {
				inspection.Permissions = append(inspection.Permissions, m.Permission{Name: name})
			}
		}
	}

	return inspection
}

// parsePermissions extracts permission names from `aapt dump permissions`.
func parsePermissions(output string) []m.Permission {
	var permissions []m.Permission

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "uses-permission:") && !strings.HasPrefix(line, "permission:") {
			continue
		}

		if name := quotedAttr(line, "name='"); name != "" {
			permissions = append(permissions, m.Permission{Name: name})
		}
	}

	return permissions
}

// parseManifestTree walks `aapt dump xmltree` output and collects declared
// components with their exported state. The tree format interleaves element
// lines ("E: activity") with attribute lines ("A: android:name(...)").
func parseManifestTree(output string) []m.Component {
	var (
		components []m.Component
		current    m.ComponentKind
		exported   bool
	)

	flushPending := func(name string) {
		if current == "" || name == "" {
			return
		}

		components = append(components, m.Component{
			Kind:     current,
			Name:     name,
			Exported: exported,
		})
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "E: activity "):
			current, exported = m.ComponentActivity, false
		case strings.HasPrefix(line, "E: service "):
			current, exported = m.ComponentService, false
		case strings.HasPrefix(line, "E: receiver "):
			current, exported = m.ComponentReceiver, false
		case strings.HasPrefix(line, "E: provider "):
			current, exported = m.ComponentProvider, false
		case strings.HasPrefix(line, "E: "):
			// Nested elements (intent-filter etc.) end the component header.
			current = ""
		case strings.Contains(line, "A: android:exported"):
			exported = strings.Contains(line, "0xffffffff") || strings.Contains(line, "=\"true\"")
		case strings.Contains(line, "A: android:name("):
			if idx := strings.Index(line, "=\""); idx != -1 {
				rest := line[idx+2:]
				if end := strings.Index(rest, "\""); end != -1 {
					flushPending(rest[:end])
					current = ""
				}
			}
		}
	}

	return components
}

// quotedAttr pulls the single-quoted value following marker out of line.
func quotedAttr(line, marker string) string {
	idx := strings.Index(line, marker)
	if idx == -1 {
		return ""
	}

	rest := line[idx+len(marker):]

	end := strings.Index(rest, "'")
	if end == -1 {
		return ""
	}

	return rest[:end]
}

func trimmedValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return ""
	}

	return strings.Trim(parts[1], " '\"")
}

func mergePermissions(a, b []m.Permission) []m.Permission {
	seen := make(map[string]bool, len(a))
	merged := make([]m.Permission, 0, len(a)+len(b))

	for _, p := range append(a, b...) {
		if seen[p.Name] {
			continue
		}

		seen[p.Name] = true
		merged = append(merged, p)
	}

	return merged
}
