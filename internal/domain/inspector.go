package domain

import (
	"context"
	"fmt"
	"log/slog"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// Inspector produces the static profile of an APK without decompiling it.
type Inspector interface {
	Inspect(ctx context.Context, apk m.Path) (m.Inspection, error)
}

type inspector struct {
	badging adapter.BadgingAdapter
}

// NewInspector constructs an Inspector over the aapt adapter.
func NewInspector(badging adapter.BadgingAdapter) Inspector {
	return &inspector{badging: badging}
}

func (i *inspector) Inspect(ctx context.Context, apk m.Path) (m.Inspection, error) {
	inspection, err := i.badging.Inspect(ctx, apk)
	if err != nil {
		slog.Error("inspection failed", "apk", apk, "error", err)
		return m.Inspection{}, fmt.Errorf("inspection of %s failed: %w", apk, err)
	}

	slog.Info("inspection complete",
		"apk", apk,
		"package", inspection.PackageName,
		"permissions", len(inspection.Permissions),
		"exported", len(inspection.ExportedComponents()))

	return inspection, nil
}
