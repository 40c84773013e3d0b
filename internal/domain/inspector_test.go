package domain

import (
	"context"
	"errors"
	"testing"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

type fakeBadging struct {
	inspection m.Inspection
	err        error
}

func (f *fakeBadging) Inspect(_ context.Context, _ m.Path) (m.Inspection, error) {
	return f.inspection, f.err
}

func TestInspector_Inspect(t *testing.T) {
	badging := &fakeBadging{inspection: m.Inspection{PackageName: "com.example.vault"}}

	inspection, err := NewInspector(badging).Inspect(context.Background(), "app.apk")
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}

	if inspection.PackageName != "com.example.vault" {
		t.Errorf("unexpected package %q", inspection.PackageName)
	}
}

func TestInspector_InspectError(t *testing.T) {
	badging := &fakeBadging{err: errors.New("aapt missing")}

	_, err := NewInspector(badging).Inspect(context.Background(), "app.apk")
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}
