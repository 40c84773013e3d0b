package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// ReportStore persists assessment reports so the `report` command can render
// them later.
type ReportStore interface {
	Save(root m.Path, report m.Report) error
	Load(root m.Path, runID string) (m.Report, error)
	LoadAll(root m.Path) ([]m.Report, error)
}

// FSReportStore keeps one YAML file per run under the output directory.
type FSReportStore struct{}

// NewFSReportStore constructs an FSReportStore.
func NewFSReportStore() *FSReportStore {
	return &FSReportStore{}
}

func reportPath(root m.Path, runID string) string {
	return filepath.Join(string(root), runID+".yaml")
}

// Save writes the report as <root>/<run-id>.yaml.
func (s *FSReportStore) Save(root m.Path, report m.Report) error {
	if err := os.MkdirAll(string(root), 0o750); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.RunID, err)
	}

	if err := os.WriteFile(reportPath(root, report.RunID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write report %s: %w", report.RunID, err)
	}

	return nil
}

// Load reads a single report by run ID.
func (s *FSReportStore) Load(root m.Path, runID string) (m.Report, error) {
	data, err := os.ReadFile(reportPath(root, runID))
	if err != nil {
		return m.Report{}, fmt.Errorf("failed to read report %s: %w", runID, err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("failed to parse report %s: %w", runID, err)
	}

	return report, nil
}

// LoadAll reads every report under root, newest first.
func (s *FSReportStore) LoadAll(root m.Path) ([]m.Report, error) {
	entries, err := os.ReadDir(string(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list reports directory: %w", err)
	}

	var reports []m.Report

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(string(root), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read report %s: %w", entry.Name(), err)
		}

		var report m.Report
		if err := yaml.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse report %s: %w", entry.Name(), err)
		}

		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Started.After(reports[j].Started)
	})

	return reports, nil
}
