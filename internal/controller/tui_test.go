package controller

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

func manyFindingsReport(count int) m.Report {
	report := m.Report{RunID: "run-1", Target: "app.apk"}

	for i := 0; i < count; i++ {
		report.Findings = append(report.Findings, m.Finding{
			RuleID:   "net-cleartext-endpoint",
			Severity: m.SeverityMedium,
			File:     m.Path(fmt.Sprintf("file%03d.smali", i)),
			Line:     i + 1,
			Excerpt:  "http://api.example.com",
		})
	}

	return report
}

func TestFindingsModel_NeedsPagination(t *testing.T) {
	model := newFindingsModel(manyFindingsReport(5))
	// No window size yet: never paginate.
	assert.False(t, model.needsPagination())

	model.height = 40
	assert.False(t, model.needsPagination())

	model = newFindingsModel(manyFindingsReport(100))
	model.height = 24
	assert.True(t, model.needsPagination())
}

func TestFindingsModel_ItemsPerPage(t *testing.T) {
	model := newFindingsModel(manyFindingsReport(10))
	assert.Equal(t, 10, model.itemsPerPage(), "default before first WindowSizeMsg")

	model.height = 28
	assert.Equal(t, 10, model.itemsPerPage())

	model.height = 5
	assert.Equal(t, 1, model.itemsPerPage(), "tiny terminals still show one finding")
}

func TestFindingsModel_MaxOffsetClamping(t *testing.T) {
	model := newFindingsModel(manyFindingsReport(30))
	model.height = 28 // 10 findings per page

	assert.Equal(t, 20, model.maxOffset())

	small := newFindingsModel(manyFindingsReport(3))
	small.height = 28
	assert.Equal(t, 0, small.maxOffset())
}

func TestFindingsModel_ViewShowsSummary(t *testing.T) {
	model := newFindingsModel(manyFindingsReport(2))

	view := model.View()
	assert.Contains(t, view, "file000.smali")
	assert.Contains(t, view, "Total: 2 finding(s)")
}

func TestFindingsModel_ViewEmptyReport(t *testing.T) {
	model := newFindingsModel(m.Report{RunID: "run-1"})

	assert.Contains(t, model.View(), "no findings")
}
