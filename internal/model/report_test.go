package model

import "testing"

func TestReportSummarize(t *testing.T) {
	report := Report{Findings: []Finding{
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityInfo},
	}}

	summary := report.Summarize()

	if summary.Total != 3 {
		t.Errorf("total = %d, want 3", summary.Total)
	}

	if summary.BySeverity[SeverityHigh] != 2 || summary.BySeverity[SeverityInfo] != 1 {
		t.Errorf("unexpected severity counts: %v", summary.BySeverity)
	}
}

func TestReportWorst(t *testing.T) {
	clean := Report{}
	if clean.Worst() != SeverityInfo {
		t.Errorf("clean report worst = %v, want info", clean.Worst())
	}

	report := Report{Findings: []Finding{
		{Severity: SeverityLow},
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
	}}

	if report.Worst() != SeverityCritical {
		t.Errorf("worst = %v, want critical", report.Worst())
	}
}

func TestRunResultFailedStages(t *testing.T) {
	result := RunResult{Stages: []StageResult{
		{Stage: Stage{Name: "install"}, Status: StageFailed},
		{Stage: Stage{Name: "lint"}, Status: StagePassed},
		{Stage: Stage{Name: "test"}, Status: StageFailed},
		{Stage: Stage{Name: "build"}, Status: StageSkipped},
	}}

	failed := result.FailedStages()

	if len(failed) != 2 || failed[0] != "install" || failed[1] != "test" {
		t.Errorf("unexpected failed stages: %v", failed)
	}
}

func TestPermissionDangerous(t *testing.T) {
	if !(Permission{Name: "android.permission.ACCESS_FINE_LOCATION"}).Dangerous() {
		t.Errorf("location permission should be dangerous")
	}

	if (Permission{Name: "android.permission.INTERNET"}).Dangerous() {
		t.Errorf("internet permission should not be dangerous")
	}
}
