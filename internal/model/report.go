package model

import "time"

// Report is the persisted record of one assessment run.
type Report struct {
	RunID      string     `yaml:"run_id"`
	Target     Path       `yaml:"target"`
	TargetHash string     `yaml:"target_hash,omitempty"`
	Started    time.Time  `yaml:"started"`
	Finished   time.Time  `yaml:"finished"`
	Findings   []Finding  `yaml:"findings,omitempty"`
	Artifacts  []Artifact `yaml:"artifacts,omitempty"`
	ToolLog    []string   `yaml:"tool_log,omitempty"`
}

// Summary aggregates finding counts for display.
type Summary struct {
	Total      int
	BySeverity map[Severity]int
}

// Summarize counts the report's findings by severity.
func (r Report) Summarize() Summary {
	summary := Summary{
		Total:      len(r.Findings),
		BySeverity: make(map[Severity]int),
	}

	for _, f := range r.Findings {
		summary.BySeverity[f.Severity]++
	}

	return summary
}

// Worst returns the highest severity present, or SeverityInfo when the report
// is clean.
func (r Report) Worst() Severity {
	worst := SeverityInfo

	for _, f := range r.Findings {
		if f.Severity > worst {
			worst = f.Severity
		}
	}

	return worst
}
