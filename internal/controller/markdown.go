package controller

import (
	"fmt"
	"sort"
	"strings"
	"time"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// RenderMarkdown renders stored reports as a markdown document suitable for
// pasting into an assessment write-up.
func RenderMarkdown(reports []m.Report) []byte {
	var b strings.Builder

	b.WriteString("# Assessment Report\n\n")
	fmt.Fprintf(&b, "Generated %s, %d run(s).\n", time.Now().Format(time.DateTime), len(reports))

	for _, report := range reports {
		renderRunMarkdown(&b, report)
	}

	return []byte(b.String())
}

func renderRunMarkdown(b *strings.Builder, report m.Report) {
	fmt.Fprintf(b, "\n## Run %s\n\n", report.RunID)
	fmt.Fprintf(b, "- Target: `%s`\n", report.Target)

	if report.TargetHash != "" {
		fmt.Fprintf(b, "- SHA-256: `%s`\n", report.TargetHash)
	}

	fmt.Fprintf(b, "- Started: %s\n", report.Started.Format(time.RFC3339))
	fmt.Fprintf(b, "- Finished: %s\n", report.Finished.Format(time.RFC3339))

	summary := report.Summarize()
	fmt.Fprintf(b, "- Findings: %d (worst: %s)\n", summary.Total, report.Worst())

	if len(report.Findings) > 0 {
		b.WriteString("\n### Findings\n\n")
		b.WriteString("| Severity | Rule | Location | Excerpt |\n")
		b.WriteString("|---|---|---|---|\n")

		sorted := make([]m.Finding, len(report.Findings))
		copy(sorted, report.Findings)

		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Severity > sorted[j].Severity
		})

		for _, finding := range sorted {
			fmt.Fprintf(b, "| %s | %s | `%s:%d` | `%s` |\n",
				finding.Severity, finding.RuleID,
				finding.File, finding.Line,
				escapeMarkdownCell(finding.Excerpt))
		}
	}

	if len(report.Artifacts) > 0 {
		b.WriteString("\n### Artifacts\n\n")

		for _, artifact := range report.Artifacts {
			fmt.Fprintf(b, "- **%s** `%s` (%s)\n", artifact.Kind, artifact.Path, artifact.Origin)
		}
	}

	if len(report.ToolLog) > 0 {
		b.WriteString("\n### Tool log\n\n```\n")

		for _, entry := range report.ToolLog {
			fmt.Fprintf(b, "%s\n", entry)
		}

		b.WriteString("```\n")
	}
}

// escapeMarkdownCell keeps excerpts from breaking the table layout.
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "`", "'")

	return strings.ReplaceAll(s, "\n", " ")
}
