package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func severityStyle(severity m.Severity) lipgloss.Style {
	switch severity {
	case m.SeverityCritical:
		return criticalStyle
	case m.SeverityHigh:
		return highStyle
	case m.SeverityMedium:
		return mediumStyle
	case m.SeverityLow:
		return lowStyle
	default:
		return infoStyle
	}
}

// TUI implements UI using Bubble Tea for interactive display. Long finding
// lists get a scrollable alt-screen view, everything else prints directly.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	spinner *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress spinner. It stays up until Close.
func (p *TUI) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	model := newProgressModel()
	p.spinner = tea.NewProgram(model, tea.WithOutput(p.output))
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		_, _ = p.spinner.Run()
	}()

	return nil
}

// Progress reports the running finding count to the spinner.
func (p *TUI) Progress(found int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner != nil {
		p.spinner.Send(progressMsg{found: found})
	}
}

// Close stops the progress spinner.
func (p *TUI) Close(_ context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner == nil {
		return
	}

	p.spinner.Send(stopMsg{})
	<-p.done
	p.spinner = nil
}

// DisplayMessage prints a single line.
func (p *TUI) DisplayMessage(ctx context.Context, message string) {
	if err := ctx.Err(); err != nil {
		return
	}

	fmt.Fprintf(p.output, "%s\n", message)
}

// DisplayInspection renders the static profile of an APK.
func (p *TUI) DisplayInspection(ctx context.Context, inspection m.Inspection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(fmt.Sprintf("📦 %s", inspection.PackageName)))
	fmt.Fprintf(&b, "  Version: %s (%s)\n", inspection.VersionName, inspection.VersionCode)
	fmt.Fprintf(&b, "  SDK: min %s, target %s\n", inspection.MinSDK, inspection.TargetSDK)

	if inspection.Debuggable {
		fmt.Fprintf(&b, "  %s\n", failStyle.Render("⚠ debuggable build"))
	}

	fmt.Fprintf(&b, "\n  Permissions (%d):\n", len(inspection.Permissions))

	for _, perm := range inspection.Permissions {
		if perm.Dangerous() {
			fmt.Fprintf(&b, "    %s\n", highStyle.Render("! "+perm.Name))
		} else {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render(perm.Name))
		}
	}

	fmt.Fprintf(&b, "\n  Components (%d, %d exported):\n",
		len(inspection.Components), len(inspection.ExportedComponents()))

	for _, component := range inspection.Components {
		line := fmt.Sprintf("[%s] %s", component.Kind, component.Name)
		if component.Exported {
			fmt.Fprintf(&b, "    %s\n", mediumStyle.Render("> "+line))
		} else {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render("  "+line))
		}
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// DisplayReport shows one report's findings, paginated when the list does not
// fit on screen.
func (p *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newFindingsModel(report)

	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, model.View())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// DisplayReports prints the run summary table.
func (p *TUI) DisplayReports(ctx context.Context, reports []m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("🗂  Stored runs"))

	for _, report := range reports {
		worst := report.Worst()

		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			shortID(report.RunID),
			report.Started.Format(time.DateTime),
			severityStyle(worst).Render(fmt.Sprintf("%-8s", worst)),
			dimStyle.Render(string(report.Target)))
	}

	fmt.Fprintf(&b, "\n  %d run(s)\n", len(reports))

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// DisplayDevices prints the adb device list.
func (p *TUI) DisplayDevices(ctx context.Context, devices []m.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("📱 Devices"))

	if len(devices) == 0 {
		b.WriteString(dimStyle.Render("  no devices attached") + "\n")
	}

	for _, device := range devices {
		state := passStyle.Render(device.State)
		if device.State != "device" {
			state = failStyle.Render(device.State)
		}

		fmt.Fprintf(&b, "  %s  %s  %s %s\n", device.Serial, state, device.Model, dimStyle.Render(device.Product))
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// DisplayStageResult prints one stage outcome as it completes.
func (p *TUI) DisplayStageResult(ctx context.Context, result m.StageResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	switch result.Status {
	case m.StagePassed:
		fmt.Fprintf(p.output, "  %s %s %s\n",
			passStyle.Render("✓"), result.Stage.Name,
			dimStyle.Render(result.Duration.Round(time.Millisecond).String()))
	case m.StageFailed:
		fmt.Fprintf(p.output, "  %s %s: %v\n", failStyle.Render("✗"), result.Stage.Name, result.Err)
	case m.StageSkipped:
		fmt.Fprintf(p.output, "  %s\n", dimStyle.Render("- "+result.Stage.Name+" (skipped)"))
	}
}

// DisplayPipelineRun prints the final pipeline summary.
func (p *TUI) DisplayPipelineRun(ctx context.Context, result m.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("Pipeline %s", result.Pipeline)))

	for _, sr := range result.Stages {
		var status string

		switch sr.Status {
		case m.StagePassed:
			status = passStyle.Render("passed ")
		case m.StageFailed:
			status = failStyle.Render("failed ")
		case m.StageSkipped:
			status = dimStyle.Render("skipped")
		}

		fmt.Fprintf(&b, "  %-20s %s %s\n", sr.Stage.Name, status,
			dimStyle.Render(sr.Duration.Round(time.Millisecond).String()))
	}

	if result.Failed {
		fmt.Fprintf(&b, "\n%s (stages: %v)\n", failStyle.Render("Result: FAILED"), result.FailedStages())
	} else {
		fmt.Fprintf(&b, "\n%s\n", passStyle.Render("Result: passed"))
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// progressMsg updates the running finding count shown next to the spinner.
type progressMsg struct {
	found int
}

// stopMsg shuts the spinner program down.
type stopMsg struct{}

// progressModel is the Bubble Tea model behind the scan spinner.
type progressModel struct {
	spinner spinner.Model
	found   int
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return progressModel{spinner: s}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		pm.found = msg.found
		return pm, nil

	case stopMsg:
		return pm, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return pm, tea.Quit
		}

		return pm, nil
	}

	var cmd tea.Cmd
	pm.spinner, cmd = pm.spinner.Update(msg)

	return pm, cmd
}

func (pm progressModel) View() string {
	return fmt.Sprintf(" %s scanning sources... %d finding(s)", pm.spinner.View(), pm.found)
}

// findingsModel represents the Bubble Tea model for a report's finding list.
type findingsModel struct {
	report   m.Report
	height   int
	width    int
	offset   int // current scroll offset
	quitting bool
}

func newFindingsModel(report m.Report) findingsModel {
	return findingsModel{report: report}
}

func (fm findingsModel) Init() tea.Cmd {
	return nil
}

func (fm findingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fm.height = msg.Height
		fm.width = msg.Width

		return fm, nil

	case tea.KeyMsg:
		return fm.handleKeyPress(msg)
	}

	return fm, nil
}

//nolint:cyclop,exhaustive // Key handling requires multiple cases for UI navigation
func (fm findingsModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		fm.quitting = true
		return fm, tea.Quit
	default:
		// Handle other key types in the string switch below
	}

	switch msg.String() {
	case "q":
		fm.quitting = true
		return fm, tea.Quit

	case "down", "j":
		fm.offset++

		maxOffset := fm.maxOffset()
		if fm.offset > maxOffset {
			fm.offset = maxOffset
		}

		return fm, nil

	case "up", "k":
		fm.offset--
		if fm.offset < 0 {
			fm.offset = 0
		}

		return fm, nil

	case "g", "home":
		fm.offset = 0

		return fm, nil

	case "G", "end":
		fm.offset = fm.maxOffset()

		return fm, nil

	case "d", "pgdown":
		fm.offset += fm.itemsPerPage()

		maxOffset := fm.maxOffset()
		if fm.offset > maxOffset {
			fm.offset = maxOffset
		}

		return fm, nil

	case "u", "pgup":
		fm.offset -= fm.itemsPerPage()
		if fm.offset < 0 {
			fm.offset = 0
		}

		return fm, nil
	}

	return fm, nil
}

// itemsPerPage calculates how many findings fit on screen. Each finding takes
// two display lines (location + excerpt).
func (fm findingsModel) itemsPerPage() int {
	if fm.height == 0 {
		return 10 // Default
	}
	// Reserve space for:
	// - Title + run line: 3 lines
	// - Summary: 2 lines
	// - Footer: 3 lines (empty + page + help)
	// Total: 8 lines
	reserved := 8

	available := (fm.height - reserved) / 2
	if available < 1 {
		return 1
	}

	return available
}

// maxOffset returns the maximum scroll offset.
func (fm findingsModel) maxOffset() int {
	itemCount := len(fm.report.Findings)

	perPage := fm.itemsPerPage()
	if perPage <= 0 {
		return 0
	}

	maxOff := itemCount - perPage
	if maxOff < 0 {
		return 0
	}

	return maxOff
}

// needsPagination returns true if the list is too large to fit on screen.
func (fm findingsModel) needsPagination() bool {
	total := len(fm.report.Findings)
	if total == 0 {
		return false
	}

	return total > fm.itemsPerPage() && fm.height > 0
}

func (fm findingsModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render("🔍 Findings"))
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("run %s  target %s", shortID(fm.report.RunID), fm.report.Target)))

	if len(fm.report.Findings) == 0 {
		b.WriteString("  no findings\n")
		return b.String()
	}

	fm.renderFindingList(&b)

	return b.String()
}

func (fm findingsModel) renderFindingList(b *strings.Builder) {
	findings := fm.report.Findings
	total := len(findings)

	itemsPerPage := fm.itemsPerPage()
	needsPagination := total > itemsPerPage && fm.height > 0

	start := fm.offset

	end := start + itemsPerPage
	if end > total {
		end = total
	}

	if start >= total {
		start = total - 1
		if start < 0 {
			start = 0
		}
	}

	visible := findings
	if needsPagination {
		visible = findings[start:end]
	}

	for _, finding := range visible {
		fmt.Fprintf(b, "  %s %s %s:%d\n      %s\n",
			severityStyle(finding.Severity).Render(fmt.Sprintf("%-8s", finding.Severity)),
			finding.RuleID,
			finding.File, finding.Line,
			dimStyle.Render(finding.Excerpt))
	}

	summary := fm.report.Summarize()
	fmt.Fprintf(b, "\n  📊 Total: %d finding(s), worst %s\n", summary.Total, fm.report.Worst())

	if needsPagination {
		b.WriteString("\n")

		currentPage := (fm.offset / itemsPerPage) + 1
		totalPages := (total + itemsPerPage - 1) / itemsPerPage
		fmt.Fprintf(b, "  Page %d/%d | Showing %d-%d of %d\n",
			currentPage, totalPages, start+1, end, total)
		b.WriteString("  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit\n")
	}
}
