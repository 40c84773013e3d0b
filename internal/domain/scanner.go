package domain

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
	"droidprobe.dev/pkg/droidprobe/pkg"
)

// maxExcerptLen bounds how much of a matched line lands in a finding.
const maxExcerptLen = 160

// scannableExtensions are the file types worth pattern matching in a
// decompiled tree. Binary resources are skipped.
var scannableExtensions = map[string]bool{
	".smali":      true,
	".java":       true,
	".kt":         true,
	".xml":        true,
	".json":       true,
	".properties": true,
	".js":         true,
	".txt":        true,
	".yml":        true,
	".yaml":       true,
	".gradle":     true,
}

// Scanner applies a compiled rule set to a decompiled source tree.
type Scanner interface {
	Scan(ctx context.Context, root m.Path, rules RuleSet, workers int) ([]m.Finding, error)
}

// scanner streams file paths through an errgroup worker pool. Findings
// overflow to a disk spill so huge trees do not pin memory.
type scanner struct {
	// spillThreshold is the in-memory finding bound before spilling.
	spillThreshold int
	progress       func(found int)
}

// NewScanner constructs a Scanner with the default spill threshold.
func NewScanner() Scanner {
	return &scanner{spillThreshold: 4096}
}

// NewScannerWithProgress constructs a Scanner that reports the running
// finding count through fn while the scan is in flight.
func NewScannerWithProgress(fn func(found int)) Scanner {
	return &scanner{spillThreshold: 4096, progress: fn}
}

// Scan walks root and applies every rule to every scannable file using the
// given number of workers.
func (s *scanner) Scan(ctx context.Context, root m.Path, rules RuleSet, workers int) ([]m.Finding, error) {
	if workers < 1 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	paths := make(chan m.Path, workers)
	findings := make(chan m.Finding, workers)

	// Walker feeds the worker pool.
	group.Go(func() error {
		defer close(paths)

		return filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.IsDir() || !scannableExtensions[filepath.Ext(path)] {
				return nil
			}

			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case paths <- m.Path(path):
				return nil
			}
		})
	})

	// Workers apply the rules.
	workerGroup, workerCtx := errgroup.WithContext(groupCtx)
	found := 0

	for i := 0; i < workers; i++ {
		workerGroup.Go(func() error {
			for {
				select {
				case <-workerCtx.Done():
					return workerCtx.Err()
				case path, ok := <-paths:
					if !ok {
						return nil
					}

					if err := scanFile(workerCtx, path, rules, findings); err != nil {
						return err
					}
				}
			}
		})
	}

	// Close the findings channel once every worker has drained.
	group.Go(func() error {
		defer close(findings)
		return workerGroup.Wait()
	})

	// Collector keeps a bounded slice and spills the rest to disk. It runs
	// inside the group so a collection error cancels the walker and workers
	// instead of leaving them blocked on the findings channel.
	var (
		collected []m.Finding
		spill     pkg.Spill[m.Finding]
	)

	defer func() {
		if spill != nil {
			if err := spill.Close(); err != nil {
				slog.Error("failed to close finding spill", "error", err)
			}
		}
	}()

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case finding, ok := <-findings:
				if !ok {
					return nil
				}

				found++

				if s.progress != nil {
					s.progress(found)
				}

				if spill == nil && len(collected) >= s.spillThreshold {
					var err error

					spill, err = pkg.NewSpill[m.Finding]("")
					if err != nil {
						return err
					}

					slog.Debug("spilling findings to disk", "path", spill.Path())
				}

				if spill != nil {
					if err := spill.Append(finding); err != nil {
						return err
					}

					continue
				}

				collected = append(collected, finding)
			}
		}
	})

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	if spill != nil {
		err := spill.Range(func(_ uint64, finding m.Finding) error {
			collected = append(collected, finding)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read spilled findings: %w", err)
		}
	}

	return collected, nil
}

// scanFile applies every applicable rule line by line.
func scanFile(ctx context.Context, path m.Path, rules RuleSet, out chan<- m.Finding) error {
	file, err := os.Open(string(path))
	if err != nil {
		slog.Error("failed to open file for scan", "path", path, "error", err)
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	applicable := make([]*Rule, 0, len(rules.Rules))

	for i := range rules.Rules {
		if rules.Rules[i].AppliesTo(path) {
			applicable = append(applicable, &rules.Rules[i])
		}
	}

	if len(applicable) == 0 {
		return nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		for _, rule := range applicable {
			match := rule.Match(line)
			if match == "" {
				continue
			}

			finding := m.Finding{
				ID:       uuid.NewString(),
				RuleID:   rule.ID,
				Severity: rule.Severity,
				Category: rule.Category,
				File:     path,
				Line:     lineNo,
				Excerpt:  excerpt(match),
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- finding:
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Long minified lines or binary junk; skip the file, keep the scan.
		slog.Warn("stopped scanning file early", "path", path, "error", err)
	}

	return nil
}

func excerpt(match string) string {
	match = strings.TrimSpace(match)
	if len(match) > maxExcerptLen {
		return match[:maxExcerptLen]
	}

	return match
}
