package model

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so pipeline YAML accepts "30s"-style strings.
type Duration time.Duration

// MarshalYAML encodes a Duration in time.Duration string notation.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes a Duration from a string like "30s" or a raw
// nanosecond integer.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}

		*d = Duration(parsed)
	case int:
		*d = Duration(value)
	case int64:
		*d = Duration(value)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}

	return nil
}

// Pipeline is a YAML-defined sequence of shell stages, modeled on the CI job
// the harness replaces. Validation tags are enforced when the definition is
// loaded.
type Pipeline struct {
	Name    string            `yaml:"name" validate:"required"`
	Workdir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Stages  []Stage           `yaml:"stages" validate:"required,min=1,dive"`
}

// Stage is one named step of a pipeline.
//
// Critical stages fail the whole run when they fail; non-critical stages are
// best-effort and never do. AlwaysRun stages execute even after a critical
// failure has aborted the rest of the pipeline (the cleanup slot).
type Stage struct {
	Name      string   `yaml:"name" validate:"required"`
	Run       []string `yaml:"run" validate:"required,min=1"`
	Critical  bool     `yaml:"critical,omitempty"`
	AlwaysRun bool     `yaml:"always_run,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty"`
}

// StageStatus is the outcome of executing a single stage.
type StageStatus int

// Stage outcomes.
const (
	// StagePassed indicates every command in the stage exited zero.
	StagePassed StageStatus = iota
	// StageFailed indicates a command exited non-zero or timed out.
	StageFailed
	// StageSkipped indicates the stage never ran because an earlier critical
	// stage failed.
	StageSkipped
)

func (s StageStatus) String() string {
	switch s {
	case StagePassed:
		return "passed"
	case StageFailed:
		return "failed"
	case StageSkipped:
		return "skipped"
	}

	return "unknown"
}

// StageResult records the execution of one stage.
type StageResult struct {
	Stage    Stage
	Status   StageStatus
	Output   string
	Err      error
	Duration time.Duration
}

// RunResult is the outcome of a whole pipeline run.
type RunResult struct {
	Pipeline string
	Stages   []StageResult
	Failed   bool
	Started  time.Time
	Finished time.Time
}

// FailedStages returns the names of stages that failed, in order.
func (r RunResult) FailedStages() []string {
	var failed []string

	for _, sr := range r.Stages {
		if sr.Status == StageFailed {
			failed = append(failed, sr.Stage.Name)
		}
	}

	return failed
}
