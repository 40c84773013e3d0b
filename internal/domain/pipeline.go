package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"droidprobe.dev/pkg/droidprobe/internal/adapter"
	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// DefaultStageTimeout bounds a stage that does not declare its own timeout.
const DefaultStageTimeout = 10 * time.Minute

// PipelineRunner executes a pipeline definition.
//
// The contract mirrors the CI job the definition format was lifted from:
//   - a critical stage that fails marks the whole run failed and skips every
//     later stage except always_run stages;
//   - a non-critical stage that fails is recorded but never fails the run;
//   - always_run stages execute on every run regardless of earlier outcomes.
type PipelineRunner interface {
	Run(ctx context.Context, pipeline m.Pipeline) (m.RunResult, error)
}

type pipelineRunner struct {
	runner   adapter.ToolRunner
	onStage  func(result m.StageResult)
	validate *validator.Validate
}

// PipelineOption configures a pipeline runner.
type PipelineOption func(*pipelineRunner)

// WithStageCallback reports each stage result as it completes.
func WithStageCallback(fn func(result m.StageResult)) PipelineOption {
	return func(r *pipelineRunner) {
		r.onStage = fn
	}
}

// NewPipelineRunner constructs a PipelineRunner over the tool runner.
func NewPipelineRunner(runner adapter.ToolRunner, options ...PipelineOption) PipelineRunner {
	r := &pipelineRunner{
		runner:   runner,
		validate: validator.New(),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// ParsePipeline loads a pipeline definition from YAML and validates it.
func ParsePipeline(data []byte) (m.Pipeline, error) {
	var pipeline m.Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return m.Pipeline{}, fmt.Errorf("failed to parse pipeline: %w", err)
	}

	if err := validator.New().Struct(pipeline); err != nil {
		return m.Pipeline{}, fmt.Errorf("invalid pipeline: %w", err)
	}

	return pipeline, nil
}

// Run executes the pipeline's stages in order.
func (r *pipelineRunner) Run(ctx context.Context, pipeline m.Pipeline) (m.RunResult, error) {
	if err := r.validate.Struct(pipeline); err != nil {
		return m.RunResult{}, fmt.Errorf("invalid pipeline: %w", err)
	}

	result := m.RunResult{
		Pipeline: pipeline.Name,
		Started:  time.Now(),
	}

	env := make([]string, 0, len(pipeline.Env))
	for key, value := range pipeline.Env {
		env = append(env, key+"="+value)
	}

	aborted := false

	for _, stage := range pipeline.Stages {
		if aborted && !stage.AlwaysRun {
			result.Stages = append(result.Stages, r.record(m.StageResult{
				Stage:  stage,
				Status: m.StageSkipped,
			}))

			continue
		}

		stageResult := r.runStage(ctx, pipeline.Workdir, env, stage)
		result.Stages = append(result.Stages, r.record(stageResult))

		if stageResult.Status == m.StageFailed && stage.Critical {
			result.Failed = true
			aborted = true

			slog.Error("critical stage failed, aborting pipeline",
				"pipeline", pipeline.Name, "stage", stage.Name, "error", stageResult.Err)
		}
	}

	result.Finished = time.Now()

	slog.Info("pipeline finished",
		"pipeline", pipeline.Name,
		"failed", result.Failed,
		"stages", len(result.Stages),
		"duration", result.Finished.Sub(result.Started))

	return result, nil
}

// runStage runs every command of a stage through `sh -c`, stopping at the
// first failure.
func (r *pipelineRunner) runStage(ctx context.Context, workdir string, env []string, stage m.Stage) m.StageResult {
	timeout := time.Duration(stage.Timeout)
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}

	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()

	var combined string

	for _, command := range stage.Run {
		slog.Debug("running stage command", "stage", stage.Name, "command", command)

		output, err := r.runner.RunShell(stageCtx, workdir, command, env)
		combined += output

		if err != nil {
			return m.StageResult{
				Stage:    stage,
				Status:   m.StageFailed,
				Output:   combined,
				Err:      fmt.Errorf("command %q failed: %w", command, err),
				Duration: time.Since(started),
			}
		}
	}

	return m.StageResult{
		Stage:    stage,
		Status:   m.StagePassed,
		Output:   combined,
		Duration: time.Since(started),
	}
}

func (r *pipelineRunner) record(result m.StageResult) m.StageResult {
	if r.onStage != nil {
		r.onStage(result)
	}

	return result
}

// DefaultPipeline is the stock definition written by `droidprobe init
// --pipeline`. It reproduces the CI job for the companion Python application:
// dependency install and tests are the only stages allowed to fail the run,
// lint/coverage/build are best-effort, and the virtualenv is removed at the
// end of every run no matter what happened before.
func DefaultPipeline() m.Pipeline {
	return m.Pipeline{
		Name: "python-app-ci",
		Stages: []m.Stage{
			{
				Name: "checkout",
				Run:  []string{"echo 'using current working copy'"},
			},
			{
				Name: "venv",
				Run:  []string{"python3 -m venv venv"},
			},
			{
				Name:     "install",
				Run:      []string{"venv/bin/pip install -r requirements.txt"},
				Critical: true,
			},
			{
				Name: "lint",
				Run: []string{
					"venv/bin/flake8 app.py --count --select=E9,F63,F7,F82 --show-source --statistics",
					"venv/bin/flake8 app.py --count --exit-zero --max-complexity=10 --max-line-length=127 --statistics",
				},
			},
			{
				Name:     "test",
				Run:      []string{"venv/bin/pytest tests/ -v"},
				Critical: true,
			},
			{
				Name: "coverage",
				Run: []string{
					"venv/bin/coverage run -m pytest tests/",
					"venv/bin/coverage report",
				},
			},
			{
				Name: "build",
				Run:  []string{"echo 'build placeholder: nothing to package'"},
			},
			{
				Name:      "cleanup",
				Run:       []string{"rm -rf venv"},
				AlwaysRun: true,
			},
		},
	}
}
