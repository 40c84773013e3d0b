package adapter

import (
	"context"
	"strings"
)

// call records one invocation routed through the fake runner.
type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner implements ToolRunner without touching the host toolchain.
// Outputs and errors are keyed by a substring of the full command line.
type fakeRunner struct {
	calls   []call
	outputs map[string]string
	errors  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: map[string]string{},
		errors:  map[string]error{},
	}
}

func (f *fakeRunner) lookup(commandLine string) (string, error) {
	for key, err := range f.errors {
		if strings.Contains(commandLine, key) {
			return f.outputs[key], err
		}
	}

	for key, output := range f.outputs {
		if strings.Contains(commandLine, key) {
			return output, nil
		}
	}

	return "", nil
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})

	return f.lookup(name + " " + strings.Join(args, " "))
}

func (f *fakeRunner) RunShell(_ context.Context, dir, command string, _ []string) (string, error) {
	f.calls = append(f.calls, call{dir: dir, name: "sh", args: []string{"-c", command}})

	return f.lookup(command)
}

func (f *fakeRunner) commandLines() []string {
	lines := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		lines = append(lines, strings.TrimSpace(c.name+" "+strings.Join(c.args, " ")))
	}

	return lines
}
