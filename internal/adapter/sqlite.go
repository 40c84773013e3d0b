package adapter

import (
	"context"
	"fmt"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// SQLiteDumpAdapter renders pulled application databases to SQL text. The
// rows are inspected by the analyst, not by the harness, so the sqlite3 shell
// is invoked rather than a driver being linked in.
type SQLiteDumpAdapter interface {
	Dump(ctx context.Context, database m.Path) (string, error)
}

// LocalSQLiteDumpAdapter shells out to sqlite3.
type LocalSQLiteDumpAdapter struct {
	runner ToolRunner
}

// NewLocalSQLiteDumpAdapter constructs a LocalSQLiteDumpAdapter.
func NewLocalSQLiteDumpAdapter(runner ToolRunner) *LocalSQLiteDumpAdapter {
	return &LocalSQLiteDumpAdapter{runner: runner}
}

// Dump runs `sqlite3 <db> .dump` and returns the SQL text.
func (a *LocalSQLiteDumpAdapter) Dump(ctx context.Context, database m.Path) (string, error) {
	output, err := a.runner.Run(ctx, "", "sqlite3", string(database), ".dump")
	if err != nil {
		return "", fmt.Errorf("sqlite3 dump of %s failed: %w", database, err)
	}

	return output, nil
}
