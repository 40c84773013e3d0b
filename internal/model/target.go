// Package model defines the data structures shared across the droidprobe CLI.
package model

// Path represents a file system path.
type Path string

// Device represents a connected Android device as reported by adb.
type Device struct {
	Serial  string
	State   string // device, offline, unauthorized
	Model   string
	Product string
}

// ArtifactKind categorises collected outputs.
type ArtifactKind string

const (
	// ArtifactSourceTree is a decompiled source directory.
	ArtifactSourceTree ArtifactKind = "source-tree"
	// ArtifactHookLog is captured instrumentation output.
	ArtifactHookLog ArtifactKind = "hook-log"
	// ArtifactFile is a file pulled from a device.
	ArtifactFile ArtifactKind = "file"
	// ArtifactDatabaseDump is a SQL dump of a pulled database.
	ArtifactDatabaseDump ArtifactKind = "db-dump"
	// ArtifactScript is a generated instrumentation script.
	ArtifactScript ArtifactKind = "script"
)

// Artifact is an opaque output produced by an external tool and kept for the
// analyst. The harness never interprets artifact contents beyond bookkeeping.
type Artifact struct {
	Kind   ArtifactKind `yaml:"kind"`
	Path   Path         `yaml:"path"`
	Origin string       `yaml:"origin"` // tool invocation that produced it
	Remote string       `yaml:"remote,omitempty"`
}
