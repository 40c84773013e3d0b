package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// ArtifactFSAdapter abstracts filesystem operations for the artifact
// directory so domain logic can be tested without touching the disk.
type ArtifactFSAdapter interface {
	// EnsureRunDir creates (if needed) and returns the directory for one
	// assessment run under the output root.
	EnsureRunDir(root m.Path, runID string) (m.Path, error)

	// CreateTempDir creates a scratch directory for a decompiled tree.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and its contents.
	RemoveAll(path m.Path) error

	// WriteFile writes content to path with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalArtifactFS is the os-backed implementation.
type LocalArtifactFS struct{}

// NewLocalArtifactFS constructs a LocalArtifactFS.
func NewLocalArtifactFS() *LocalArtifactFS {
	return &LocalArtifactFS{}
}

// EnsureRunDir creates the per-run artifact directory.
func (a *LocalArtifactFS) EnsureRunDir(root m.Path, runID string) (m.Path, error) {
	dir := filepath.Join(string(root), runID)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	return m.Path(dir), nil
}

// CreateTempDir creates a scratch directory in the system temp location.
func (a *LocalArtifactFS) CreateTempDir(pattern string) (m.Path, error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	return m.Path(dir), nil
}

// RemoveAll removes a directory tree.
func (a *LocalArtifactFS) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// WriteFile writes content to path.
func (a *LocalArtifactFS) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalArtifactFS) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalArtifactFS) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// JoinPath joins path elements into a single path.
func (a *LocalArtifactFS) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
