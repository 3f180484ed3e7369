// Package workspace manages the data root where the assistant keeps its
// state: scheduled task storage, synthesized audio, and conversation
// sessions. Relative paths from plugins resolve against this root and may
// never escape it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SubdirCron holds scheduled task storage.
	SubdirCron = "cron"
	// SubdirVoice holds synthesized speech output.
	SubdirVoice = "voice"
	// SubdirSessions holds persisted conversation sessions.
	SubdirSessions = "sessions"
)

// Workspace is the expanded data root.
type Workspace struct {
	path     string
	basePath string // original path from config, may contain ~
}

func New(path string) *Workspace {
	return &Workspace{
		path:     expandHome(path),
		basePath: path,
	}
}

func (w *Workspace) Path() string {
	return w.path
}

func (w *Workspace) BasePath() string {
	return w.basePath
}

// EnsureDir creates the workspace root and its standard subdirectories.
func (w *Workspace) EnsureDir() error {
	if w.path == "" {
		return fmt.Errorf("workspace path is empty")
	}

	info, err := os.Stat(w.path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("workspace path exists but is not a directory: %s", w.path)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(w.path, 0755); err != nil {
			return fmt.Errorf("failed to create workspace directory %s: %w", w.path, err)
		}
	} else {
		return fmt.Errorf("failed to access workspace path %s: %w", w.path, err)
	}

	for _, sub := range []string{SubdirCron, SubdirVoice, SubdirSessions} {
		if err := os.MkdirAll(filepath.Join(w.path, sub), 0755); err != nil {
			return fmt.Errorf("failed to create workspace subdirectory %s: %w", sub, err)
		}
	}

	return nil
}

// Subpath returns the absolute path of a workspace subdirectory.
func (w *Workspace) Subpath(sub string) string {
	return filepath.Join(w.path, sub)
}

// ResolvePath resolves a relative path inside the workspace. Paths that
// would escape the workspace root are rejected.
func (w *Workspace) ResolvePath(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("path is empty")
	}
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("path must be relative to the workspace: %s", relPath)
	}

	cleanPath := filepath.Clean(relPath)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", relPath)
	}

	return filepath.Join(w.path, cleanPath), nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
