// Package files provides the files plugin: read, write, delete and glob
// listing of files rooted in the workspace. Absolute paths are only allowed
// inside configured whitelist directories; read-only directories reject
// writes and deletes.
package files

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/workspace"
)

type commandBase struct {
	workspace *workspace.Workspace
	cfg       config.FilesPluginConfig
}

func parseJSON(jsonStr string, v interface{}) error {
	decoder := json.NewDecoder(strings.NewReader(jsonStr))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// resolve turns a command path argument into an absolute path, enforcing the
// whitelist for absolute inputs and workspace containment for relative ones.
func (b commandBase) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	if filepath.IsAbs(path) {
		cleanPath := filepath.Clean(path)
		if strings.Contains(cleanPath, "..") {
			return "", fmt.Errorf("path contains directory traversal attempt")
		}
		for _, dir := range b.cfg.WhitelistDirs {
			if cleanPath == dir || strings.HasPrefix(cleanPath, dir+string(filepath.Separator)) {
				return cleanPath, nil
			}
		}
		return "", fmt.Errorf("absolute path is not in whitelist_dirs: %s", path)
	}

	return b.workspace.ResolvePath(path)
}

// checkWritable rejects paths under a read-only directory.
func (b commandBase) checkWritable(fullPath string) error {
	for _, dir := range b.cfg.ReadOnlyDirs {
		resolved := dir
		if !filepath.IsAbs(dir) {
			var err error
			resolved, err = b.workspace.ResolvePath(dir)
			if err != nil {
				continue
			}
		}
		if fullPath == resolved || strings.HasPrefix(fullPath, resolved+string(filepath.Separator)) {
			return fmt.Errorf("path is read-only: %s", fullPath)
		}
	}
	return nil
}
