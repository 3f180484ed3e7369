package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ListCommand lists directory contents, optionally filtered by a glob
// pattern with ** support.
type ListCommand struct {
	commandBase
}

type ListArgs struct {
	Path          string `json:"path"`
	Pattern       string `json:"pattern,omitempty"` // doublestar glob, e.g. "**/*.go"
	IncludeHidden bool   `json:"include_hidden,omitempty"`
}

func (c *ListCommand) Name() string {
	return "list_dir"
}

func (c *ListCommand) Description() string {
	return "Lists directory contents in the workspace. Supports glob patterns like '**/*.md'."
}

func (c *ListCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The directory to list, relative to the workspace or an absolute whitelisted path. Use '.' for the workspace root.",
			},
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Optional glob pattern matched against paths below the directory. Supports '**'. Example: '**/*.go'.",
			},
			"include_hidden": map[string]interface{}{
				"type":        "boolean",
				"description": "Include entries starting with '.'.",
				"default":     false,
			},
		},
		"required": []string{"path"},
	}
}

func (c *ListCommand) Execute(ctx context.Context, args string) (string, error) {
	var listArgs ListArgs
	if err := parseJSON(args, &listArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	fullPath, err := c.resolve(listArgs.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", listArgs.Path)
		}
		return "", fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", listArgs.Path)
	}

	if listArgs.Pattern != "" {
		if !doublestar.ValidatePattern(listArgs.Pattern) {
			return "", fmt.Errorf("invalid glob pattern: %s", listArgs.Pattern)
		}
		return c.listGlob(fullPath, listArgs)
	}

	return c.listFlat(fullPath, listArgs)
}

func (c *ListCommand) listFlat(fullPath string, args ListArgs) (string, error) {
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !args.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return formatListing(fullPath, names), nil
}

func (c *ListCommand) listGlob(fullPath string, args ListArgs) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(fullPath), args.Pattern)
	if err != nil {
		return "", fmt.Errorf("glob failed: %w", err)
	}

	var names []string
	for _, match := range matches {
		if !args.IncludeHidden && hasHiddenComponent(match) {
			continue
		}
		if info, err := os.Stat(filepath.Join(fullPath, match)); err == nil && info.IsDir() {
			match += "/"
		}
		names = append(names, match)
	}
	sort.Strings(names)

	return formatListing(fullPath, names), nil
}

func hasHiddenComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func formatListing(dir string, names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Directory: %s (%d entries)\n", filepath.Clean(dir), len(names))
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	return sb.String()
}
