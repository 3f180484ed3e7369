package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadCommand reads file contents with optional line windowing.
type ReadCommand struct {
	commandBase
}

type ReadArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset,omitempty"` // 0-based line offset
	Limit  int    `json:"limit,omitempty"`  // max lines, defaults to 2000
}

func (c *ReadCommand) Name() string {
	return "read_file"
}

func (c *ReadCommand) Description() string {
	return "Reads the contents of a file from the workspace. Returns file content with line numbers."
}

func (c *ReadCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to read, relative to the workspace or an absolute whitelisted path.",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "The line number to start reading from (0-based). Defaults to 0.",
				"default":     0,
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "The maximum number of lines to read. Defaults to 2000.",
				"default":     2000,
			},
		},
		"required": []string{"path"},
	}
}

func (c *ReadCommand) Execute(ctx context.Context, args string) (string, error) {
	var readArgs ReadArgs
	if err := parseJSON(args, &readArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if readArgs.Limit <= 0 {
		readArgs.Limit = 2000
	}
	if readArgs.Offset < 0 {
		readArgs.Offset = 0
	}

	fullPath, err := c.resolve(readArgs.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", readArgs.Path)
		}
		return "", fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", readArgs.Path)
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if readArgs.Offset >= len(lines) {
		return fmt.Sprintf("# File: %s\n# Offset %d is beyond file length (%d lines)\n",
			filepath.Clean(fullPath), readArgs.Offset, len(lines)), nil
	}

	end := readArgs.Offset + readArgs.Limit
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# File: %s (lines %d-%d of %d)\n",
		filepath.Clean(fullPath), readArgs.Offset+1, end, len(lines))
	for i, line := range lines[readArgs.Offset:end] {
		fmt.Fprintf(&sb, "%06d| %s\n", readArgs.Offset+i+1, line)
	}

	return sb.String(), nil
}
