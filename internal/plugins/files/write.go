package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// WriteCommand creates or overwrites a file.
type WriteCommand struct {
	commandBase
}

type WriteArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Append  bool   `json:"append,omitempty"`
}

func (c *WriteCommand) Name() string {
	return "write_file"
}

func (c *WriteCommand) Description() string {
	return "Writes content to a file in the workspace, creating parent directories as needed."
}

func (c *WriteCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to write, relative to the workspace or an absolute whitelisted path.",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The content to write.",
			},
			"append": map[string]interface{}{
				"type":        "boolean",
				"description": "Append to the file instead of overwriting it.",
				"default":     false,
			},
		},
		"required": []string{"path", "content"},
	}
}

func (c *WriteCommand) Execute(ctx context.Context, args string) (string, error) {
	var writeArgs WriteArgs
	if err := parseJSON(args, &writeArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	fullPath, err := c.resolve(writeArgs.Path)
	if err != nil {
		return "", err
	}
	if err := c.checkWritable(fullPath); err != nil {
		return "", err
	}

	if info, err := os.Stat(fullPath); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", writeArgs.Path)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if writeArgs.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	n, err := file.WriteString(writeArgs.Content)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("wrote %d bytes to %s", n, filepath.Clean(fullPath)), nil
}
