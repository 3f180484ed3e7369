package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DeleteCommand removes a single file. Directories are never deleted.
type DeleteCommand struct {
	commandBase
}

type DeleteArgs struct {
	Path string `json:"path"`
}

func (c *DeleteCommand) Name() string {
	return "delete_file"
}

func (c *DeleteCommand) Description() string {
	return "Deletes a file from the workspace. Directories cannot be deleted."
}

func (c *DeleteCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to delete, relative to the workspace or an absolute whitelisted path.",
			},
		},
		"required": []string{"path"},
	}
}

func (c *DeleteCommand) Execute(ctx context.Context, args string) (string, error) {
	var deleteArgs DeleteArgs
	if err := parseJSON(args, &deleteArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	fullPath, err := c.resolve(deleteArgs.Path)
	if err != nil {
		return "", err
	}
	if err := c.checkWritable(fullPath); err != nil {
		return "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", deleteArgs.Path)
		}
		return "", fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, refusing to delete: %s", deleteArgs.Path)
	}

	if err := os.Remove(fullPath); err != nil {
		return "", fmt.Errorf("failed to delete file: %w", err)
	}

	return fmt.Sprintf("deleted %s", filepath.Clean(fullPath)), nil
}
