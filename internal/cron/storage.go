package cron

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

const (
	// CronSubdirectory is the workspace subdirectory holding task storage.
	CronSubdirectory = "cron"

	// TasksFilename is the JSONL file storing tasks one per line.
	TasksFilename = "tasks.jsonl"
)

// Storage persists scheduled tasks in JSONL format. Saves are atomic via
// write-to-temp plus rename.
type Storage struct {
	filePath string
	logger   *logger.Logger
}

func NewStorage(workspacePath string, log *logger.Logger) *Storage {
	return &Storage{
		filePath: filepath.Join(workspacePath, CronSubdirectory, TasksFilename),
		logger:   log,
	}
}

// Load reads all tasks. A missing file yields an empty slice. Corrupt lines
// are skipped with a logged error so one bad line does not lose the rest.
func (s *Storage) Load() ([]Task, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Task{}, nil
		}
		s.logger.Error("failed to open task storage", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}
	defer file.Close()

	var tasks []Task
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(line), &task); err != nil {
			s.logger.Error("failed to unmarshal task line", err,
				logger.Field{Key: "file", Value: s.filePath},
				logger.Field{Key: "line", Value: lineNum})
			continue
		}
		tasks = append(tasks, task)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("error scanning task storage", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}

	return tasks, nil
}

// Append adds one task to the end of the file.
func (s *Storage) Append(task Task) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.logger.Error("failed to open task storage for append", err,
			logger.Field{Key: "file", Value: s.filePath})
		return err
	}
	defer file.Close()

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		s.logger.Error("failed to write task to storage", err,
			logger.Field{Key: "task_id", Value: task.ID})
		return err
	}

	s.logger.Debug("task appended to storage",
		logger.Field{Key: "task_id", Value: task.ID})
	return nil
}

// Remove drops a task by ID and rewrites the file.
func (s *Storage) Remove(taskID string) error {
	tasks, err := s.Load()
	if err != nil {
		return err
	}

	var kept []Task
	removed := false
	for _, task := range tasks {
		if task.ID == taskID {
			removed = true
			continue
		}
		kept = append(kept, task)
	}

	if !removed {
		s.logger.Warn("task not found for removal",
			logger.Field{Key: "task_id", Value: taskID})
	}

	return s.Save(kept)
}

// Save atomically rewrites the full task list.
func (s *Storage) Save(tasks []Task) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	tmpPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("failed to create temporary task storage", err,
			logger.Field{Key: "file", Value: tmpPath})
		return err
	}
	defer file.Close()

	for _, task := range tasks {
		data, err := json.Marshal(task)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			s.logger.Error("failed to write task to temporary file", err,
				logger.Field{Key: "task_id", Value: task.ID})
			return err
		}
	}

	if err := file.Sync(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		s.logger.Error("failed to rename temporary task storage", err,
			logger.Field{Key: "file", Value: s.filePath})
		return err
	}

	s.logger.Debug("tasks saved to storage",
		logger.Field{Key: "count", Value: len(tasks)})
	return nil
}

// Upsert updates a task in place or appends it.
func (s *Storage) Upsert(task Task) error {
	tasks, err := s.Load()
	if err != nil {
		return err
	}

	found := false
	for i, existing := range tasks {
		if existing.ID == task.ID {
			tasks[i] = task
			found = true
			break
		}
	}
	if !found {
		tasks = append(tasks, task)
	}

	return s.Save(tasks)
}
