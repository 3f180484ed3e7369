package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gutosantos82/py-gpt/internal/llm"
)

// Session is one conversation transcript persisted as a JSONL file. Each
// line is one message; appends are durable before the next LLM call sees
// the history.
type Session struct {
	ID   string
	File string
	mu   sync.Mutex
}

// Entry is a single line in the session file.
type Entry struct {
	Message   llm.Message `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// SessionManager stores session transcripts under a base directory.
type SessionManager struct {
	baseDir string
	mu      sync.Mutex
	open    map[string]*Session
}

// NewSessionManager creates the base directory if needed.
func NewSessionManager(baseDir string) (*SessionManager, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("session directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &SessionManager{
		baseDir: baseDir,
		open:    map[string]*Session{},
	}, nil
}

// Get returns the session for the given ID, creating its file on first use.
// The same *Session is returned for concurrent callers so file appends
// serialize on one mutex.
func (m *SessionManager) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.open[sessionID]; ok {
		return sess, nil
	}

	sess := &Session{
		ID:   sessionID,
		File: filepath.Join(m.baseDir, sessionID+".jsonl"),
	}
	m.open[sessionID] = sess
	return sess, nil
}

// Clear drops the session history. The session keeps its ID; the next
// message starts a fresh transcript.
func (m *SessionManager) Clear(sessionID string) error {
	sess, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := os.Remove(sess.File); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// List returns the IDs of all persisted sessions.
func (m *SessionManager) List() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".jsonl" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".jsonl")])
	}
	return ids, nil
}

// Append writes one message to the transcript.
func (s *Session) Append(msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(Entry{Message: msg, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	file, err := os.OpenFile(s.File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Read returns the transcript in append order. Corrupt lines are skipped so
// one bad write does not lose the whole conversation.
func (s *Session) Read() ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	var messages []llm.Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		messages = append(messages, entry.Message)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return messages, nil
}
