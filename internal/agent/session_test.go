package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/llm"
)

func TestSessionAppendAndRead(t *testing.T) {
	mgr, err := NewSessionManager(t.TempDir())
	require.NoError(t, err)

	sess, err := mgr.Get("telegram:42")
	require.NoError(t, err)

	require.NoError(t, sess.Append(llm.Message{Role: llm.RoleUser, Content: "hello"}))
	require.NoError(t, sess.Append(llm.Message{Role: llm.RoleAssistant, Content: "hi there"}))

	messages, err := sess.Read()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, "hi there", messages[1].Content)
}

func TestSessionReadMissingFile(t *testing.T) {
	mgr, err := NewSessionManager(t.TempDir())
	require.NoError(t, err)

	sess, err := mgr.Get("fresh")
	require.NoError(t, err)

	messages, err := sess.Read()
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSessionSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewSessionManager(dir)
	require.NoError(t, err)

	sess, err := mgr.Get("damaged")
	require.NoError(t, err)
	require.NoError(t, sess.Append(llm.Message{Role: llm.RoleUser, Content: "first"}))

	f, err := os.OpenFile(sess.File, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, sess.Append(llm.Message{Role: llm.RoleUser, Content: "second"}))

	messages, err := sess.Read()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestManagerClear(t *testing.T) {
	mgr, err := NewSessionManager(t.TempDir())
	require.NoError(t, err)

	sess, err := mgr.Get("short-lived")
	require.NoError(t, err)
	require.NoError(t, sess.Append(llm.Message{Role: llm.RoleUser, Content: "forget me"}))

	require.NoError(t, mgr.Clear("short-lived"))

	messages, err := sess.Read()
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Clearing an already-empty session is fine.
	require.NoError(t, mgr.Clear("short-lived"))
}

func TestManagerList(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewSessionManager(dir)
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		sess, err := mgr.Get(id)
		require.NoError(t, err)
		require.NoError(t, sess.Append(llm.Message{Role: llm.RoleUser, Content: "x"}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	ids, err := mgr.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestManagerGetRequiresID(t *testing.T) {
	mgr, err := NewSessionManager(t.TempDir())
	require.NoError(t, err)

	_, err = mgr.Get("")
	assert.Error(t, err)
}
