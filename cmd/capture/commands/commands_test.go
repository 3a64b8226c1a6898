package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capture-chat/internal/store"
)

const fixtures = `
current_user: u1
companies:
  - id: c1
    name: Acme Corp
team_members:
  - id: u1
    name: Sam
quick_tasks:
  - id: q1
    title: Fix login bug
list_items:
  - id: l1
    title: Renew domain
    created_at: 2026-10-17T08:00:00Z
`

const script = `{"text": "log 45m to Fix login bug", "at": "2026-10-18T10:00:00Z"}
{"action": "answer", "value": "today", "label": "Today"}
{"action": "confirm", "label": "Confirm"}
`

func run(t *testing.T, home string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--home", home}, args...))
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestTurnsPersistAcrossInvocations(t *testing.T) {
	home := t.TempDir()
	out := run(t, home, "seed", writeFile(t, t.TempDir(), "fixtures.yaml", fixtures))
	assert.Contains(t, out, "Seeded 1 companies")

	out = run(t, home, "say", "remind", "me", "to", "call", "mom")
	assert.Contains(t, out, "1. Add to my list  (answer create_list_item)")
	assert.Contains(t, out, "2. Make it a task")

	out = run(t, home, "act", "--pick", "1")
	assert.Contains(t, out, `Use "Call mom" as the title?`)

	run(t, home, "say", "yes")
	run(t, home, "say", "save")

	out = run(t, home, "show")
	assert.Contains(t, out, "## You\n\nremind me to call mom")

	out = run(t, home, "sessions", "call mom")
	assert.Contains(t, out, "default")

	out = run(t, home, "timer")
	assert.Contains(t, out, "No timer running.")

	db, err := store.Open(filepath.Join(home, "capture.sqlite"), false)
	require.NoError(t, err)
	defer db.Close()
	items, err := db.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Call mom", items[1].Title)
}

func TestActPickOutOfRange(t *testing.T) {
	home := t.TempDir()
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--home", home, "act", "--pick", "3"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no option 3")
}

func TestExportPrintsPath(t *testing.T) {
	home := t.TempDir()
	run(t, home, "say", "stop", "timer")
	out := run(t, home, "export")
	assert.Contains(t, out, filepath.Join(home, "exports", "default-"))
}

func TestReplayInMemory(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	fx := writeFile(t, dir, "fixtures.yaml", fixtures)
	writeFile(t, dir, "standup.jsonl", script)

	out := run(t, home, "replay", "--memory", "--fixtures", fx, dir)
	assert.Contains(t, out, "standup.jsonl (3 steps)")
	assert.Contains(t, out, "> log 45m to Fix login bug")
	assert.Contains(t, out, "> [Confirm]")
	assert.NoFileExists(t, filepath.Join(home, "capture.sqlite"))
}
