package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"capture-chat/internal/chat"
	"capture-chat/internal/records"
)

const fixtureYAML = `
current_user: u2
companies:
  - id: c1
    name: Acme Corp
    updated_at: 2026-10-01T09:00:00Z
people:
  - id: p1
    name: Ada Lovelace
    company_id: c1
service_types:
  - id: s1
    name: Design
team_members:
  - id: u1
    name: Sam
  - id: u2
    name: Riley
    email: riley@example.com
jobs:
  - id: j1
    name: Website redesign
    company_id: c1
    deliverables:
      - id: d1
        name: Wireframes
      - id: d2
        name: Launch
quick_tasks:
  - id: q1
    title: Fix login bug
    anchor: company
    company_id: c1
    loe_hours: 2
    due_date: "2026-10-20"
list_items:
  - id: l1
    title: Renew domain
    notes: Expires Friday
    created_at: 2026-10-17T08:00:00Z
`

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "capture.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seededDB(t *testing.T) *SQLite {
	t.Helper()
	db := openTestDB(t)
	f, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)
	require.NoError(t, db.Seed(context.Background(), f))
	return db
}

func TestSeedAndRead(t *testing.T) {
	ctx := context.Background()
	db := seededDB(t)

	companies, err := db.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Corp", companies[0].Name)
	assert.True(t, companies[0].UpdatedAt.Equal(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)))

	deliverables, err := db.Deliverables(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, deliverables, 2)
	assert.Equal(t, "j1", deliverables[0].JobID)

	none, err := db.Deliverables(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	me, err := db.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, records.TeamMember{ID: "u2", Name: "Riley", Email: "riley@example.com"}, me)

	tasks, err := db.QuickTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, records.AnchorCompany, tasks[0].Anchor)
	assert.Equal(t, 2.0, tasks[0].LOEHours)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := seededDB(t)
	f, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)
	f.Companies[0].Name = "Acme Corporation"
	require.NoError(t, db.Seed(ctx, f))

	companies, err := db.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Corporation", companies[0].Name)
}

func TestCurrentUserMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CurrentUser(context.Background())
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	db := seededDB(t)

	item, err := db.CreateListItem(ctx, records.ListItem{Title: "Call mom"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	items, err := db.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Renew domain", items[0].Title)

	require.NoError(t, db.DeleteListItem(ctx, item.ID))
	assert.ErrorIs(t, db.DeleteListItem(ctx, item.ID), records.ErrNotFound)

	task, err := db.CreateQuickTask(ctx, records.QuickTask{Title: "Call the bank", LOEHours: 0.5})
	require.NoError(t, err)
	assert.Equal(t, records.AnchorInternal, task.Anchor)

	jt, err := db.CreateJobTask(ctx, records.JobTask{Title: "Homepage copy", JobID: "j1", DeliverableID: "d1"})
	require.NoError(t, err)
	jobTasks, err := db.JobTasks(ctx)
	require.NoError(t, err)
	require.Len(t, jobTasks, 1)
	assert.Equal(t, jt.ID, jobTasks[0].ID)
	assert.Equal(t, "d1", jobTasks[0].DeliverableID)

	_, err = db.AppendTimeEntry(ctx, records.TimeEntry{TaskID: task.ID, TaskKind: records.TaskQuick, Hours: 1.25, Date: "2026-10-18"})
	require.NoError(t, err)
	entries, err := db.TimeEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1.25, entries[0].Hours)
	assert.Equal(t, records.TaskQuick, entries[0].TaskKind)
}

func TestTimerRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	state, err := db.Timer(ctx)
	require.NoError(t, err)
	assert.Equal(t, records.StoppedTimer(), state)

	startedAt := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	require.NoError(t, db.SetTimer(ctx, records.RunningTimer("q1", startedAt)))
	state, err = db.Timer(ctx)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, "q1", state.TaskID)
	assert.True(t, state.StartedAt.Equal(startedAt))

	require.NoError(t, db.SetTimer(ctx, records.TimerState{TaskID: "stale"}))
	state, err = db.Timer(ctx)
	require.NoError(t, err)
	assert.Equal(t, records.StoppedTimer(), state)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "capture.db")
	db, err := Open(path, false)
	require.NoError(t, err)
	_, err = db.CreateListItem(ctx, records.ListItem{Title: "Keep me"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, false)
	require.NoError(t, err)
	items, err := db.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	require.NoError(t, db.Close())

	db, err = Open(path, true)
	require.NoError(t, err)
	defer db.Close()
	items, err = db.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSessionsSaveLoadAndSearch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	raw, err := db.LoadSession(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, raw)

	body, err := json.Marshal(map[string]any{
		"messages": []map[string]string{
			{"role": "assistant", "body": "Hi! What would you like to capture?"},
			{"role": "user", "body": "log 2h to the invoice cleanup"},
			{"role": "assistant", "body": "   "},
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.SaveSession(ctx, "default", body))
	require.NoError(t, db.SaveSession(ctx, "other", []byte(`{"messages":[{"role":"user","body":"start timer on design review"}]}`)))

	raw, err = db.LoadSession(ctx, "default")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(raw))

	all, err := db.ListSessions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	hits, err := db.ListSessions(ctx, "invoice", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "default", hits[0].Key)
	assert.Equal(t, 2, hits[0].MessageCount)
	assert.Equal(t, "log 2h to the invoice cleanup", hits[0].Preview)

	hits, err = db.ListSessions(ctx, "zebra", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, db.DeleteSession(ctx, "default"))
	raw, err = db.LoadSession(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, raw)
	hits, err = db.ListSessions(ctx, "invoice", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSaveSessionRejectsGarbage(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, db.SaveSession(context.Background(), "default", []byte("not json")))
}

func TestConversationOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := seededDB(t)
	eng := chat.NewEngine(db, db, chat.WithLogger(zaptest.NewLogger(t)))
	conv := chat.NewConversation(eng, db, "default")

	_, err := conv.Say(ctx, "remind me to call mom")
	require.NoError(t, err)
	_, err = conv.Say(ctx, "my list please")
	require.NoError(t, err)
	_, err = conv.Say(ctx, "yes")
	require.NoError(t, err)
	s, err := conv.Say(ctx, "save")
	require.NoError(t, err)

	items, err := db.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, items[1].ID, s.LastListItemID)

	hits, err := db.ListSessions(ctx, "call mom", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "remind me to call mom", hits[0].Preview)
}

func TestBuildFTSQuery(t *testing.T) {
	got := buildFTSQuery(`log "invoice" time:today`)
	want := `"log"* AND "invoice"* AND "time:today"*`
	if got != want {
		t.Fatalf("unexpected fts query\nwant: %s\ngot:  %s", want, got)
	}
}

func TestTokenizeSearchTerms(t *testing.T) {
	got := tokenizeSearchTerms(`  hello,   "world"   (test)  `)
	if len(got) != 3 || got[0] != "hello" || got[1] != "world" || got[2] != "test" {
		t.Fatalf("unexpected tokens: %#v", got)
	}
}
