package ui

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"capture-chat/internal/chat"
	"capture-chat/internal/clipboard"
	"capture-chat/internal/config"
	"capture-chat/internal/export"
	"capture-chat/internal/records"
	"capture-chat/internal/store"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	mem    *store.Memory
	copied []string
}

func newTestModel(t *testing.T) (Model, *testEnv) {
	t.Helper()
	env := &testEnv{mem: store.NewMemory(store.Fixtures{
		CurrentUser: "u1",
		TeamMembers: []records.TeamMember{{ID: "u1", Name: "Sam"}},
		QuickTasks:  []records.QuickTask{{ID: "q1", Title: "Fix login bug", UpdatedAt: testNow.Add(-time.Hour)}},
	})}
	eng := chat.NewEngine(env.mem, env.mem,
		chat.WithClock(func() time.Time { return testNow }),
		chat.WithLogger(zap.NewNop()),
	)
	conv := chat.NewConversation(eng, env.mem, "default")
	exp, err := export.New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	copier := clipboard.Copier{Write: func(s string) error {
		env.copied = append(env.copied, s)
		return nil
	}}

	m := NewModel(config.Defaults(t.TempDir()), conv, exp, copier)
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	m = update(t, m, m.openCmd()())
	return m, env
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out
}

func titles(m Model) []string {
	items := m.actions.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(actionItem).Title())
	}
	return out
}

func TestOpenLoadsWelcome(t *testing.T) {
	m, _ := newTestModel(t)
	if m.busy {
		t.Fatalf("expected model to be idle after open")
	}
	if m.session == nil || len(m.session.Messages) != 1 {
		t.Fatalf("expected welcome message, got %#v", m.session)
	}
	if len(m.actions.Items()) != 0 {
		t.Fatalf("did not expect choices after welcome, got %v", titles(m))
	}
}

func TestTurnFillsChoicesFromLatestReply(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, m.sayCmd("remind me to call mom")())

	want := []string{"1. Add to my list", "2. Make it a task"}
	if got := titles(m); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected choices: got=%v want=%v", got, want)
	}

	item := m.actions.SelectedItem().(actionItem)
	m = update(t, m, m.doCmd(item.action)())
	if m.session.Flow.Kind != chat.FlowListItem {
		t.Fatalf("expected list item flow, got %s", m.session.Flow.Kind)
	}
}

func TestEnterSendsComposerText(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("stop timer")

	next, cmd, handled := m.submit()
	if !handled || cmd == nil {
		t.Fatalf("expected enter to send, handled=%t cmd=%v", handled, cmd)
	}
	if !next.busy {
		t.Fatalf("expected model to be busy while the turn runs")
	}
	if next.input.Value() != "" {
		t.Fatalf("expected composer to clear, got %q", next.input.Value())
	}

	next.input.SetValue("again")
	if _, cmd, _ := next.submit(); cmd != nil {
		t.Fatalf("did not expect a second turn while busy")
	}
}

func pendingLogTime(t *testing.T) (Model, *testEnv) {
	t.Helper()
	m, env := newTestModel(t)
	m = update(t, m, m.sayCmd("log 45m to Fix login bug")())
	m = update(t, m, m.sayCmd("today")())
	if _, ok := m.pending(); !ok {
		t.Fatalf("expected a pending proposal")
	}
	return m, env
}

func TestEditorEditsProposalField(t *testing.T) {
	m, _ := pendingLogTime(t)

	m, _, _ = m.toggleEditor()
	if !m.editor || m.focus != focusActions {
		t.Fatalf("expected editor focus, editor=%t focus=%d", m.editor, m.focus)
	}
	want := []string{"Task", "Hours", "Date", "Note"}
	if got := titles(m); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected editor rows: got=%v want=%v", got, want)
	}

	m.actions.Select(1)
	m, _, _ = m.submit()
	if m.editField != "hours" || m.focus != focusComposer {
		t.Fatalf("expected hours edit in composer, field=%q focus=%d", m.editField, m.focus)
	}
	if m.input.Value() != "0.75" {
		t.Fatalf("expected current value prefilled, got %q", m.input.Value())
	}

	m = update(t, m, m.editCmd("hours", "2")())
	msg, ok := m.pending()
	if !ok {
		t.Fatalf("expected proposal to remain pending")
	}
	if got := msg.Proposal.Data.(*chat.TimeEntryDraft).Hours; got != 2 {
		t.Fatalf("expected hours 2, got %v", got)
	}
	if !m.editor {
		t.Fatalf("expected editor to stay open while the proposal is pending")
	}
}

func TestEscLeavesFieldEditThenEditor(t *testing.T) {
	m, _ := pendingLogTime(t)
	m, _, _ = m.toggleEditor()
	m, _, _ = m.submit()
	if m.editField == "" {
		t.Fatalf("expected a field edit to start")
	}

	esc := tea.KeyMsg{Type: tea.KeyEsc}
	m, _, _ = m.handleKey(esc)
	if m.editField != "" || !m.editor {
		t.Fatalf("expected first esc to leave the field only, field=%q editor=%t", m.editField, m.editor)
	}
	m, _, _ = m.handleKey(esc)
	if m.editor {
		t.Fatalf("expected second esc to close the editor")
	}
	if got := titles(m); !reflect.DeepEqual(got, []string{"1. Confirm", "2. Edit", "3. Cancel"}) {
		t.Fatalf("expected proposal actions back, got %v", got)
	}
}

func TestToggleEditorWithoutProposal(t *testing.T) {
	m, _ := newTestModel(t)
	m, _, _ = m.toggleEditor()
	if m.editor || m.status != "No proposal to edit" {
		t.Fatalf("unexpected editor state: editor=%t status=%q", m.editor, m.status)
	}
}

func TestCopyPrefersProposalSummary(t *testing.T) {
	m, env := pendingLogTime(t)
	m = update(t, m, m.copyCmd()())
	if len(env.copied) != 1 || !strings.HasPrefix(env.copied[0], "**Log time:** 0.75h") {
		t.Fatalf("unexpected clipboard contents: %#v", env.copied)
	}
	if m.status != "Copied proposal to clipboard" {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestExportWritesMarkdown(t *testing.T) {
	m, _ := pendingLogTime(t)
	msg, ok := m.exportCmd()().(exportMsg)
	if !ok || msg.err != nil {
		t.Fatalf("export failed: %#v", msg)
	}
	data, err := os.ReadFile(msg.path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "## Proposal (log time)") {
		t.Fatalf("expected proposal in export, got:\n%s", data)
	}
}

func TestStatusLineShowsFlowAndProposal(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, m.sayCmd("log 45m to Fix login bug")())
	if line := m.statusLine(); !strings.Contains(line, "flow=log_time") {
		t.Fatalf("expected flow in status line, got %q", line)
	}

	m = update(t, m, m.sayCmd("today")())
	if line := m.statusLine(); !strings.Contains(line, "[proposal: log time]") {
		t.Fatalf("expected proposal tag in status line, got %q", line)
	}
}

func TestSearchHighlightsAndJumps(t *testing.T) {
	m, _ := newTestModel(t)
	m.searchQuery = "login"
	m.setViewportFromRendered("k", "Fix login bug\nnothing here\nLogin again\n", true)
	if m.matchCount != 2 || !reflect.DeepEqual(m.matchLines, []int{0, 2}) {
		t.Fatalf("unexpected matches: count=%d lines=%v", m.matchCount, m.matchLines)
	}
	if m.matchIndex != 1 {
		t.Fatalf("expected newest match selected, got %d", m.matchIndex)
	}
	m.jumpToMatch(1)
	if m.matchIndex != 0 || m.status != "Match 1/2" {
		t.Fatalf("expected wrap to first match, index=%d status=%q", m.matchIndex, m.status)
	}
}

func TestRenderMsgIgnoresStaleNonce(t *testing.T) {
	m, _ := newTestModel(t)
	m.renderNonce = 5
	m = update(t, m, renderMsg{cacheKey: "old", rendered: "stale", nonce: 4})
	if _, ok := m.rendered["old"]; ok {
		t.Fatalf("stale render should be dropped")
	}
}

func TestRenderTranscriptCmdProducesText(t *testing.T) {
	msgs := []chat.Message{{ID: "1", Role: chat.RoleUser, Kind: chat.KindText, Body: "log 45m to Fix login bug"}}
	out, ok := renderTranscriptCmd(msgs, chat.TranscriptToggles{}, "notty", "k", 80, 1)().(renderMsg)
	if !ok || !strings.Contains(out.rendered, "Fix login bug") {
		t.Fatalf("unexpected render: %#v", out)
	}
}

func TestClampLongLines(t *testing.T) {
	line := strings.Repeat("a", 30)
	got := clampLongLines(line+"\nshort", 10)
	if !strings.Contains(got, "[line truncated 20 chars]") || !strings.HasSuffix(got, "\nshort") {
		t.Fatalf("unexpected clamp: %q", got)
	}
}
