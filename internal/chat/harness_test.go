package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"capture-chat/internal/records"
	"capture-chat/internal/store"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func testFixtures() store.Fixtures {
	return store.Fixtures{
		CurrentUser: "u1",
		Companies: []records.Company{
			{ID: "c1", Name: "Acme Corp", UpdatedAt: testNow.Add(-time.Hour)},
			{ID: "c2", Name: "Globex", UpdatedAt: testNow.Add(-2 * time.Hour)},
		},
		People: []records.Person{
			{ID: "p1", Name: "Ada Lovelace", CompanyID: "c1"},
			{ID: "p2", Name: "Hank Scorpio", CompanyID: "c2"},
		},
		ServiceTypes: []records.ServiceType{{ID: "s1", Name: "Design"}, {ID: "s2", Name: "Strategy"}},
		TeamMembers:  []records.TeamMember{{ID: "u1", Name: "Sam"}, {ID: "u2", Name: "Riley"}},
		Jobs: []store.JobFixture{
			{Job: records.Job{ID: "j1", Name: "Website redesign"}, Deliverables: []records.Deliverable{
				{ID: "d1", JobID: "j1", Name: "Wireframes"}, {ID: "d2", JobID: "j1", Name: "Launch"},
			}},
			{Job: records.Job{ID: "j2", Name: "Brand refresh"}, Deliverables: []records.Deliverable{
				{ID: "d3", JobID: "j2", Name: "Logo"},
			}},
			{Job: records.Job{ID: "j3", Name: "Internal ops"}},
		},
		QuickTasks: []records.QuickTask{
			{ID: "q1", Title: "Fix login bug", UpdatedAt: testNow.Add(-3 * time.Hour)},
			{ID: "q2", Title: "Design review", UpdatedAt: testNow.Add(-4 * time.Hour)},
		},
		JobTasks: []records.JobTask{
			{ID: "t1", Title: "Homepage copy", JobID: "j1", DeliverableID: "d1", UpdatedAt: testNow.Add(-5 * time.Hour)},
		},
		ListItems: []records.ListItem{
			{ID: "l1", Title: "Renew domain", Notes: "Expires Friday", CreatedAt: testNow.Add(-24 * time.Hour)},
		},
	}
}

type harness struct {
	t   *testing.T
	ctx context.Context
	mem *store.Memory
	eng *Engine
	s   *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory(testFixtures())
	return newHarnessWith(t, mem, mem)
}

// newHarnessWith lets a test swap the command side, e.g. to inject failures.
func newHarnessWith(t *testing.T, mem *store.Memory, cmds records.Commands) *harness {
	t.Helper()
	n := 0
	eng := NewEngine(mem, cmds,
		WithClock(func() time.Time { return testNow }),
		WithLogger(zaptest.NewLogger(t)),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	s := NewSession()
	eng.Welcome(s)
	return &harness{t: t, ctx: context.Background(), mem: mem, eng: eng, s: s}
}

func (h *harness) say(text string) Message {
	h.t.Helper()
	require.NoError(h.t, h.eng.HandleText(h.ctx, h.s, text))
	return h.last()
}

func (h *harness) click(a Action) Message {
	h.t.Helper()
	require.NoError(h.t, h.eng.HandleAction(h.ctx, h.s, a))
	return h.last()
}

func (h *harness) last() Message {
	h.t.Helper()
	msg, ok := h.s.LastAssistant()
	require.True(h.t, ok, "expected an assistant message")
	return msg
}

func (h *harness) pending() ProposalData {
	h.t.Helper()
	msg, ok := h.s.Pending()
	require.True(h.t, ok, "expected a pending proposal")
	return msg.Proposal.Data
}

func actionLabels(actions []Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Label)
	}
	return out
}
