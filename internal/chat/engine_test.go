package chat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capture-chat/internal/records"
)

func TestQuickTaskFromOneUtterance(t *testing.T) {
	h := newHarness(t)

	msg := h.say("add task: email proposal to Acme, 1.5h, due tomorrow")
	require.Equal(t, FlowQuickTask, h.s.Flow.Kind)
	assert.Equal(t, `Use "Email proposal to Acme" as the title?`, msg.Body)
	assert.Equal(t, []string{"Yes", "No"}, actionLabels(msg.Actions))

	msg = h.say("yes")
	assert.Equal(t, `Use "Acme Corp" as the company?`, msg.Body)
	msg = h.say("yes")
	assert.Equal(t, "Is there a specific contact at Acme Corp?", msg.Body)
	assert.Equal(t, []string{"Ada Lovelace", "No specific contact", "Search…"}, actionLabels(msg.Actions))
	msg = h.say("no")
	assert.Equal(t, "Which service type fits?", msg.Body)
	msg = h.say("Design")
	assert.Equal(t, "Who should this be assigned to?", msg.Body)
	assert.Equal(t, []string{"Me (Sam)", "Riley", "Search…"}, actionLabels(msg.Actions))
	msg = h.say("1")
	assert.Equal(t, "Any description to add?", msg.Body)
	msg = h.say("no")

	want := &QuickTaskDraft{
		Title:           "Email proposal to Acme",
		Anchor:          records.AnchorCompany,
		CompanyID:       "c1",
		CompanyName:     "Acme Corp",
		ServiceTypeID:   "s1",
		ServiceTypeName: "Design",
		LOEHours:        1.5,
		DueDate:         "2026-10-19",
		AssigneeID:      "u1",
		AssigneeName:    "Sam",
	}
	if diff := cmp.Diff(want, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}
	assert.Equal(t, KindProposal, msg.Kind)
	assert.Equal(t, []string{"Confirm", "Edit", "Cancel"}, actionLabels(msg.Actions))
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
	assert.Nil(t, h.s.Flow.Awaiting)

	msg = h.say("confirm")
	assert.Equal(t, `Created quick task "Email proposal to Acme".`, msg.Body)
	assert.Empty(t, h.s.PendingProposalID)

	tasks, err := h.mem.QuickTasks(h.ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	got := tasks[2]
	assert.Equal(t, "Email proposal to Acme", got.Title)
	assert.Equal(t, "c1", got.CompanyID)
	assert.Equal(t, 1.5, got.LOEHours)
	assert.Equal(t, testNow, got.UpdatedAt)
}

func TestLogTimeSetsTaskFromUtterance(t *testing.T) {
	h := newHarness(t)

	msg := h.say("log 45m to Fix login bug")
	require.Equal(t, FlowLogTime, h.s.Flow.Kind)
	assert.Equal(t, "Which date is this for?", msg.Body)
	assert.Equal(t, "quick:q1", h.s.Flow.Slots[SlotTask])
	assert.Equal(t, "0.75", h.s.Flow.Slots[SlotHours])

	h.say("today")
	want := &TimeEntryDraft{TaskID: "q1", TaskKind: records.TaskQuick, TaskTitle: "Fix login bug", Hours: 0.75, Date: "2026-10-18"}
	if diff := cmp.Diff(want, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}

	h.say("yes")
	entries, err := h.mem.TimeEntries(h.ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, records.TaskQuick, entries[0].TaskKind)
	assert.Equal(t, 0.75, entries[0].Hours)
	assert.Equal(t, "2026-10-18", entries[0].Date)
}

func TestCancelAtEveryQuestionClearsEverything(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *harness)
		want  Awaiting
	}{
		{
			name:  "confirm candidate",
			setup: func(h *harness) { h.say("add task: email proposal to Acme, 1.5h, due tomorrow") },
			want:  ConfirmCandidate{},
		},
		{
			name: "choose option",
			setup: func(h *harness) {
				h.say("add task: email proposal to Acme, 1.5h, due tomorrow")
				h.say("yes")
				h.say("yes")
			},
			want: ChooseOption{},
		},
		{
			name:  "free text",
			setup: func(h *harness) { h.say("log 45m to Fix login bug") },
			want:  FreeText{},
		},
		{
			name:  "choose flow",
			setup: func(h *harness) { h.say("remind me to call mom") },
			want:  ChooseFlow{},
		},
		{
			name: "keep or remove",
			setup: func(h *harness) {
				h.s.LastListItemID = "l1"
				h.say("turn this into a task")
			},
			want: KeepOrRemove{},
		},
		{
			name: "escape hatch",
			setup: func(h *harness) {
				h.say("add task: call the bank")
				h.say("yes")
				h.say("internal")
				h.say("Strategy")
				h.say("skip")
			},
			want: EscapeHatch{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			tc.setup(h)
			require.IsType(t, tc.want, h.s.Flow.Awaiting)
			before := len(h.s.Messages)

			msg := h.say("cancel")
			assert.Equal(t, "Cancelled. Nothing was saved.", msg.Body)
			assert.Equal(t, FlowNone, h.s.Flow.Kind)
			assert.Empty(t, h.s.Flow.Slots)
			assert.Nil(t, h.s.Flow.Awaiting)
			assert.Empty(t, h.s.Flow.Context.Offered)

			require.Len(t, h.s.Messages, before+2)
			assert.Equal(t, RoleUser, h.s.Messages[before].Role)
			assert.Equal(t, RoleAssistant, h.s.Messages[before+1].Role)

			tasks, err := h.mem.QuickTasks(h.ctx)
			require.NoError(t, err)
			assert.Len(t, tasks, 2)
		})
	}
}

func TestCancelDiscardsPendingProposal(t *testing.T) {
	h := newHarness(t)
	h.say("log 45m to Fix login bug")
	h.say("today")
	h.pending()

	msg := h.click(Action{Action: ActCancel, Label: "Cancel"})
	assert.Equal(t, "Discarded. Nothing was saved.", msg.Body)
	_, ok := h.s.Pending()
	assert.False(t, ok)
	for _, m := range h.s.Messages {
		assert.NotEqual(t, KindProposal, m.Kind)
	}
}

func TestUnclearYesNoAsksAgain(t *testing.T) {
	h := newHarness(t)
	h.say("add task: email proposal to Acme, 1.5h, due tomorrow")
	awaiting := h.s.Flow.Awaiting

	msg := h.say("maybe")
	assert.Equal(t, "Please answer yes or no.", msg.Body)
	assert.Equal(t, awaiting, h.s.Flow.Awaiting)
	assert.Equal(t, []string{"Yes", "No"}, actionLabels(msg.Actions))
}

func TestRejectedCandidateFallsBackToQuestion(t *testing.T) {
	h := newHarness(t)
	h.say("add task: email proposal to Acme, 1.5h, due tomorrow")

	msg := h.say("no")
	assert.Equal(t, "What should the title be?", msg.Body)
	assert.Equal(t, FreeText{Slot: SlotTitle}, h.s.Flow.Awaiting)

	msg = h.say("Send the Acme proposal")
	assert.Equal(t, "Send the Acme proposal", h.s.Flow.Slots[SlotTitle])
	assert.Equal(t, `Use "Acme Corp" as the company?`, msg.Body)
}

func TestUnknownEntityOffersSuggestions(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	msg := h.say("client company")
	assert.Equal(t, "Which company is this for?", msg.Body)

	msg = h.say("Initech")
	assert.Equal(t, `I couldn't find a company matching "Initech". Try again?`, msg.Body)
	assert.Equal(t, FreeText{Slot: SlotCompany}, h.s.Flow.Awaiting)

	msg = h.say("Acmecorp")
	assert.Contains(t, msg.Body, "Did you mean one of these?")
	require.NotEmpty(t, msg.Actions)
	assert.Equal(t, Action{Action: ActAnswer, Value: "c1", Label: "Acme Corp"}, msg.Actions[0])

	msg = h.click(msg.Actions[0])
	assert.Equal(t, "c1", h.s.Flow.Slots[SlotCompany])
	assert.Equal(t, "Is there a specific contact at Acme Corp?", msg.Body)
}

func TestSearchThenTypedName(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	h.say("client company")

	msg := h.click(Action{Action: ActSearch, Label: "Search…"})
	assert.Equal(t, "Type part of the company's name.", msg.Body)

	msg = h.say("glob")
	assert.Equal(t, "c2", h.s.Flow.Slots[SlotCompany])
	assert.Equal(t, "Is there a specific contact at Globex?", msg.Body)
}

func TestRefusedLOEOffersListCapture(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	h.say("internal")
	msg := h.say("Strategy")
	assert.Equal(t, "How many hours of effort (LOE) will this take?", msg.Body)

	msg = h.say("skip")
	assert.Equal(t, EscapeHatch{Slot: SlotLOE}, h.s.Flow.Awaiting)
	assert.Equal(t, []string{"Capture in list", "Keep going"}, actionLabels(msg.Actions))

	h.click(msg.Actions[0])
	if diff := cmp.Diff(&ListItemDraft{Title: "Call the bank"}, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
}

func TestKeepGoingAsksAgain(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	h.say("internal")
	h.say("Strategy")
	h.say("not sure")

	msg := h.say("keep going")
	assert.Equal(t, "How many hours of effort (LOE) will this take?", msg.Body)
	assert.Equal(t, FreeText{Slot: SlotLOE}, h.s.Flow.Awaiting)

	h.say("90m")
	assert.Equal(t, "1.5", h.s.Flow.Slots[SlotLOE])
}

func TestClarifyIntentThenListItem(t *testing.T) {
	h := newHarness(t)
	msg := h.say("remind me to call mom")
	require.Equal(t, FlowClarifyIntent, h.s.Flow.Kind)
	assert.Equal(t, []string{"Add to my list", "Make it a task"}, actionLabels(msg.Actions))

	msg = h.say("my list please")
	assert.Equal(t, FlowListItem, h.s.Flow.Kind)
	assert.Equal(t, `Use "Call mom" as the title?`, msg.Body)

	h.say("yes")
	h.say("save")
	items, err := h.mem.ListItems(h.ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Call mom", items[1].Title)
	assert.Equal(t, items[1].ID, h.s.LastListItemID)
}

func TestConvertLastListItem(t *testing.T) {
	h := newHarness(t)
	h.s.LastListItemID = "l1"

	msg := h.say("turn this into a task")
	require.Equal(t, FlowConvert, h.s.Flow.Kind)
	assert.Equal(t, `Converting "Renew domain". Keep it on your list afterwards?`, msg.Body)

	msg = h.say("remove it")
	assert.Equal(t, `Use "Renew domain" as the title?`, msg.Body)
	h.say("yes")
	h.say("internal")
	h.say("Strategy")
	h.say("2")
	h.say("tomorrow")
	msg = h.say("2")
	assert.Equal(t, `Use "Expires Friday" as the description?`, msg.Body)
	h.say("yes")

	want := &ConvertedTaskDraft{
		ListItemID:     "l1",
		ListItemTitle:  "Renew domain",
		RemoveListItem: true,
		Task: QuickTaskDraft{
			Title:           "Renew domain",
			Description:     "Expires Friday",
			Anchor:          records.AnchorInternal,
			ServiceTypeID:   "s2",
			ServiceTypeName: "Strategy",
			LOEHours:        2,
			DueDate:         "2026-10-19",
			AssigneeID:      "u2",
			AssigneeName:    "Riley",
		},
	}
	if diff := cmp.Diff(want, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}

	msg = h.say("confirm")
	assert.Equal(t, `Created quick task "Renew domain" and removed it from your list.`, msg.Body)
	items, err := h.mem.ListItems(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, h.s.LastListItemID)
}

func TestJobWithoutDeliverablesEndsWithEscape(t *testing.T) {
	h := newHarness(t)
	msg := h.say("add job task update runbook for Internal ops")
	require.Equal(t, FlowJobTask, h.s.Flow.Kind)
	assert.Equal(t, `Use "Update runbook for Internal ops" as the title?`, msg.Body)
	msg = h.say("yes")
	assert.Equal(t, `Use "Internal ops" as the job?`, msg.Body)

	msg = h.say("yes")
	assert.Equal(t, "Internal ops has no deliverables yet, so I can't attach a job task to it.", msg.Body)
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
	require.Len(t, msg.Actions, 2)
	assert.Equal(t, Action{Action: ActCaptureList, Value: "Update runbook for Internal ops", Label: "Capture in list instead"}, msg.Actions[0])
	assert.Equal(t, "jobs/j3", msg.Actions[1].Value)

	h.click(msg.Actions[0])
	if diff := cmp.Diff(&ListItemDraft{Title: "Update runbook for Internal ops"}, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}
}

func TestUnroutedTextListsCapabilities(t *testing.T) {
	h := newHarness(t)
	msg := h.say("hello there")
	assert.Equal(t, capabilities, msg.Body)
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
}

func TestResetStartsOver(t *testing.T) {
	h := newHarness(t)
	h.say("add task: email proposal to Acme, 1.5h, due tomorrow")

	h.click(Action{Action: ActReset, Label: "Start over"})
	require.Len(t, h.s.Messages, 1)
	assert.Equal(t, welcome, h.s.Messages[0].Body)
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
}

func TestStaleClickIsIgnored(t *testing.T) {
	h := newHarness(t)
	msg := h.click(Action{Action: ActAnswer, Value: "c1", Label: "Acme Corp"})
	assert.Equal(t, "That question has already been answered. What would you like to capture?", msg.Body)
	assert.Equal(t, FlowNone, h.s.Flow.Kind)
}

func TestRefusalAtEntitySlotOffersListCapture(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	msg := h.say("internal")
	assert.Equal(t, "Which service type fits?", msg.Body)

	msg = h.say("idk")
	assert.Equal(t, EscapeHatch{Slot: SlotServiceType}, h.s.Flow.Awaiting)
	assert.Equal(t, []string{"Capture in list", "Keep going"}, actionLabels(msg.Actions))

	msg = h.say("keep going")
	assert.Equal(t, "Which service type fits?", msg.Body)
	h.say("Strategy")
	h.say("2")
	h.say("tomorrow")
	h.say("skip")
	assert.Equal(t, EscapeHatch{Slot: SlotAssignee}, h.s.Flow.Awaiting)

	h.click(Action{Action: ActCaptureList, Label: "Capture in list"})
	if diff := cmp.Diff(&ListItemDraft{Title: "Call the bank"}, h.pending()); diff != "" {
		t.Fatalf("unexpected proposal (-want +got):\n%s", diff)
	}
}

func TestRefusalAfterUnknownCompanyOffersListCapture(t *testing.T) {
	h := newHarness(t)
	h.say("add task: call the bank")
	h.say("yes")
	h.say("client company")
	h.say("Initech")
	require.Equal(t, FreeText{Slot: SlotCompany}, h.s.Flow.Awaiting)

	msg := h.say("skip")
	assert.Equal(t, EscapeHatch{Slot: SlotCompany}, h.s.Flow.Awaiting)
	assert.Equal(t, "No problem. Want to capture this in your list instead?", msg.Body)
}

func TestReaskRepeatsQuestionButtonsAfterConfirm(t *testing.T) {
	h := newHarness(t)
	h.say("log 45m to Fix login bug")
	h.say("today")
	h.pending()

	msg := h.say("add task: email proposal to Acme, 1.5h, due tomorrow")
	assert.Equal(t, []string{"Yes", "No"}, actionLabels(msg.Actions))

	msg = h.click(Action{Action: ActConfirm, Label: "Confirm"})
	assert.Empty(t, msg.Actions)

	msg = h.say("maybe")
	assert.Equal(t, "Please answer yes or no.", msg.Body)
	assert.Equal(t, []string{"Yes", "No"}, actionLabels(msg.Actions))
}

func TestCaptureListClickWithoutTitleIsStale(t *testing.T) {
	h := newHarness(t)
	msg := h.click(Action{Action: ActCaptureList, Label: "Capture in list"})
	assert.Equal(t, "That question has already been answered. What would you like to capture?", msg.Body)
	_, ok := h.s.Pending()
	assert.False(t, ok)
}

func TestEditHoursAcceptsConversationalDurations(t *testing.T) {
	h := newHarness(t)
	h.say("log 45m to Fix login bug")
	h.say("today")

	require.NoError(t, h.eng.EditProposal(h.ctx, h.s, "hours", "90m"))
	assert.Equal(t, 1.5, h.pending().(*TimeEntryDraft).Hours)
	assert.True(t, h.pending().Validate().OK)

	require.NoError(t, h.eng.EditProposal(h.ctx, h.s, "hours", "soon"))
	assert.Zero(t, h.pending().(*TimeEntryDraft).Hours)
	assert.False(t, h.pending().Validate().OK)
}

func TestEditLOEAcceptsMinutes(t *testing.T) {
	h := newHarness(t)
	h.say("add task: email proposal to Acme, 1.5h, due tomorrow")
	for _, answer := range []string{"yes", "yes", "no", "Design", "1", "no"} {
		h.say(answer)
	}

	require.NoError(t, h.eng.EditProposal(h.ctx, h.s, "loeHours", "45m"))
	draft := h.pending().(*QuickTaskDraft)
	assert.Equal(t, 0.75, draft.LOEHours)
	assert.True(t, draft.Validate().OK)
}

func TestParseHours(t *testing.T) {
	cases := map[string]float64{
		"2":      2,
		"1.5h":   1.5,
		"90m":    1.5,
		"1h 30m": 1.5,
		" 0.75 ": 0.75,
		"soon":   0,
	}
	for in, want := range cases {
		if got := parseHours(in); got != want {
			t.Fatalf("parseHours(%q): expected %v, got %v", in, want, got)
		}
	}
}
