package chat

import (
	"context"
	"errors"
	"fmt"

	"capture-chat/internal/records"
	"capture-chat/internal/resolve"
)

const maxOptions = 5

// noneOption is offered for optional entity slots ("No specific contact").
const noneOption = "__none__"

type question struct {
	awaiting Awaiting
	body     string
	actions  []Action
}

type slotPlan struct {
	prompt   string
	lookup   resolve.Lookup
	fixed    []resolve.Option
	lead     []resolve.Option
	tail     []resolve.Option
	quick    []Action
	optional bool
}

func (e *Engine) planFor(ctx context.Context, f *Flow, slot Slot) (slotPlan, error) {
	switch slot {
	case SlotTitle:
		return slotPlan{prompt: "What should the title be?"}, nil
	case SlotNotes:
		return slotPlan{prompt: "Any notes to add?", optional: true,
			quick: []Action{{Action: ActNo, Label: "No notes"}}}, nil
	case SlotDescription:
		return slotPlan{prompt: "Any description to add?", optional: true,
			quick: []Action{{Action: ActNo, Label: "No description"}}}, nil
	case SlotAnchor:
		return slotPlan{prompt: "Who is this task for?", fixed: anchorOptions}, nil
	case SlotCompany:
		return slotPlan{prompt: "Which company is this for?", lookup: e.res.Companies}, nil
	case SlotPerson:
		companyID := f.Slots[SlotCompany]
		if records.AnchorType(f.Slots[SlotAnchor]) == records.AnchorCompany && companyID != "" {
			name, _, err := e.res.Companies.Label(ctx, companyID)
			if err != nil {
				return slotPlan{}, err
			}
			return slotPlan{
				prompt:   fmt.Sprintf("Is there a specific contact at %s?", name),
				lookup:   e.res.PeopleAt(companyID),
				tail:     []resolve.Option{{ID: noneOption, Label: "No specific contact"}},
				optional: true,
			}, nil
		}
		return slotPlan{prompt: "Which contact is this for?", lookup: e.res.People}, nil
	case SlotServiceType:
		return slotPlan{prompt: "Which service type fits?", lookup: e.res.ServiceTypes}, nil
	case SlotLOE:
		return slotPlan{prompt: "How many hours of effort (LOE) will this take?",
			quick: []Action{{Action: ActAnswer, Value: "1", Label: "1h"}, {Action: ActAnswer, Value: "2", Label: "2h"}}}, nil
	case SlotDue:
		return slotPlan{prompt: "When is it due?",
			quick: []Action{{Action: ActAnswer, Value: "today", Label: "Today"}, {Action: ActAnswer, Value: "tomorrow", Label: "Tomorrow"}}}, nil
	case SlotAssignee:
		plan := slotPlan{prompt: "Who should this be assigned to?", lookup: e.res.TeamMembers}
		me, err := e.res.CurrentUser(ctx)
		switch {
		case err == nil:
			plan.lead = []resolve.Option{{ID: me.ID, Label: "Me (" + me.Name + ")"}}
		case !errors.Is(err, records.ErrNotFound):
			return slotPlan{}, fmt.Errorf("current user: %w", err)
		}
		return plan, nil
	case SlotJob:
		return slotPlan{prompt: "Which job is this for?", lookup: e.res.Jobs}, nil
	case SlotDeliverable:
		jobID := f.Slots[SlotJob]
		name, _, err := e.res.Jobs.Label(ctx, jobID)
		if err != nil {
			return slotPlan{}, err
		}
		return slotPlan{prompt: fmt.Sprintf("Which deliverable of %s?", name), lookup: e.res.DeliverablesOf(jobID)}, nil
	case SlotTask:
		if f.Kind == FlowLogTime {
			return slotPlan{prompt: "Which task should I log this against?", lookup: e.res.Tasks}, nil
		}
		return slotPlan{prompt: "Which task should the timer run on?", lookup: e.res.QuickTasks}, nil
	case SlotHours:
		return slotPlan{prompt: "How many hours should I log?"}, nil
	case SlotDate:
		return slotPlan{prompt: "Which date is this for?",
			quick: []Action{{Action: ActAnswer, Value: "today", Label: "Today"}, {Action: ActAnswer, Value: "yesterday", Label: "Yesterday"}}}, nil
	case SlotNextTask:
		return slotPlan{prompt: "Which task should the timer switch to?", lookup: e.res.QuickTasks}, nil
	case SlotListItem:
		return slotPlan{prompt: "Which list item should become a task?", lookup: e.res.ListItems}, nil
	}
	return slotPlan{}, fmt.Errorf("no question for slot %q", slot)
}

func (e *Engine) filled(f *Flow, slot Slot) bool {
	if slot == SlotListItem {
		return f.Context.SourceListItemID != ""
	}
	return f.Has(slot) || f.Context.Skipped[slot]
}

// need returns the question to ask for slot, or nil when it is settled.
// A pending guess is confirmed first; otherwise the user picks from known
// values, or answers in free text when there are none.
func (e *Engine) need(ctx context.Context, f *Flow, slot Slot) (*question, error) {
	if e.filled(f, slot) {
		return nil, nil
	}
	f.Context.ensure()
	if cand, ok := f.Context.Candidates[slot]; ok {
		f.Context.Asked[slot] = true
		return confirmQuestion(slot, cand), nil
	}
	plan, err := e.planFor(ctx, f, slot)
	if err != nil {
		return nil, err
	}
	opts, err := e.optionsFor(ctx, f, slot, plan)
	if err != nil {
		return nil, err
	}
	if plan.optional && plan.lookup != nil && len(opts) == len(plan.tail) {
		f.Skip(slot)
		return nil, nil
	}
	if len(opts) > 0 {
		return chooseQuestion(slot, plan.prompt, opts, plan.lookup != nil), nil
	}
	return &question{awaiting: FreeText{Slot: slot}, body: plan.prompt, actions: plan.quick}, nil
}

func (e *Engine) optionsFor(ctx context.Context, f *Flow, slot Slot, plan slotPlan) ([]resolve.Option, error) {
	if narrowed := f.Context.Options[slot]; len(narrowed) > 0 {
		return narrowed, nil
	}
	if plan.fixed != nil {
		return plan.fixed, nil
	}
	if plan.lookup == nil {
		return nil, nil
	}
	top, err := plan.lookup.TopOptions(ctx, maxOptions)
	if err != nil {
		return nil, err
	}
	out := append([]resolve.Option(nil), plan.lead...)
	seen := map[string]bool{}
	for _, o := range plan.lead {
		seen[o.ID] = true
	}
	for _, o := range top {
		if len(out) == maxOptions {
			break
		}
		if !seen[o.ID] {
			out = append(out, o)
		}
	}
	return append(out, plan.tail...), nil
}

func confirmQuestion(slot Slot, cand resolve.Option) *question {
	return &question{
		awaiting: ConfirmCandidate{Slot: slot, Candidate: cand},
		body:     fmt.Sprintf("Use %q as the %s?", cand.Label, slot.Noun()),
		actions:  yesNoActions(),
	}
}

func chooseQuestion(slot Slot, prompt string, opts []resolve.Option, searchable bool) *question {
	actions := make([]Action, 0, len(opts)+1)
	for _, o := range opts {
		actions = append(actions, Action{Action: ActAnswer, Value: o.ID, Label: o.Label})
	}
	if searchable {
		actions = append(actions, Action{Action: ActSearch, Label: "Search…"})
	}
	return &question{awaiting: ChooseOption{Slot: slot, Options: opts}, body: prompt, actions: actions}
}

func yesNoActions() []Action {
	return []Action{{Action: ActYes, Label: "Yes"}, {Action: ActNo, Label: "No"}}
}

func capOptions(opts []resolve.Option) []resolve.Option {
	if len(opts) > maxOptions {
		return opts[:maxOptions]
	}
	return opts
}

func textOption(s string) resolve.Option {
	return resolve.Option{ID: s, Label: s}
}
