package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"capture-chat/internal/extract"
	"capture-chat/internal/records"
	"capture-chat/internal/resolve"
)

// reply is one turn aimed at the awaiting question, typed or clicked.
type reply struct {
	text    string
	action  ActionType
	value   string
	clicked bool
}

func (r reply) yesNo() extract.Answer {
	switch r.action {
	case ActYes:
		return extract.Yes
	case ActNo:
		return extract.No
	}
	if r.clicked {
		return extract.Unknown
	}
	return extract.YesNo(r.text)
}

func (r reply) content() string {
	if r.clicked {
		return r.value
	}
	return r.text
}

func (r reply) declined() bool {
	if r.action == ActNo {
		return true
	}
	if r.clicked {
		return false
	}
	return extract.IsRefusal(r.text) || extract.YesNo(r.text) == extract.No
}

func (e *Engine) answer(ctx context.Context, s *Session, r reply) error {
	f := &s.Flow
	e.log.Debug("answering",
		zap.String("flow", string(f.Kind)),
		zap.String("awaiting", f.Awaiting.awaitingType()))

	switch q := f.Awaiting.(type) {
	case ConfirmCandidate:
		return e.answerCandidate(ctx, s, q, r)
	case ChooseOption:
		return e.answerChoice(ctx, s, q, r)
	case FreeText:
		return e.answerFreeText(ctx, s, q, r)
	case ChooseFlow:
		return e.answerFlow(ctx, s, q, r)
	case KeepOrRemove:
		return e.answerKeep(ctx, s, q, r)
	case EscapeHatch:
		return e.answerEscape(ctx, s, q, r)
	}
	return fmt.Errorf("answer: unhandled question %T", f.Awaiting)
}

// answerCandidate is the one confirm rule shared by every slot: Yes keeps the
// guess, No drops it and falls back to the open question.
func (e *Engine) answerCandidate(ctx context.Context, s *Session, q ConfirmCandidate, r reply) error {
	switch r.yesNo() {
	case extract.Yes:
		return e.fill(ctx, s, q.Slot, q.Candidate)
	case extract.No:
		s.Flow.Reject(q.Slot)
		s.Flow.Awaiting = nil
		return e.advance(ctx, s)
	}
	e.reask(s, "Please answer yes or no.")
	return nil
}

func (e *Engine) answerChoice(ctx context.Context, s *Session, q ChooseOption, r reply) error {
	if r.action == ActSearch {
		e.ask(s, &question{awaiting: FreeText{Slot: q.Slot}, body: fmt.Sprintf("Type part of the %s's name.", q.Slot.Noun())})
		return nil
	}
	if r.clicked {
		for _, o := range q.Options {
			if o.ID == r.value {
				return e.fill(ctx, s, q.Slot, o)
			}
		}
		e.reask(s, "That option is no longer available. Pick one of these.")
		return nil
	}

	text := strings.TrimSpace(r.text)
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(q.Options) {
		return e.fill(ctx, s, q.Slot, q.Options[n-1])
	}
	label := func(o resolve.Option) string { return o.Label }
	if res := resolve.Match(q.Options, label, text); res.Outcome == resolve.Unique {
		return e.fill(ctx, s, q.Slot, res.Match)
	}
	plan, err := e.planFor(ctx, &s.Flow, q.Slot)
	if err != nil {
		return err
	}
	if plan.optional && r.declined() {
		s.Flow.Skip(q.Slot)
		s.Flow.Awaiting = nil
		return e.advance(ctx, s)
	}
	if e.refusesRequired(&s.Flow, plan, text) {
		return e.offerEscape(s, q.Slot)
	}
	if plan.lookup != nil {
		return e.resolveText(ctx, s, q.Slot, plan.lookup, text)
	}
	e.reask(s, "Sorry, I didn't catch that. Pick one of these.")
	return nil
}

func (e *Engine) answerFreeText(ctx context.Context, s *Session, q FreeText, r reply) error {
	f := &s.Flow
	text := strings.TrimSpace(r.content())
	plan, err := e.planFor(ctx, f, q.Slot)
	if err != nil {
		return err
	}

	switch q.Slot {
	case SlotTitle:
		if text == "" || r.declined() {
			e.reask(s, "A title is needed. What should it be called?")
			return nil
		}
		return e.fill(ctx, s, q.Slot, textOption(text))

	case SlotNotes, SlotDescription:
		if r.declined() {
			f.Skip(q.Slot)
			f.Awaiting = nil
			return e.advance(ctx, s)
		}
		return e.fill(ctx, s, q.Slot, textOption(text))

	case SlotLOE, SlotHours:
		if h, ok := extract.HoursReply(text); ok && h > 0 {
			return e.fill(ctx, s, q.Slot, textOption(formatHours(h)))
		}
		if e.refusesRequired(f, plan, text) {
			return e.offerEscape(s, q.Slot)
		}
		e.reask(s, "I need a number of hours, like 1.5 or 90m.")
		return nil

	case SlotDue, SlotDate:
		if d, ok := extract.Date(text, e.now()); ok {
			return e.fill(ctx, s, q.Slot, textOption(d))
		}
		if e.refusesRequired(f, plan, text) {
			return e.offerEscape(s, q.Slot)
		}
		e.reask(s, "Please answer with today, tomorrow, yesterday or a date like 2026-10-18.")
		return nil

	case SlotAnchor:
		if res := resolve.Match(anchorOptions, func(o resolve.Option) string { return o.Label }, text); res.Outcome == resolve.Unique {
			return e.fill(ctx, s, q.Slot, res.Match)
		}
		if e.refusesRequired(f, plan, text) {
			return e.offerEscape(s, q.Slot)
		}
		e.reask(s, "Is it internal, for a client company, or for a client contact?")
		return nil
	}

	if plan.lookup == nil {
		return fmt.Errorf("answer %s: no lookup", q.Slot)
	}
	if r.clicked && r.action == ActAnswer {
		name, ok, err := plan.lookup.Label(ctx, r.value)
		if err != nil {
			return err
		}
		if ok {
			return e.fill(ctx, s, q.Slot, resolve.Option{ID: r.value, Label: name})
		}
	}
	if plan.optional && r.declined() {
		f.Skip(q.Slot)
		f.Awaiting = nil
		return e.advance(ctx, s)
	}
	if !r.clicked && e.refusesRequired(f, plan, text) {
		return e.offerEscape(s, q.Slot)
	}
	return e.resolveText(ctx, s, q.Slot, plan.lookup, text)
}

// resolveText runs the fuzzy policy for a typed entity answer.
func (e *Engine) resolveText(ctx context.Context, s *Session, slot Slot, lookup resolve.Lookup, text string) error {
	found, err := lookup.Find(ctx, text)
	if err != nil {
		return err
	}
	switch found.Outcome {
	case resolve.Unique:
		return e.fill(ctx, s, slot, found.Match)
	case resolve.Ambiguous:
		s.Flow.Context.ensure()
		s.Flow.Context.Options[slot] = capOptions(found.Options)
		e.ask(s, chooseQuestion(slot,
			fmt.Sprintf("A few %ss match %q. Which one?", lookup.Noun(), text),
			s.Flow.Context.Options[slot], true))
		return nil
	}

	suggestions, err := lookup.Suggest(ctx, text, 3)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("I couldn't find a %s matching %q. Try again?", lookup.Noun(), text)
	actions := make([]Action, 0, len(suggestions))
	for _, o := range suggestions {
		actions = append(actions, Action{Action: ActAnswer, Value: o.ID, Label: o.Label})
	}
	if len(actions) > 0 {
		body += " Did you mean one of these?"
	}
	e.ask(s, &question{awaiting: FreeText{Slot: slot}, body: body, actions: actions})
	return nil
}

var flowChoiceLabels = map[FlowKind]string{
	FlowListItem:        "Add to my list",
	FlowClarifyTaskType: "Make it a task",
	FlowQuickTask:       "Quick task",
	FlowJobTask:         "Job task",
}

func flowQuestion(body string, choices ...FlowKind) *question {
	actions := make([]Action, 0, len(choices))
	for _, k := range choices {
		actions = append(actions, Action{Action: ActAnswer, Value: string(k), Label: flowChoiceLabels[k]})
	}
	return &question{awaiting: ChooseFlow{Choices: choices}, body: body, actions: actions}
}

func (e *Engine) answerFlow(ctx context.Context, s *Session, q ChooseFlow, r reply) error {
	var picked FlowKind
	if r.clicked {
		picked = FlowKind(r.value)
	} else {
		t := strings.ToLower(r.text)
		switch {
		case strings.Contains(t, "quick"):
			picked = FlowQuickTask
		case strings.Contains(t, "job"):
			picked = FlowJobTask
		case strings.Contains(t, "list"), strings.Contains(t, "reminder"):
			picked = FlowListItem
		case strings.Contains(t, "task"):
			picked = FlowClarifyTaskType
		}
	}
	for _, k := range q.Choices {
		if k == picked {
			return e.start(ctx, s, picked, s.Flow.SourceText)
		}
	}
	e.reask(s, "Sorry, which one did you mean?")
	return nil
}

func (e *Engine) answerKeep(ctx context.Context, s *Session, q KeepOrRemove, r reply) error {
	decision := ""
	t := strings.ToLower(r.content())
	switch {
	case strings.Contains(t, "remove"), strings.Contains(t, "delete"):
		decision = "remove"
	case strings.Contains(t, "keep"):
		decision = "keep"
	default:
		switch r.yesNo() {
		case extract.Yes:
			decision = "keep"
		case extract.No:
			decision = "remove"
		}
	}
	if decision == "" {
		e.reask(s, "Should I keep the list item or remove it?")
		return nil
	}
	s.Flow.Context.RemoveSource = decision
	s.Flow.Awaiting = nil
	return e.advance(ctx, s)
}

// refusesRequired reports a refusal ("skip", "idk", "later") typed at a
// required slot of a task flow.
func (e *Engine) refusesRequired(f *Flow, plan slotPlan, text string) bool {
	return f.Kind.capturesTask() && !plan.optional && extract.IsRefusal(text)
}

func (e *Engine) offerEscape(s *Session, slot Slot) error {
	e.ask(s, &question{
		awaiting: EscapeHatch{Slot: slot},
		body:     "No problem. Want to capture this in your list instead?",
		actions: []Action{
			{Action: ActCaptureList, Label: "Capture in list"},
			{Action: ActKeepGoing, Label: "Keep going"},
		},
	})
	return nil
}

func (e *Engine) answerEscape(ctx context.Context, s *Session, q EscapeHatch, r reply) error {
	t := strings.ToLower(r.text)
	switch {
	case r.action == ActCaptureList, !r.clicked && (strings.Contains(t, "list") || r.yesNo() == extract.Yes):
		e.captureInList(s)
		return nil
	case r.action == ActKeepGoing, !r.clicked && (strings.Contains(t, "keep") || strings.Contains(t, "continue") || r.yesNo() == extract.No):
		plan, err := e.planFor(ctx, &s.Flow, q.Slot)
		if err != nil {
			return err
		}
		e.ask(s, &question{awaiting: FreeText{Slot: q.Slot}, body: plan.prompt, actions: plan.quick})
		return nil
	}
	e.reask(s, "Capture it in your list, or keep going?")
	return nil
}

// captureInList abandons the current flow for a list-item proposal built
// from what is known so far.
func (e *Engine) captureInList(s *Session) {
	f := &s.Flow
	title := f.Slots[SlotTitle]
	if title == "" {
		if cand, ok := f.Context.Candidates[SlotTitle]; ok {
			title = cand.Label
		} else {
			title = extract.Title(f.SourceText)
		}
	}
	notes := f.Slots[SlotDescription]
	if notes == "" {
		notes = extract.Notes(f.SourceText)
	}
	e.propose(s, &ListItemDraft{Title: title, Notes: notes})
}

// fill commits an answer into the slot and resumes the flow.
func (e *Engine) fill(ctx context.Context, s *Session, slot Slot, opt resolve.Option) error {
	f := &s.Flow
	switch {
	case opt.ID == noneOption:
		f.Skip(slot)
	case slot == SlotListItem:
		f.Context.SourceListItemID = opt.ID
		delete(f.Context.Options, slot)
	case slot == SlotAnchor:
		f.Set(slot, string(parseAnchor(opt.ID)))
	default:
		f.Set(slot, opt.ID)
	}
	f.Awaiting = nil
	return e.advance(ctx, s)
}

func (e *Engine) ask(s *Session, q *question) {
	s.Flow.Awaiting = q.awaiting
	s.Flow.Context.Offered = append([]Action(nil), q.actions...)
	e.say(s, q.body, q.actions...)
}

// reask keeps the current question live and repeats the buttons it was
// asked with.
func (e *Engine) reask(s *Session, hint string) {
	e.say(s, hint, s.Flow.Context.Offered...)
}

// anchorFor reports how a task should be anchored given a resolved hint.
func anchorFor(slot Slot) records.AnchorType {
	if slot == SlotPerson {
		return records.AnchorPerson
	}
	return records.AnchorCompany
}
