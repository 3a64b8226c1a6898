// Package chat is the task-capture dialogue engine: a rule-based slot filler
// that turns utterances and button clicks into confirmed records.
//
// One call to HandleText, HandleAction or EditProposal is one turn. A turn
// runs to completion against a *Session owned by the caller; the engine keeps
// no per-session state of its own.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"capture-chat/internal/extract"
	"capture-chat/internal/records"
	"capture-chat/internal/resolve"
)

const welcome = "Hi! Tell me what to capture: a reminder for your list, a task, time to log, or a timer."

type Engine struct {
	dir   records.Directory
	cmds  records.Commands
	res   *resolve.Resolver
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithIDs(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func NewEngine(dir records.Directory, cmds records.Commands, opts ...Option) *Engine {
	e := &Engine{
		dir:   dir,
		cmds:  cmds,
		res:   resolve.New(dir),
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the engine clock, exposed for callers that stamp their own records.
func (e *Engine) Now() time.Time { return e.now() }

// Welcome seeds an empty session with the greeting.
func (e *Engine) Welcome(s *Session) {
	if len(s.Messages) == 0 {
		e.say(s, welcome)
	}
}

// HandleText runs one typed turn.
func (e *Engine) HandleText(ctx context.Context, s *Session, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	e.echo(s, text)

	if s.Flow.Awaiting != nil {
		if extract.IsCancel(text) {
			e.cancelFlow(s)
			return nil
		}
		return e.answer(ctx, s, reply{text: text})
	}

	if s.PendingProposalID != "" {
		if extract.IsCancel(text) {
			e.discardProposal(s)
			return nil
		}
		if isConfirmWord(text) {
			return e.confirm(ctx, s)
		}
	}
	return e.route(ctx, s, text)
}

// HandleAction runs one click. Answer-type clicks are echoed as the user's
// reply using the button label.
func (e *Engine) HandleAction(ctx context.Context, s *Session, a Action) error {
	switch a.Action {
	case ActCancel:
		if s.Flow.Active() {
			e.cancelFlow(s)
			return nil
		}
		if s.PendingProposalID != "" {
			e.discardProposal(s)
			return nil
		}
		e.say(s, "There's nothing to cancel.")
		return nil
	case ActConfirm:
		return e.confirm(ctx, s)
	case ActEdit, ActView:
		msg, ok := s.Pending()
		if !ok {
			return ErrNoProposal
		}
		msg.Proposal.Mode = ModeView
		if a.Action == ActEdit {
			msg.Proposal.Mode = ModeEdit
		}
		return nil
	case ActReset:
		e.resetSession(s)
		return nil
	case ActNavigate:
		e.log.Debug("navigate", zap.String("target", a.Value))
		return nil
	case ActCaptureList:
		if s.Flow.Awaiting == nil && strings.TrimSpace(a.Value) != "" {
			e.echo(s, labelOr(a.Label, "Capture in list"))
			s.Flow.Reset()
			e.propose(s, &ListItemDraft{Title: a.Value})
			return nil
		}
	}

	e.echo(s, labelOr(a.Label, a.Value))
	if s.Flow.Awaiting == nil {
		e.say(s, "That question has already been answered. What would you like to capture?")
		return nil
	}
	return e.answer(ctx, s, reply{action: a.Action, value: a.Value, clicked: true})
}

// EditProposal updates one field of the pending proposal in place. Entity
// fields accept either an id or a name that resolves uniquely.
func (e *Engine) EditProposal(ctx context.Context, s *Session, field, value string) error {
	msg, ok := s.Pending()
	if !ok {
		return ErrNoProposal
	}
	data := msg.Proposal.Data
	if lookup := e.editLookup(data, field); lookup != nil && strings.TrimSpace(value) != "" {
		id, err := e.resolveEditValue(ctx, data, field, lookup, value)
		if err != nil {
			return err
		}
		value = id
	}
	if err := data.set(field, value); err != nil {
		return err
	}
	if err := e.describe(ctx, data); err != nil {
		return err
	}
	msg.Proposal.Mode = ModeEdit
	msg.Body = data.Summary()
	msg.Actions = proposalActions(data)
	return nil
}

func (e *Engine) resolveEditValue(ctx context.Context, data ProposalData, field string, lookup resolve.Lookup, value string) (string, error) {
	value = strings.TrimSpace(value)
	if _, ok, err := lookup.Label(ctx, value); err != nil {
		return "", err
	} else if ok {
		return value, nil
	}
	found, err := lookup.Find(ctx, value)
	if err != nil {
		return "", err
	}
	if found.Outcome != resolve.Unique {
		return "", fmt.Errorf("edit %s %s: no single %s matches %q", data.Kind(), field, lookup.Noun(), value)
	}
	return found.Match.ID, nil
}

func (e *Engine) route(ctx context.Context, s *Session, text string) error {
	r := RouteText(text)
	e.log.Debug("routed utterance", zap.String("intent", string(r.Intent)), zap.Bool("job_scoped", r.JobScoped))

	switch r.Intent {
	case IntentStartTimer, IntentStopTimer, IntentSwitchTimer:
		return e.routeTimer(ctx, s, r, text)
	case IntentLogTime:
		return e.start(ctx, s, FlowLogTime, text)
	case IntentConvert:
		if r.JobScoped {
			e.comingNext(s, "Converting list items into job tasks")
			return nil
		}
		return e.start(ctx, s, FlowConvert, text)
	case IntentJobTask:
		return e.start(ctx, s, FlowJobTask, text)
	case IntentQuickTask:
		return e.start(ctx, s, FlowQuickTask, text)
	case IntentTaskType:
		return e.start(ctx, s, FlowClarifyTaskType, text)
	case IntentListItem:
		return e.start(ctx, s, FlowListItem, text)
	case IntentCapture:
		return e.start(ctx, s, FlowClarifyIntent, text)
	}
	e.say(s, capabilities)
	return nil
}

func (e *Engine) routeTimer(ctx context.Context, s *Session, r Route, text string) error {
	timer, err := e.cmds.Timer(ctx)
	if err != nil {
		return fmt.Errorf("read timer: %w", err)
	}
	intent := r.Intent
	switch {
	case intent == IntentStopTimer && !timer.Active:
		e.say(s, "No timer is running right now.")
		return nil
	case intent == IntentSwitchTimer && !timer.Active:
		intent = IntentStartTimer
	case intent == IntentStartTimer && timer.Active:
		intent = IntentSwitchTimer
	}
	if r.JobScoped && intent != IntentStopTimer {
		e.comingNext(s, "Timers on job tasks")
		return nil
	}
	switch intent {
	case IntentStopTimer:
		return e.start(ctx, s, FlowStopTimer, text)
	case IntentSwitchTimer:
		return e.start(ctx, s, FlowSwitchTimer, text)
	default:
		return e.start(ctx, s, FlowStartTimer, text)
	}
}

// start replaces any idle flow with a fresh one of kind and advances it.
func (e *Engine) start(ctx context.Context, s *Session, kind FlowKind, text string) error {
	s.Flow = newFlow(kind, text)
	done, err := e.seed(ctx, s, &s.Flow)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	return e.advance(ctx, s)
}

func (e *Engine) comingNext(s *Session, what string) {
	s.Flow.Reset()
	e.say(s, what+" are coming next. For now you can manage them from the jobs screen.",
		Action{Action: ActNavigate, Value: "jobs", Label: "Open jobs"})
}

func (e *Engine) cancelFlow(s *Session) {
	kind := s.Flow.Kind
	s.Flow.Reset()
	e.log.Debug("flow cancelled", zap.String("flow", string(kind)))
	e.say(s, "Cancelled. Nothing was saved.")
}

func (e *Engine) discardProposal(s *Session) {
	s.dropPending()
	e.say(s, "Discarded. Nothing was saved.")
}

func (e *Engine) resetSession(s *Session) {
	*s = *NewSession()
	e.Welcome(s)
}

func (e *Engine) propose(s *Session, data ProposalData) {
	s.dropPending()
	s.Flow.Reset()
	msg := e.message(RoleAssistant, data.Summary(), proposalActions(data)...)
	msg.Kind = KindProposal
	msg.Proposal = NewProposal(data)
	s.Messages = append(s.Messages, msg)
	s.PendingProposalID = msg.ID
	e.log.Info("proposal built", zap.String("kind", string(data.Kind())), zap.Bool("valid", data.Validate().OK))
}

// proposalActions omits Confirm while the draft is invalid.
func proposalActions(data ProposalData) []Action {
	actions := make([]Action, 0, 3)
	if data.Validate().OK {
		actions = append(actions, Action{Action: ActConfirm, Label: "Confirm"})
	}
	return append(actions,
		Action{Action: ActEdit, Label: "Edit"},
		Action{Action: ActCancel, Label: "Cancel"})
}

func (e *Engine) message(role Role, body string, actions ...Action) Message {
	return Message{
		ID:        e.newID(),
		Role:      role,
		Kind:      KindText,
		Body:      body,
		Actions:   actions,
		CreatedAt: e.now(),
	}
}

func (e *Engine) say(s *Session, body string, actions ...Action) {
	s.Messages = append(s.Messages, e.message(RoleAssistant, body, actions...))
}

func (e *Engine) echo(s *Session, text string) {
	s.Messages = append(s.Messages, e.message(RoleUser, text))
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return fallback
}

func isConfirmWord(text string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!")) {
	case "confirm", "save", "save it", "looks good", "do it":
		return true
	}
	return extract.YesNo(text) == extract.Yes
}
