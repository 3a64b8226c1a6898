package chat

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"capture-chat/internal/extract"
	"capture-chat/internal/records"
	"capture-chat/internal/resolve"
)

// effect is what one step asks of the dispatcher: a question, a proposal,
// or a final message that ends the flow.
type effect struct {
	ask      *question
	final    *question
	proposal ProposalData
}

func (e *Engine) advance(ctx context.Context, s *Session) error {
	eff, err := e.step(ctx, s, &s.Flow)
	if err != nil {
		return err
	}
	switch {
	case eff.proposal != nil:
		e.propose(s, eff.proposal)
	case eff.ask != nil:
		e.ask(s, eff.ask)
	case eff.final != nil:
		s.Flow.Reset()
		e.say(s, eff.final.body, eff.final.actions...)
	}
	return nil
}

func (e *Engine) step(ctx context.Context, s *Session, f *Flow) (effect, error) {
	switch f.Kind {
	case FlowListItem:
		return e.stepSlots(ctx, f, []Slot{SlotTitle}, func() (ProposalData, error) {
			return &ListItemDraft{Title: f.Slots[SlotTitle], Notes: f.Slots[SlotNotes]}, nil
		})
	case FlowQuickTask:
		return e.stepSlots(ctx, f, quickTaskOrder(f), func() (ProposalData, error) {
			return e.buildQuickTask(ctx, f)
		})
	case FlowJobTask:
		return e.stepJobTask(ctx, f)
	case FlowConvert:
		return e.stepConvert(ctx, s, f)
	case FlowLogTime:
		return e.stepSlots(ctx, f, []Slot{SlotTask, SlotHours, SlotDate}, func() (ProposalData, error) {
			d := &TimeEntryDraft{Hours: parseHours(f.Slots[SlotHours]), Date: f.Slots[SlotDate]}
			if err := d.set("taskId", f.Slots[SlotTask]); err != nil {
				return nil, err
			}
			return d, e.describe(ctx, d)
		})
	case FlowStartTimer:
		return e.stepSlots(ctx, f, []Slot{SlotTask}, func() (ProposalData, error) {
			d := &TimerStartDraft{TaskID: f.Slots[SlotTask]}
			return d, e.describe(ctx, d)
		})
	case FlowStopTimer:
		return e.stepSlots(ctx, f, []Slot{SlotDate}, func() (ProposalData, error) {
			d := e.stopDraft(f)
			return d, e.describe(ctx, d)
		})
	case FlowSwitchTimer:
		return e.stepSlots(ctx, f, []Slot{SlotNextTask, SlotDate}, func() (ProposalData, error) {
			d := &TimerSwitchDraft{TimerStopDraft: *e.stopDraft(f), NextTaskID: f.Slots[SlotNextTask]}
			return d, e.describe(ctx, d)
		})
	case FlowClarifyIntent:
		return effect{ask: flowQuestion("Should I add this to your list, or make it a task?",
			FlowListItem, FlowClarifyTaskType)}, nil
	case FlowClarifyTaskType:
		return effect{ask: flowQuestion("What kind of task is this?",
			FlowQuickTask, FlowJobTask, FlowListItem)}, nil
	}
	return effect{}, nil
}

// stepSlots asks for the first unsettled slot in order, else builds.
func (e *Engine) stepSlots(ctx context.Context, f *Flow, order []Slot, build func() (ProposalData, error)) (effect, error) {
	for _, slot := range order {
		q, err := e.need(ctx, f, slot)
		if err != nil {
			return effect{}, err
		}
		if q != nil {
			return effect{ask: q}, nil
		}
	}
	data, err := build()
	if err != nil {
		return effect{}, err
	}
	return effect{proposal: data}, nil
}

func quickTaskOrder(f *Flow) []Slot {
	order := []Slot{SlotTitle, SlotAnchor}
	switch records.AnchorType(f.Slots[SlotAnchor]) {
	case records.AnchorCompany:
		order = append(order, SlotCompany, SlotPerson)
	case records.AnchorPerson:
		order = append(order, SlotPerson)
	}
	return append(order, SlotServiceType, SlotLOE, SlotDue, SlotAssignee, SlotDescription)
}

func (e *Engine) stepJobTask(ctx context.Context, f *Flow) (effect, error) {
	for _, slot := range []Slot{SlotTitle, SlotJob} {
		if q, err := e.need(ctx, f, slot); err != nil || q != nil {
			return effect{ask: q}, err
		}
	}
	if !f.Has(SlotDeliverable) {
		jobID := f.Slots[SlotJob]
		deliverables, err := e.res.DeliverablesOf(jobID).All(ctx)
		if err != nil {
			return effect{}, err
		}
		if len(deliverables) == 0 {
			name, _, err := e.res.Jobs.Label(ctx, jobID)
			if err != nil {
				return effect{}, err
			}
			return effect{final: &question{
				body: fmt.Sprintf("%s has no deliverables yet, so I can't attach a job task to it.", name),
				actions: []Action{
					{Action: ActCaptureList, Value: f.Slots[SlotTitle], Label: "Capture in list instead"},
					{Action: ActNavigate, Value: "jobs/" + jobID, Label: "Open job"},
				},
			}}, nil
		}
	}
	order := []Slot{SlotDeliverable, SlotServiceType, SlotLOE, SlotDue, SlotAssignee, SlotDescription}
	return e.stepSlots(ctx, f, order, func() (ProposalData, error) {
		d := &JobTaskDraft{
			Title:         f.Slots[SlotTitle],
			Description:   f.Slots[SlotDescription],
			JobID:         f.Slots[SlotJob],
			DeliverableID: f.Slots[SlotDeliverable],
			ServiceTypeID: f.Slots[SlotServiceType],
			LOEHours:      parseHours(f.Slots[SlotLOE]),
			DueDate:       f.Slots[SlotDue],
			AssigneeID:    f.Slots[SlotAssignee],
		}
		return d, e.describe(ctx, d)
	})
}

func (e *Engine) stepConvert(ctx context.Context, s *Session, f *Flow) (effect, error) {
	if q, err := e.need(ctx, f, SlotListItem); err != nil || q != nil {
		return effect{ask: q}, err
	}
	item, ok, err := e.res.ListItems.ByID(ctx, f.Context.SourceListItemID)
	if err != nil {
		return effect{}, err
	}
	if !ok {
		return effect{final: &question{body: "That list item no longer exists."}}, nil
	}
	if f.Context.RemoveSource == "" {
		return effect{ask: &question{
			awaiting: KeepOrRemove{ListItemID: item.ID},
			body:     fmt.Sprintf("Converting %q. Keep it on your list afterwards?", item.Title),
			actions: []Action{
				{Action: ActAnswer, Value: "keep", Label: "Keep it"},
				{Action: ActAnswer, Value: "remove", Label: "Remove it"},
			},
		}}, nil
	}
	if !f.Context.Prefilled {
		f.Context.Prefilled = true
		if !f.Has(SlotTitle) {
			f.Suggest(SlotTitle, textOption(item.Title))
		}
		if item.Notes != "" && !f.Has(SlotDescription) {
			f.Suggest(SlotDescription, textOption(item.Notes))
		}
	}
	return e.stepSlots(ctx, f, quickTaskOrder(f), func() (ProposalData, error) {
		task, err := e.buildQuickTask(ctx, f)
		if err != nil {
			return nil, err
		}
		return &ConvertedTaskDraft{
			ListItemID:     item.ID,
			ListItemTitle:  item.Title,
			RemoveListItem: f.Context.RemoveSource == "remove",
			Task:           *task,
		}, nil
	})
}

func (e *Engine) buildQuickTask(ctx context.Context, f *Flow) (*QuickTaskDraft, error) {
	d := &QuickTaskDraft{
		Title:         f.Slots[SlotTitle],
		Description:   f.Slots[SlotDescription],
		Anchor:        records.AnchorType(f.Slots[SlotAnchor]),
		ServiceTypeID: f.Slots[SlotServiceType],
		LOEHours:      parseHours(f.Slots[SlotLOE]),
		DueDate:       f.Slots[SlotDue],
		AssigneeID:    f.Slots[SlotAssignee],
	}
	switch d.Anchor {
	case records.AnchorCompany:
		d.CompanyID, d.PersonID = f.Slots[SlotCompany], f.Slots[SlotPerson]
	case records.AnchorPerson:
		d.PersonID = f.Slots[SlotPerson]
	default:
		d.Anchor = records.AnchorInternal
	}
	return d, e.describe(ctx, d)
}

func (e *Engine) stopDraft(f *Flow) *TimerStopDraft {
	return &TimerStopDraft{
		TaskID:         f.Slots[SlotTask],
		StartedAt:      f.Context.TimerStartedAt,
		ElapsedMinutes: f.Context.ElapsedMinutes,
		Hours:          parseHours(f.Slots[SlotHours]),
		Date:           f.Slots[SlotDate],
	}
}

// seed pre-fills a new flow from its source text. It reports done when the
// flow ended immediately with a message.
func (e *Engine) seed(ctx context.Context, s *Session, f *Flow) (bool, error) {
	text := f.SourceText
	hints := extract.Hints(text)

	switch f.Kind {
	case FlowListItem:
		f.Suggest(SlotTitle, textOption(extract.Title(text)))
		if notes := extract.Notes(text); notes != "" {
			f.Set(SlotNotes, notes)
		}

	case FlowQuickTask:
		seedTask(f, text, e.now())
		return false, e.seedAnchor(ctx, f, hints)

	case FlowJobTask:
		seedTask(f, text, e.now())
		_, err := e.guessEntity(ctx, f, SlotJob, e.res.Jobs, hints, false)
		return false, err

	case FlowConvert:
		seedSchedule(f, text, e.now())
		if id := s.LastListItemID; id != "" && refersBack(text) {
			if _, ok, err := e.res.ListItems.ByID(ctx, id); err != nil {
				return false, err
			} else if ok {
				f.Context.SourceListItemID = id
			}
		}
		if f.Context.SourceListItemID == "" {
			found, err := e.res.ListItems.Find(ctx, hints...)
			if err != nil {
				return false, err
			}
			if found.Outcome == resolve.Unique {
				f.Context.SourceListItemID = found.Match.ID
			}
		}
		return false, e.seedAnchor(ctx, f, hints)

	case FlowLogTime:
		if h, ok := extract.Hours(text); ok && h > 0 {
			f.Set(SlotHours, formatHours(h))
		}
		if d, ok := extract.Date(text, e.now()); ok {
			f.Set(SlotDate, d)
		}
		_, err := e.guessEntity(ctx, f, SlotTask, e.res.Tasks, hints, true)
		return false, err

	case FlowStartTimer:
		found, err := e.guessEntity(ctx, f, SlotTask, e.res.QuickTasks, hints, true)
		if err != nil || found.Outcome != resolve.NoMatch || len(hints) == 0 {
			return false, err
		}
		jobTask, err := e.res.JobTasks.Find(ctx, hints...)
		if err != nil {
			return false, err
		}
		if jobTask.Outcome == resolve.Unique {
			e.comingNext(s, "Timers on job tasks")
			return true, nil
		}

	case FlowStopTimer, FlowSwitchTimer:
		timer, err := e.cmds.Timer(ctx)
		if err != nil {
			return false, fmt.Errorf("read timer: %w", err)
		}
		if !timer.Active {
			s.Flow.Reset()
			e.say(s, "No timer is running right now.")
			return true, nil
		}
		elapsed := elapsedMinutes(timer.StartedAt, e.now())
		f.Context.ElapsedMinutes = elapsed
		f.Context.TimerTaskID = timer.TaskID
		f.Context.TimerStartedAt = timer.StartedAt
		f.Set(SlotTask, timer.TaskID)
		f.Set(SlotHours, formatHours(extract.MinutesToHours(elapsed)))
		if d, ok := extract.Date(text, e.now()); ok {
			f.Set(SlotDate, d)
		}
		e.log.Debug("timer measured", zap.String("task", timer.TaskID), zap.Int("elapsed_minutes", elapsed))
		if f.Kind == FlowSwitchTimer {
			_, err := e.guessEntity(ctx, f, SlotNextTask, e.res.QuickTasks, hints, true)
			return false, err
		}
	}
	return false, nil
}

// elapsedMinutes rounds to whole minutes and never reports less than one.
func elapsedMinutes(startedAt, now time.Time) int {
	m := int(math.Round(float64(now.Sub(startedAt).Milliseconds()) / 60000))
	if m < 1 {
		return 1
	}
	return m
}

func seedTask(f *Flow, text string, now time.Time) {
	f.Suggest(SlotTitle, textOption(extract.Title(text)))
	if notes := extract.Notes(text); notes != "" {
		f.Suggest(SlotDescription, textOption(notes))
	}
	seedSchedule(f, text, now)
}

func seedSchedule(f *Flow, text string, now time.Time) {
	if h, ok := extract.Hours(text); ok && h > 0 {
		f.Set(SlotLOE, formatHours(h))
	}
	if d, ok := extract.Date(text, now); ok {
		f.Set(SlotDue, d)
	}
}

// seedAnchor infers a client anchor from a company or contact named in the
// text. The entity itself still goes through confirmation.
func (e *Engine) seedAnchor(ctx context.Context, f *Flow, hints []string) error {
	for _, fam := range []struct {
		slot   Slot
		lookup resolve.Lookup
	}{{SlotCompany, e.res.Companies}, {SlotPerson, e.res.People}} {
		found, err := e.guessEntity(ctx, f, fam.slot, fam.lookup, hints, false)
		if err != nil {
			return err
		}
		if found.Outcome != resolve.NoMatch {
			f.Set(SlotAnchor, string(anchorFor(fam.slot)))
			return nil
		}
	}
	return nil
}

// guessEntity resolves hints against lookup. A unique match is either set
// directly or offered for confirmation; several matches narrow the options.
func (e *Engine) guessEntity(ctx context.Context, f *Flow, slot Slot, lookup resolve.Lookup, hints []string, direct bool) (resolve.Found, error) {
	if len(hints) == 0 {
		return resolve.Found{}, nil
	}
	found, err := lookup.Find(ctx, hints...)
	if err != nil {
		return resolve.Found{}, err
	}
	switch found.Outcome {
	case resolve.Unique:
		if direct {
			f.Set(slot, found.Match.ID)
		} else {
			f.Suggest(slot, found.Match)
		}
	case resolve.Ambiguous:
		f.Context.ensure()
		f.Context.Options[slot] = capOptions(found.Options)
	}
	return found, nil
}

func refersBack(text string) bool {
	return thisThatRe.MatchString(text)
}

// describe fills display names from ids. Unknown ids leave names empty so
// validation still reports the missing piece.
func (e *Engine) describe(ctx context.Context, data ProposalData) error {
	label := func(l resolve.Lookup, id string) (string, error) {
		name, _, err := l.Label(ctx, id)
		return name, err
	}
	var err error
	switch d := data.(type) {
	case *ListItemDraft:
	case *QuickTaskDraft:
		if d.CompanyName, err = label(e.res.Companies, d.CompanyID); err != nil {
			return err
		}
		if d.PersonName, err = label(e.res.People, d.PersonID); err != nil {
			return err
		}
		if d.ServiceTypeName, err = label(e.res.ServiceTypes, d.ServiceTypeID); err != nil {
			return err
		}
		if d.AssigneeName, err = label(e.res.TeamMembers, d.AssigneeID); err != nil {
			return err
		}
	case *JobTaskDraft:
		if d.JobName, err = label(e.res.Jobs, d.JobID); err != nil {
			return err
		}
		deliverable, ok, err := e.res.DeliverablesOf(d.JobID).ByID(ctx, d.DeliverableID)
		if err != nil {
			return err
		}
		if ok {
			d.DeliverableName, d.DeliverableJobID = deliverable.Name, deliverable.JobID
		} else {
			d.DeliverableJobID = ""
		}
		if d.ServiceTypeName, err = label(e.res.ServiceTypes, d.ServiceTypeID); err != nil {
			return err
		}
		if d.AssigneeName, err = label(e.res.TeamMembers, d.AssigneeID); err != nil {
			return err
		}
	case *ConvertedTaskDraft:
		if d.ListItemTitle, err = label(e.res.ListItems, d.ListItemID); err != nil {
			return err
		}
		return e.describe(ctx, &d.Task)
	case *TimeEntryDraft:
		if d.TaskID != "" {
			d.TaskTitle, err = label(e.res.Tasks, resolve.TaskKey(records.TaskRef{ID: d.TaskID, Kind: d.TaskKind}))
		}
		return err
	case *TimerStartDraft:
		d.TaskTitle, err = label(e.res.QuickTasks, d.TaskID)
		return err
	case *TimerStopDraft:
		d.TaskTitle, err = label(e.res.QuickTasks, d.TaskID)
		return err
	case *TimerSwitchDraft:
		if d.TaskTitle, err = label(e.res.QuickTasks, d.TaskID); err != nil {
			return err
		}
		d.NextTaskTitle, err = label(e.res.QuickTasks, d.NextTaskID)
		return err
	}
	return nil
}

// editLookup maps an entity field of a draft to the family its ids live in.
func (e *Engine) editLookup(data ProposalData, field string) resolve.Lookup {
	switch field {
	case "companyId":
		return e.res.Companies
	case "personId":
		return e.res.People
	case "serviceTypeId":
		return e.res.ServiceTypes
	case "assigneeId":
		return e.res.TeamMembers
	case "jobId":
		return e.res.Jobs
	case "deliverableId":
		if d, ok := data.(*JobTaskDraft); ok {
			return e.res.DeliverablesOf(d.JobID)
		}
	case "taskId":
		switch data.(type) {
		case *TimeEntryDraft:
			return e.res.Tasks
		case *TimerStartDraft:
			return e.res.QuickTasks
		}
	case "nextTaskId":
		return e.res.QuickTasks
	}
	return nil
}
